package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/roasted-route/api/internal/database"
	"github.com/roasted-route/api/internal/enum"
)

func (m *mockOrderStore) addOrder(customerID uuid.UUID, deliveryType, status string, lines ...database.OrderLine) database.Order {
	m.orderSeq++
	o := database.Order{
		ID:            uuid.New(),
		OrderNo:       m.orderSeq,
		CustomerID:    customerID,
		CustomerName:  "Ana Reyes",
		ContactNumber: "09171234567",
		DeliveryType:  deliveryType,
		PaymentMethod: enum.PaymentMethodCash,
		PaymentStatus: enum.PaymentStatusUnpaid,
		Status:        status,
	}
	m.orders[o.ID] = o
	for i := range lines {
		lines[i].ID = uuid.New()
		lines[i].OrderID = o.ID
	}
	m.orderLines[o.ID] = lines
	return o
}

func TestUpdateStatus_SkippingAStepFails(t *testing.T) {
	for _, deliveryType := range []string{enum.DeliveryTypeDelivery, enum.DeliveryTypePickup} {
		store := newMockOrderStore()
		svc, _ := newTestService(store)
		order := store.addOrder(uuid.New(), deliveryType, enum.OrderStatusPending)

		_, err := svc.UpdateStatus(context.Background(), UpdateStatusRequest{
			OrderID:   order.ID,
			NewStatus: enum.OrderStatusOutForDelivery,
			StaffID:   uuid.New(),
		})
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s: pending -> out_for_delivery should fail, got: %v", deliveryType, err)
		}
	}
}

func TestUpdateStatus_WorkflowsAreDisjoint(t *testing.T) {
	store := newMockOrderStore()
	svc, _ := newTestService(store)

	// ready is unreachable for delivery orders
	deliveryOrder := store.addOrder(uuid.New(), enum.DeliveryTypeDelivery, enum.OrderStatusPreparing)
	if _, err := svc.UpdateStatus(context.Background(), UpdateStatusRequest{
		OrderID: deliveryOrder.ID, NewStatus: enum.OrderStatusReady, StaffID: uuid.New(),
	}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("delivery order should never become ready, got: %v", err)
	}

	// out_for_delivery is unreachable for pickup orders
	pickupOrder := store.addOrder(uuid.New(), enum.DeliveryTypePickup, enum.OrderStatusPreparing)
	if _, err := svc.UpdateStatus(context.Background(), UpdateStatusRequest{
		OrderID: pickupOrder.ID, NewStatus: enum.OrderStatusOutForDelivery, StaffID: uuid.New(),
	}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("pickup order should never go out for delivery, got: %v", err)
	}
}

func TestUpdateStatus_DeliveredCascadesToCompleted(t *testing.T) {
	store := newMockOrderStore()
	svc, notifier := newTestService(store)
	order := store.addOrder(uuid.New(), enum.DeliveryTypeDelivery, enum.OrderStatusOutForDelivery)

	updated, err := svc.UpdateStatus(context.Background(), UpdateStatusRequest{
		OrderID:   order.ID,
		NewStatus: enum.OrderStatusDelivered,
		StaffID:   uuid.New(),
	})
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if updated.Status != enum.OrderStatusCompleted {
		t.Errorf("delivery order must end at completed, got %s", updated.Status)
	}
	if len(notifier.userMessages) != 2 {
		t.Errorf("expected delivered + completed notifications, got %v", notifier.userMessages)
	}
}

func TestUpdateStatus_PickupFullWorkflow(t *testing.T) {
	store := newMockOrderStore()
	svc, _ := newTestService(store)
	order := store.addOrder(uuid.New(), enum.DeliveryTypePickup, enum.OrderStatusPending)

	for _, next := range []string{enum.OrderStatusPreparing, enum.OrderStatusReady, enum.OrderStatusCompleted} {
		updated, err := svc.UpdateStatus(context.Background(), UpdateStatusRequest{
			OrderID: order.ID, NewStatus: next, StaffID: uuid.New(),
		})
		if err != nil {
			t.Fatalf("transition to %s failed: %v", next, err)
		}
		if updated.Status != next {
			t.Fatalf("status = %s, want %s", updated.Status, next)
		}
	}

	// completed is terminal
	if _, err := svc.UpdateStatus(context.Background(), UpdateStatusRequest{
		OrderID: order.ID, NewStatus: enum.OrderStatusPending, StaffID: uuid.New(),
	}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("completed order should accept no transitions, got: %v", err)
	}
}

func TestUpdateStatus_CancelReleasesStock(t *testing.T) {
	store := newMockOrderStore()
	svc, _ := newTestService(store)

	item := store.addItem("Roast Chicken", "250.00", 3)
	order := store.addOrder(uuid.New(), enum.DeliveryTypeDelivery, enum.OrderStatusPending,
		database.OrderLine{MenuItemID: item.ID, ItemName: item.Name, Quantity: 2, UnitPrice: item.Price})

	updated, err := svc.UpdateStatus(context.Background(), UpdateStatusRequest{
		OrderID: order.ID, NewStatus: enum.OrderStatusCancelled, StaffID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("cancel via status update failed: %v", err)
	}
	if updated.Status != enum.OrderStatusCancelled {
		t.Errorf("status = %s, want cancelled", updated.Status)
	}
	if store.items[item.ID].Stock != 5 {
		t.Errorf("stock = %d, want 5 after restoring 2", store.items[item.ID].Stock)
	}
}

func TestUpdateStatus_OrderNotFound(t *testing.T) {
	store := newMockOrderStore()
	svc, _ := newTestService(store)

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusRequest{
		OrderID: uuid.New(), NewStatus: enum.OrderStatusPreparing, StaffID: uuid.New(),
	})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got: %v", err)
	}
}

func TestCancel_StaffRestoresStockPerLine(t *testing.T) {
	store := newMockOrderStore()
	svc, _ := newTestService(store)

	chicken := store.addItem("Roast Chicken", "250.00", 1)
	fries := store.addItem("Fries", "60.00", 4)
	order := store.addOrder(uuid.New(), enum.DeliveryTypePickup, enum.OrderStatusPreparing,
		database.OrderLine{MenuItemID: chicken.ID, ItemName: chicken.Name, Quantity: 2, UnitPrice: chicken.Price},
		database.OrderLine{MenuItemID: fries.ID, ItemName: fries.Name, Quantity: 3, UnitPrice: fries.Price},
	)

	updated, err := svc.Cancel(context.Background(), CancelRequest{
		OrderID: order.ID, ActorID: uuid.New(), IsStaff: true,
	})
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if updated.Status != enum.OrderStatusCancelled {
		t.Errorf("status = %s, want cancelled", updated.Status)
	}
	if store.items[chicken.ID].Stock != 3 {
		t.Errorf("chicken stock = %d, want 3", store.items[chicken.ID].Stock)
	}
	if store.items[fries.ID].Stock != 7 {
		t.Errorf("fries stock = %d, want 7", store.items[fries.ID].Stock)
	}
}

func TestCancel_CustomerOnlyFromPending(t *testing.T) {
	store := newMockOrderStore()
	svc, _ := newTestService(store)

	customerID := uuid.New()
	order := store.addOrder(customerID, enum.DeliveryTypePickup, enum.OrderStatusPreparing)

	_, err := svc.Cancel(context.Background(), CancelRequest{
		OrderID: order.ID, ActorID: customerID, IsStaff: false,
	})
	if !errors.Is(err, ErrCancelNotAllowed) {
		t.Fatalf("customer cancel of preparing order should fail, got: %v", err)
	}

	pending := store.addOrder(customerID, enum.DeliveryTypePickup, enum.OrderStatusPending)
	if _, err := svc.Cancel(context.Background(), CancelRequest{
		OrderID: pending.ID, ActorID: customerID, IsStaff: false,
	}); err != nil {
		t.Fatalf("customer cancel of pending order should succeed, got: %v", err)
	}
}

func TestCancel_CustomerCannotTouchOthersOrder(t *testing.T) {
	store := newMockOrderStore()
	svc, _ := newTestService(store)

	order := store.addOrder(uuid.New(), enum.DeliveryTypePickup, enum.OrderStatusPending)

	_, err := svc.Cancel(context.Background(), CancelRequest{
		OrderID: order.ID, ActorID: uuid.New(), IsStaff: false,
	})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound for foreign order, got: %v", err)
	}
}

func TestCancel_TerminalStatesRejected(t *testing.T) {
	store := newMockOrderStore()
	svc, _ := newTestService(store)

	for _, status := range []string{enum.OrderStatusCompleted, enum.OrderStatusCancelled} {
		order := store.addOrder(uuid.New(), enum.DeliveryTypePickup, status)
		_, err := svc.Cancel(context.Background(), CancelRequest{
			OrderID: order.ID, ActorID: uuid.New(), IsStaff: true,
		})
		if !errors.Is(err, ErrCancelNotAllowed) {
			t.Errorf("cancel of %s order should fail, got: %v", status, err)
		}
	}
}

func TestAvailableNextStatuses(t *testing.T) {
	got := AvailableNextStatuses(enum.DeliveryTypeDelivery, enum.OrderStatusPreparing)
	want := []string{enum.OrderStatusOutForDelivery, enum.OrderStatusCancelled}
	if len(got) != len(want) {
		t.Fatalf("AvailableNextStatuses = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("AvailableNextStatuses = %v, want %v", got, want)
		}
	}

	if next := AvailableNextStatuses(enum.DeliveryTypePickup, enum.OrderStatusCompleted); len(next) != 0 {
		t.Errorf("completed pickup order should have no next statuses, got %v", next)
	}
}

func TestStatusDisplay(t *testing.T) {
	cases := map[string]string{
		enum.OrderStatusPending:        "Pending",
		enum.OrderStatusPreparing:      "Preparing",
		enum.OrderStatusReady:          "Ready",
		enum.OrderStatusOutForDelivery: "Out for Delivery",
		enum.OrderStatusDelivered:      "Delivered",
		enum.OrderStatusCompleted:      "Completed",
		enum.OrderStatusCancelled:      "Cancelled",
	}
	for status, want := range cases {
		if got := StatusDisplay(status); got != want {
			t.Errorf("StatusDisplay(%q) = %q, want %q", status, got, want)
		}
	}
	if got := StatusDisplay("mystery"); got != "mystery" {
		t.Errorf("unknown status should pass through, got %q", got)
	}
}
