package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/roasted-route/api/internal/database"
	"github.com/roasted-route/api/internal/enum"
)

// Transition tables keyed by delivery type. Delivery orders never pass
// through ready/completed by hand (delivered auto-cascades to completed);
// pickup orders never see out_for_delivery/delivered.
var deliveryTransitions = map[string][]string{
	enum.OrderStatusPending:        {enum.OrderStatusPreparing, enum.OrderStatusCancelled},
	enum.OrderStatusPreparing:      {enum.OrderStatusOutForDelivery, enum.OrderStatusCancelled},
	enum.OrderStatusOutForDelivery: {enum.OrderStatusDelivered, enum.OrderStatusCancelled},
	enum.OrderStatusDelivered:      {},
	enum.OrderStatusCompleted:      {},
	enum.OrderStatusCancelled:      {},
}

var pickupTransitions = map[string][]string{
	enum.OrderStatusPending:   {enum.OrderStatusPreparing, enum.OrderStatusCancelled},
	enum.OrderStatusPreparing: {enum.OrderStatusReady, enum.OrderStatusCancelled},
	enum.OrderStatusReady:     {enum.OrderStatusCompleted, enum.OrderStatusCancelled},
	enum.OrderStatusCompleted: {},
	enum.OrderStatusCancelled: {},
}

func transitionsFor(deliveryType string) map[string][]string {
	if deliveryType == enum.DeliveryTypePickup {
		return pickupTransitions
	}
	return deliveryTransitions
}

// AvailableNextStatuses lists the statuses an order can move to from its
// current status under its delivery type's workflow.
func AvailableNextStatuses(deliveryType, status string) []string {
	return transitionsFor(deliveryType)[status]
}

// StatusDisplay is the human-readable label for a status value. Unknown
// values pass through unchanged.
func StatusDisplay(status string) string {
	switch status {
	case enum.OrderStatusPending:
		return "Pending"
	case enum.OrderStatusPreparing:
		return "Preparing"
	case enum.OrderStatusReady:
		return "Ready"
	case enum.OrderStatusOutForDelivery:
		return "Out for Delivery"
	case enum.OrderStatusDelivered:
		return "Delivered"
	case enum.OrderStatusCompleted:
		return "Completed"
	case enum.OrderStatusCancelled:
		return "Cancelled"
	}
	return status
}

func canTransition(deliveryType, from, to string) bool {
	for _, s := range transitionsFor(deliveryType)[from] {
		if s == to {
			return true
		}
	}
	return false
}

// UpdateStatusRequest identifies the order, the requested status, and the
// staff member driving the change.
type UpdateStatusRequest struct {
	OrderID   uuid.UUID
	NewStatus string
	StaffID   uuid.UUID
}

// UpdateStatus moves an order one step through its workflow. Moving a
// delivery order to delivered cascades to completed in the same
// transaction; delivered is a display waypoint, never a resting state.
// Cancelling through this path restores stock like Cancel does.
func (s *OrderService) UpdateStatus(ctx context.Context, req UpdateStatusRequest) (database.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}

	if !canTransition(order.DeliveryType, order.Status, req.NewStatus) {
		return database.Order{}, fmt.Errorf("%w: %s -> %s (%s)", ErrInvalidTransition, order.Status, req.NewStatus, order.DeliveryType)
	}

	if req.NewStatus == enum.OrderStatusCancelled {
		if err := releaseOrderStock(ctx, store, order.ID); err != nil {
			return database.Order{}, err
		}
	}

	updated, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:         order.ID,
		Status:     req.NewStatus,
		FromStatus: order.Status,
	})
	if err != nil {
		return database.Order{}, fmt.Errorf("update status: %w", err)
	}

	cascaded := false
	if order.DeliveryType == enum.DeliveryTypeDelivery && req.NewStatus == enum.OrderStatusDelivered {
		updated, err = store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
			ID:         order.ID,
			Status:     enum.OrderStatusCompleted,
			FromStatus: enum.OrderStatusDelivered,
		})
		if err != nil {
			return database.Order{}, fmt.Errorf("cascade to completed: %w", err)
		}
		cascaded = true
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}

	orderNo := FormatOrderNo(updated.OrderNo)
	if msg := statusMessage(req.NewStatus); msg != "" {
		s.notifier.NotifyUser(ctx, updated.CustomerID,
			fmt.Sprintf("Order %s Update: %s", orderNo, msg),
			enum.NotificationTypeOrder)
	}
	if cascaded {
		s.notifier.NotifyUser(ctx, updated.CustomerID,
			fmt.Sprintf("Order %s Update: %s", orderNo, statusMessage(enum.OrderStatusCompleted)),
			enum.NotificationTypeOrder)
	}
	s.notifier.LogActivity(ctx, database.CreateActivityLogParams{
		UserID:      pgtype.UUID{Bytes: req.StaffID, Valid: true},
		UserRole:    enum.UserRoleStaff,
		Category:    enum.ActivityCategoryOrder,
		Action:      "status_updated",
		Description: pgtype.Text{String: fmt.Sprintf("Order %s moved to %s", orderNo, updated.Status), Valid: true},
		OrderID:     pgtype.UUID{Bytes: updated.ID, Valid: true},
	})
	return updated, nil
}

// CancelRequest identifies the order and who is cancelling. Customers may
// only cancel their own orders, and only while still pending.
type CancelRequest struct {
	OrderID uuid.UUID
	ActorID uuid.UUID
	IsStaff bool
}

// Cancel sets the order to cancelled and restores stock for every line.
// Staff can cancel any non-terminal order; customers only a pending one.
func (s *OrderService) Cancel(ctx context.Context, req CancelRequest) (database.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}

	if !req.IsStaff {
		if order.CustomerID != req.ActorID {
			return database.Order{}, ErrOrderNotFound
		}
		if order.Status != enum.OrderStatusPending {
			return database.Order{}, ErrCancelNotAllowed
		}
	} else if order.Status == enum.OrderStatusCompleted || order.Status == enum.OrderStatusCancelled {
		return database.Order{}, ErrCancelNotAllowed
	}

	if err := releaseOrderStock(ctx, store, order.ID); err != nil {
		return database.Order{}, err
	}

	updated, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:         order.ID,
		Status:     enum.OrderStatusCancelled,
		FromStatus: order.Status,
	})
	if err != nil {
		return database.Order{}, fmt.Errorf("cancel order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}

	orderNo := FormatOrderNo(updated.OrderNo)
	s.notifier.NotifyUser(ctx, updated.CustomerID,
		fmt.Sprintf("Order %s Update: %s", orderNo, statusMessage(enum.OrderStatusCancelled)),
		enum.NotificationTypeOrder)
	if !req.IsStaff {
		s.notifier.NotifyStaff(ctx,
			fmt.Sprintf("Order %s was cancelled by the customer.", orderNo),
			enum.NotificationTypeOrder)
	}

	role := enum.UserRoleCustomer
	if req.IsStaff {
		role = enum.UserRoleStaff
	}
	s.notifier.LogActivity(ctx, database.CreateActivityLogParams{
		UserID:      pgtype.UUID{Bytes: req.ActorID, Valid: true},
		UserRole:    role,
		Category:    enum.ActivityCategoryOrder,
		Action:      "order_cancelled",
		Description: pgtype.Text{String: fmt.Sprintf("Order %s cancelled", orderNo), Valid: true},
		OrderID:     pgtype.UUID{Bytes: updated.ID, Valid: true},
	})
	return updated, nil
}

// releaseOrderStock restores stock for every line of the order. Runs inside
// the caller's transaction.
func releaseOrderStock(ctx context.Context, store OrderStore, orderID uuid.UUID) error {
	lines, err := store.ListOrderLines(ctx, orderID)
	if err != nil {
		return fmt.Errorf("list order lines: %w", err)
	}
	for _, line := range lines {
		if _, err := store.ReleaseMenuItemStock(ctx, database.ReleaseMenuItemStockParams{
			ID:       line.MenuItemID,
			Quantity: line.Quantity,
		}); err != nil {
			return fmt.Errorf("release stock: %w", err)
		}
	}
	return nil
}

func statusMessage(status string) string {
	switch status {
	case enum.OrderStatusPreparing:
		return "Your order is now being prepared."
	case enum.OrderStatusReady:
		return "Your order is ready for pickup."
	case enum.OrderStatusOutForDelivery:
		return "Your order is out for delivery."
	case enum.OrderStatusDelivered:
		return "Your order has been delivered."
	case enum.OrderStatusCompleted:
		return "Your order has been completed. Thank you!"
	case enum.OrderStatusCancelled:
		return "Your order has been cancelled."
	}
	return ""
}
