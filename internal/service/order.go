package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/roasted-route/api/internal/database"
	"github.com/roasted-route/api/internal/enum"
	"github.com/roasted-route/api/internal/pricing"
)

// Staff get a stock alert when a reservation leaves an item at or below
// this many units.
const lowStockThreshold = 5

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed for order placement and
// lifecycle management. Satisfied by *database.Queries (and its WithTx
// variant).
type OrderStore interface {
	GetActiveCart(ctx context.Context, customerID uuid.UUID) (database.Cart, error)
	ListCartLines(ctx context.Context, cartID uuid.UUID) ([]database.CartLine, error)
	DeactivateCart(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	GetMenuItemForUpdate(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	ReserveMenuItemStock(ctx context.Context, arg database.ReserveMenuItemStockParams) (int32, error)
	ReleaseMenuItemStock(ctx context.Context, arg database.ReleaseMenuItemStockParams) (int32, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderLine(ctx context.Context, arg database.CreateOrderLineParams) (database.OrderLine, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrderForCustomer(ctx context.Context, arg database.GetOrderForCustomerParams) (database.Order, error)
	ListOrderLines(ctx context.Context, orderID uuid.UUID) ([]database.OrderLine, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	UpdatePaymentStatus(ctx context.Context, arg database.UpdatePaymentStatusParams) (database.Order, error)
	AttachPaymentProof(ctx context.Context, arg database.AttachPaymentProofParams) (database.Order, error)
	RateOrder(ctx context.Context, arg database.RateOrderParams) (database.Order, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// Notifier is the best-effort notification and audit sink. Implementations
// must never return errors; failures are logged and swallowed internally.
type Notifier interface {
	NotifyUser(ctx context.Context, userID uuid.UUID, message, typ string)
	NotifyStaff(ctx context.Context, message, typ string)
	LogActivity(ctx context.Context, arg database.CreateActivityLogParams)
}

// OrderService handles checkout, status progression, payment tracking, and
// cancellation.
type OrderService struct {
	pool         TxBeginner
	store        OrderStore // pool-backed, for single-statement operations
	newStore     NewOrderStore
	notifier     Notifier
	deliveryFee  decimal.Decimal
	storeAddress string
}

func NewOrderService(pool TxBeginner, store OrderStore, newStore NewOrderStore, notifier Notifier, deliveryFee decimal.Decimal, storeAddress string) *OrderService {
	return &OrderService{
		pool:         pool,
		store:        store,
		newStore:     newStore,
		notifier:     notifier,
		deliveryFee:  deliveryFee,
		storeAddress: storeAddress,
	}
}

// FormatOrderNo renders the human-readable order number shown to customers
// and staff.
func FormatOrderNo(no int64) string {
	return fmt.Sprintf("ORD-%06d", no)
}

// ComputedTotal is the authoritative order total: line totals recomputed
// from quantities, captured prices, and add-ons, plus the delivery fee. The
// stored total_amount column is display cache only.
func ComputedTotal(order database.Order, lines []database.OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		totals := pricing.ComputeLineTotals(numericToDecimal(l.UnitPrice), l.Quantity, l.Customization)
		total = total.Add(totals.Total)
	}
	return total.Add(numericToDecimal(order.DeliveryFee))
}

// PlaceOrderRequest is the validated input for checkout.
type PlaceOrderRequest struct {
	CustomerID    uuid.UUID
	CustomerName  string
	ContactNumber string
	DeliveryType  string
	Address       string
	Note          string
	PaymentMethod string
}

// PlaceOrderResult is the created order with its line snapshot.
type PlaceOrderResult struct {
	Order database.Order
	Lines []database.OrderLine
}

// lowStockAlert is carried out of the checkout transaction so staff alerts
// fire only after commit.
type lowStockAlert struct {
	itemName  string
	remaining int32
}

// PlaceOrder turns the customer's active cart into an order. Stock checks,
// order and line creation, stock decrements, and cart deactivation all
// happen in one transaction; either everything commits or nothing does.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if err := validatePlaceOrder(req); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	cart, err := store.GetActiveCart(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEmptyCart
		}
		return nil, fmt.Errorf("get active cart: %w", err)
	}
	lines, err := store.ListCartLines(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	// Lock every referenced item in line insertion order and collect all
	// shortages before giving up, so the customer sees the full list.
	items := make(map[uuid.UUID]database.MenuItem, len(lines))
	var shortages []StockShortage
	for _, line := range lines {
		item, ok := items[line.MenuItemID]
		if !ok {
			item, err = store.GetMenuItemForUpdate(ctx, line.MenuItemID)
			if err != nil {
				return nil, fmt.Errorf("lock menu item: %w", err)
			}
			items[line.MenuItemID] = item
		}
		if line.Quantity > item.Stock {
			shortages = append(shortages, StockShortage{
				MenuItemID: item.ID,
				ItemName:   item.Name,
				Requested:  line.Quantity,
				Available:  item.Stock,
			})
		}
	}
	if len(shortages) > 0 {
		return nil, &InsufficientStockError{Shortages: shortages}
	}

	subtotal := decimal.Zero
	for _, line := range lines {
		totals := pricing.ComputeLineTotals(numericToDecimal(line.UnitPrice), line.Quantity, line.Customization)
		subtotal = subtotal.Add(totals.Total)
	}

	deliveryFee := decimal.Zero
	address := s.storeAddress
	if req.DeliveryType == enum.DeliveryTypeDelivery {
		deliveryFee = s.deliveryFee
		address = req.Address
	}
	totalAmount := subtotal.Add(deliveryFee)

	paymentStatus := enum.PaymentStatusUnpaid
	if req.PaymentMethod == enum.PaymentMethodGCash {
		paymentStatus = enum.PaymentStatusWaitingPayment
	}

	note := pgtype.Text{}
	if req.Note != "" {
		note = pgtype.Text{String: req.Note, Valid: true}
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		CustomerID:    req.CustomerID,
		CustomerName:  req.CustomerName,
		ContactNumber: req.ContactNumber,
		Subtotal:      decimalToNumeric(subtotal),
		DeliveryFee:   decimalToNumeric(deliveryFee),
		TotalAmount:   decimalToNumeric(totalAmount),
		DeliveryType:  req.DeliveryType,
		Address:       pgtype.Text{String: address, Valid: true},
		Note:          note,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: paymentStatus,
		Status:        enum.OrderStatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	var orderLines []database.OrderLine
	var alerts []lowStockAlert
	for _, line := range lines {
		item := items[line.MenuItemID]
		ol, err := store.CreateOrderLine(ctx, database.CreateOrderLineParams{
			OrderID:       order.ID,
			MenuItemID:    line.MenuItemID,
			ItemName:      item.Name,
			Quantity:      line.Quantity,
			UnitPrice:     line.UnitPrice,
			Customization: line.Customization,
		})
		if err != nil {
			return nil, fmt.Errorf("create order line: %w", err)
		}
		orderLines = append(orderLines, ol)

		remaining, err := store.ReserveMenuItemStock(ctx, database.ReserveMenuItemStockParams{
			ID:       line.MenuItemID,
			Quantity: line.Quantity,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// Row lock should make this unreachable, but the conditional
				// decrement is the final guard against negative stock.
				return nil, &InsufficientStockError{Shortages: []StockShortage{{
					MenuItemID: item.ID,
					ItemName:   item.Name,
					Requested:  line.Quantity,
					Available:  item.Stock,
				}}}
			}
			return nil, fmt.Errorf("reserve stock: %w", err)
		}
		if remaining <= lowStockThreshold {
			alerts = append(alerts, lowStockAlert{itemName: item.Name, remaining: remaining})
		}
	}

	if _, err := store.DeactivateCart(ctx, cart.ID); err != nil {
		return nil, fmt.Errorf("deactivate cart: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.afterPlaceOrder(ctx, order, alerts)
	return &PlaceOrderResult{Order: order, Lines: orderLines}, nil
}

func (s *OrderService) afterPlaceOrder(ctx context.Context, order database.Order, alerts []lowStockAlert) {
	orderNo := FormatOrderNo(order.OrderNo)
	s.notifier.NotifyUser(ctx, order.CustomerID,
		fmt.Sprintf("Order %s has been placed. We will notify you once it is being prepared.", orderNo),
		enum.NotificationTypeOrder)
	s.notifier.NotifyStaff(ctx,
		fmt.Sprintf("New order %s has been placed.", orderNo),
		enum.NotificationTypeOrder)
	for _, a := range alerts {
		s.notifier.NotifyStaff(ctx,
			fmt.Sprintf("Low stock: %s has %d units left.", a.itemName, a.remaining),
			enum.NotificationTypeStock)
	}
	s.notifier.LogActivity(ctx, database.CreateActivityLogParams{
		UserID:      pgtype.UUID{Bytes: order.CustomerID, Valid: true},
		UserRole:    enum.UserRoleCustomer,
		Category:    enum.ActivityCategoryOrder,
		Action:      "order_placed",
		Description: pgtype.Text{String: fmt.Sprintf("Order %s placed", orderNo), Valid: true},
		OrderID:     pgtype.UUID{Bytes: order.ID, Valid: true},
	})
}

func validatePlaceOrder(req PlaceOrderRequest) error {
	fields := make(map[string]string)
	if req.CustomerName == "" {
		fields["customer_name"] = "required"
	}
	if req.ContactNumber == "" {
		fields["contact_number"] = "required"
	}
	switch req.DeliveryType {
	case enum.DeliveryTypeDelivery:
		if req.Address == "" {
			fields["address"] = "required for delivery orders"
		}
	case enum.DeliveryTypePickup:
	default:
		fields["delivery_type"] = "must be delivery or pickup"
	}
	if !isValidPaymentMethod(req.PaymentMethod) {
		fields["payment_method"] = "invalid payment method"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func isValidPaymentMethod(s string) bool {
	switch s {
	case enum.PaymentMethodCreditCard, enum.PaymentMethodGCash,
		enum.PaymentMethodBankTransfer, enum.PaymentMethodCash,
		enum.PaymentMethodOverCounter:
		return true
	}
	return false
}

// --- Helpers ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
