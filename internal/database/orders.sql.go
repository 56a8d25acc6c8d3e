package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, order_no, customer_id, customer_name, contact_number, subtotal, delivery_fee, total_amount, delivery_type, address, note, payment_method, payment_status, payment_proof, status, rating, review, created_at, updated_at`

func scanOrder(row rowScanner, o *Order) error {
	return row.Scan(
		&o.ID,
		&o.OrderNo,
		&o.CustomerID,
		&o.CustomerName,
		&o.ContactNumber,
		&o.Subtotal,
		&o.DeliveryFee,
		&o.TotalAmount,
		&o.DeliveryType,
		&o.Address,
		&o.Note,
		&o.PaymentMethod,
		&o.PaymentStatus,
		&o.PaymentProof,
		&o.Status,
		&o.Rating,
		&o.Review,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
}

// rowScanner is the scan surface shared by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const createOrder = `
INSERT INTO orders (customer_id, customer_name, contact_number, subtotal, delivery_fee, total_amount, delivery_type, address, note, payment_method, payment_status, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	CustomerID    uuid.UUID
	CustomerName  string
	ContactNumber string
	Subtotal      pgtype.Numeric
	DeliveryFee   pgtype.Numeric
	TotalAmount   pgtype.Numeric
	DeliveryType  string
	Address       pgtype.Text
	Note          pgtype.Text
	PaymentMethod string
	PaymentStatus string
	Status        string
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.CustomerID,
		arg.CustomerName,
		arg.ContactNumber,
		arg.Subtotal,
		arg.DeliveryFee,
		arg.TotalAmount,
		arg.DeliveryType,
		arg.Address,
		arg.Note,
		arg.PaymentMethod,
		arg.PaymentStatus,
		arg.Status,
	)
	var o Order
	err := scanOrder(row, &o)
	return o, err
}

const createOrderLine = `
INSERT INTO order_lines (order_id, menu_item_id, item_name, quantity, unit_price, customization)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, order_id, menu_item_id, item_name, quantity, unit_price, customization
`

type CreateOrderLineParams struct {
	OrderID       uuid.UUID
	MenuItemID    uuid.UUID
	ItemName      string
	Quantity      int32
	UnitPrice     pgtype.Numeric
	Customization []byte
}

func (q *Queries) CreateOrderLine(ctx context.Context, arg CreateOrderLineParams) (OrderLine, error) {
	row := q.db.QueryRow(ctx, createOrderLine,
		arg.OrderID,
		arg.MenuItemID,
		arg.ItemName,
		arg.Quantity,
		arg.UnitPrice,
		arg.Customization,
	)
	var l OrderLine
	err := row.Scan(
		&l.ID,
		&l.OrderID,
		&l.MenuItemID,
		&l.ItemName,
		&l.Quantity,
		&l.UnitPrice,
		&l.Customization,
	)
	return l, err
}

const getOrder = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrder, id)
	var o Order
	err := scanOrder(row, &o)
	return o, err
}

const getOrderForUpdate = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
FOR UPDATE
`

// GetOrderForUpdate row-locks the order so status transitions and stock
// restoration read a stable snapshot inside their transaction.
func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrderForUpdate, id)
	var o Order
	err := scanOrder(row, &o)
	return o, err
}

const getOrderForCustomer = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1 AND customer_id = $2
`

type GetOrderForCustomerParams struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
}

func (q *Queries) GetOrderForCustomer(ctx context.Context, arg GetOrderForCustomerParams) (Order, error) {
	row := q.db.QueryRow(ctx, getOrderForCustomer, arg.ID, arg.CustomerID)
	var o Order
	err := scanOrder(row, &o)
	return o, err
}

const listOrders = `
SELECT ` + orderColumns + `
FROM orders
WHERE ($1::text IS NULL OR status = $1)
  AND ($2::text IS NULL OR delivery_type = $2)
  AND ($3::text IS NULL OR payment_status = $3)
ORDER BY created_at DESC
LIMIT $4 OFFSET $5
`

type ListOrdersParams struct {
	Status        pgtype.Text
	DeliveryType  pgtype.Text
	PaymentStatus pgtype.Text
	Limit         int32
	Offset        int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders,
		arg.Status,
		arg.DeliveryType,
		arg.PaymentStatus,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const listOrdersByCustomer = `
SELECT ` + orderColumns + `
FROM orders
WHERE customer_id = $1
ORDER BY created_at DESC
`

func (q *Queries) ListOrdersByCustomer(ctx context.Context, customerID uuid.UUID) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersByCustomer, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const listOrderLines = `
SELECT id, order_id, menu_item_id, item_name, quantity, unit_price, customization
FROM order_lines
WHERE order_id = $1
ORDER BY id
`

func (q *Queries) ListOrderLines(ctx context.Context, orderID uuid.UUID) ([]OrderLine, error) {
	rows, err := q.db.Query(ctx, listOrderLines, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []OrderLine
	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(
			&l.ID,
			&l.OrderID,
			&l.MenuItemID,
			&l.ItemName,
			&l.Quantity,
			&l.UnitPrice,
			&l.Customization,
		); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

const updateOrderStatus = `
UPDATE orders
SET status = $2, updated_at = now()
WHERE id = $1 AND status = $3
RETURNING ` + orderColumns

type UpdateOrderStatusParams struct {
	ID         uuid.UUID
	Status     string
	FromStatus string
}

// UpdateOrderStatus only applies when the order is still in FromStatus. No
// rows means the status moved between read and write; callers retry or
// report a conflict.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status, arg.FromStatus)
	var o Order
	err := scanOrder(row, &o)
	return o, err
}

const updatePaymentStatus = `
UPDATE orders
SET payment_status = $2, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

type UpdatePaymentStatusParams struct {
	ID            uuid.UUID
	PaymentStatus string
}

func (q *Queries) UpdatePaymentStatus(ctx context.Context, arg UpdatePaymentStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updatePaymentStatus, arg.ID, arg.PaymentStatus)
	var o Order
	err := scanOrder(row, &o)
	return o, err
}

const attachPaymentProof = `
UPDATE orders
SET payment_proof = $2, payment_status = $3, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

type AttachPaymentProofParams struct {
	ID            uuid.UUID
	PaymentProof  pgtype.Text
	PaymentStatus string
}

func (q *Queries) AttachPaymentProof(ctx context.Context, arg AttachPaymentProofParams) (Order, error) {
	row := q.db.QueryRow(ctx, attachPaymentProof, arg.ID, arg.PaymentProof, arg.PaymentStatus)
	var o Order
	err := scanOrder(row, &o)
	return o, err
}

const rateOrder = `
UPDATE orders
SET rating = $2, review = $3, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

type RateOrderParams struct {
	ID     uuid.UUID
	Rating pgtype.Int4
	Review pgtype.Text
}

func (q *Queries) RateOrder(ctx context.Context, arg RateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, rateOrder, arg.ID, arg.Rating, arg.Review)
	var o Order
	err := scanOrder(row, &o)
	return o, err
}
