package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getActiveCart = `
SELECT id, customer_id, is_active, created_at, updated_at
FROM carts
WHERE customer_id = $1 AND is_active = TRUE
`

func (q *Queries) GetActiveCart(ctx context.Context, customerID uuid.UUID) (Cart, error) {
	row := q.db.QueryRow(ctx, getActiveCart, customerID)
	var c Cart
	err := row.Scan(&c.ID, &c.CustomerID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const createCart = `
INSERT INTO carts (customer_id)
VALUES ($1)
RETURNING id, customer_id, is_active, created_at, updated_at
`

func (q *Queries) CreateCart(ctx context.Context, customerID uuid.UUID) (Cart, error) {
	row := q.db.QueryRow(ctx, createCart, customerID)
	var c Cart
	err := row.Scan(&c.ID, &c.CustomerID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const deactivateCart = `
UPDATE carts
SET is_active = FALSE, updated_at = now()
WHERE id = $1 AND is_active = TRUE
RETURNING id
`

// DeactivateCart retires the cart after checkout. The row is kept for
// history; only the active flag flips.
func (q *Queries) DeactivateCart(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deactivateCart, id)
	var deactivated uuid.UUID
	err := row.Scan(&deactivated)
	return deactivated, err
}

const touchCart = `
UPDATE carts
SET updated_at = now()
WHERE id = $1
`

func (q *Queries) TouchCart(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, touchCart, id)
	return err
}

const listCartLines = `
SELECT id, cart_id, menu_item_id, quantity, unit_price, customization, added_at
FROM cart_lines
WHERE cart_id = $1
ORDER BY added_at, id
`

func (q *Queries) ListCartLines(ctx context.Context, cartID uuid.UUID) ([]CartLine, error) {
	rows, err := q.db.Query(ctx, listCartLines, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []CartLine
	for rows.Next() {
		var l CartLine
		if err := rows.Scan(
			&l.ID,
			&l.CartID,
			&l.MenuItemID,
			&l.Quantity,
			&l.UnitPrice,
			&l.Customization,
			&l.AddedAt,
		); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

const listCartLineDetails = `
SELECT cl.id, cl.cart_id, cl.menu_item_id, mi.name, mi.image_url, mi.available, mi.stock, cl.quantity, cl.unit_price, cl.customization, cl.added_at
FROM cart_lines cl
JOIN menu_items mi ON mi.id = cl.menu_item_id
WHERE cl.cart_id = $1
ORDER BY cl.added_at, cl.id
`

type CartLineDetail struct {
	ID            uuid.UUID
	CartID        uuid.UUID
	MenuItemID    uuid.UUID
	ItemName      string
	ItemImageURL  pgtype.Text
	ItemAvailable bool
	ItemStock     int32
	Quantity      int32
	UnitPrice     pgtype.Numeric
	Customization []byte
	AddedAt       time.Time
}

func (q *Queries) ListCartLineDetails(ctx context.Context, cartID uuid.UUID) ([]CartLineDetail, error) {
	rows, err := q.db.Query(ctx, listCartLineDetails, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []CartLineDetail
	for rows.Next() {
		var l CartLineDetail
		if err := rows.Scan(
			&l.ID,
			&l.CartID,
			&l.MenuItemID,
			&l.ItemName,
			&l.ItemImageURL,
			&l.ItemAvailable,
			&l.ItemStock,
			&l.Quantity,
			&l.UnitPrice,
			&l.Customization,
			&l.AddedAt,
		); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

const getCartLineForCustomer = `
SELECT cl.id, cl.cart_id, cl.menu_item_id, cl.quantity, cl.unit_price, cl.customization, cl.added_at
FROM cart_lines cl
JOIN carts c ON c.id = cl.cart_id
WHERE cl.id = $1 AND c.customer_id = $2 AND c.is_active = TRUE
`

type GetCartLineForCustomerParams struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
}

func (q *Queries) GetCartLineForCustomer(ctx context.Context, arg GetCartLineForCustomerParams) (CartLine, error) {
	row := q.db.QueryRow(ctx, getCartLineForCustomer, arg.ID, arg.CustomerID)
	var l CartLine
	err := row.Scan(
		&l.ID,
		&l.CartID,
		&l.MenuItemID,
		&l.Quantity,
		&l.UnitPrice,
		&l.Customization,
		&l.AddedAt,
	)
	return l, err
}

const createCartLine = `
INSERT INTO cart_lines (cart_id, menu_item_id, quantity, unit_price, customization)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, cart_id, menu_item_id, quantity, unit_price, customization, added_at
`

type CreateCartLineParams struct {
	CartID        uuid.UUID
	MenuItemID    uuid.UUID
	Quantity      int32
	UnitPrice     pgtype.Numeric
	Customization []byte
}

func (q *Queries) CreateCartLine(ctx context.Context, arg CreateCartLineParams) (CartLine, error) {
	row := q.db.QueryRow(ctx, createCartLine,
		arg.CartID,
		arg.MenuItemID,
		arg.Quantity,
		arg.UnitPrice,
		arg.Customization,
	)
	var l CartLine
	err := row.Scan(
		&l.ID,
		&l.CartID,
		&l.MenuItemID,
		&l.Quantity,
		&l.UnitPrice,
		&l.Customization,
		&l.AddedAt,
	)
	return l, err
}

const updateCartLineQuantity = `
UPDATE cart_lines
SET quantity = $2
WHERE id = $1
RETURNING id, cart_id, menu_item_id, quantity, unit_price, customization, added_at
`

type UpdateCartLineQuantityParams struct {
	ID       uuid.UUID
	Quantity int32
}

func (q *Queries) UpdateCartLineQuantity(ctx context.Context, arg UpdateCartLineQuantityParams) (CartLine, error) {
	row := q.db.QueryRow(ctx, updateCartLineQuantity, arg.ID, arg.Quantity)
	var l CartLine
	err := row.Scan(
		&l.ID,
		&l.CartID,
		&l.MenuItemID,
		&l.Quantity,
		&l.UnitPrice,
		&l.Customization,
		&l.AddedAt,
	)
	return l, err
}

const deleteCartLine = `
DELETE FROM cart_lines
WHERE id = $1
RETURNING id
`

func (q *Queries) DeleteCartLine(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteCartLine, id)
	var deleted uuid.UUID
	err := row.Scan(&deleted)
	return deleted, err
}

const clearCartLines = `
DELETE FROM cart_lines
WHERE cart_id = $1
`

func (q *Queries) ClearCartLines(ctx context.Context, cartID uuid.UUID) error {
	_, err := q.db.Exec(ctx, clearCartLines, cartID)
	return err
}
