package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createMenuItem = `
INSERT INTO menu_items (name, description, price, category, available, stock, is_featured, image_url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, name, description, price, category, available, stock, is_featured, image_url, created_at, updated_at
`

type CreateMenuItemParams struct {
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	Category    string
	Available   bool
	Stock       int32
	IsFeatured  bool
	ImageURL    pgtype.Text
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, createMenuItem,
		arg.Name,
		arg.Description,
		arg.Price,
		arg.Category,
		arg.Available,
		arg.Stock,
		arg.IsFeatured,
		arg.ImageURL,
	)
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Description,
		&i.Price,
		&i.Category,
		&i.Available,
		&i.Stock,
		&i.IsFeatured,
		&i.ImageURL,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getMenuItem = `
SELECT id, name, description, price, category, available, stock, is_featured, image_url, created_at, updated_at
FROM menu_items
WHERE id = $1
`

func (q *Queries) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	row := q.db.QueryRow(ctx, getMenuItem, id)
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Description,
		&i.Price,
		&i.Category,
		&i.Available,
		&i.Stock,
		&i.IsFeatured,
		&i.ImageURL,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getMenuItemForUpdate = `
SELECT id, name, description, price, category, available, stock, is_featured, image_url, created_at, updated_at
FROM menu_items
WHERE id = $1
FOR UPDATE
`

// GetMenuItemForUpdate row-locks the item for the duration of the enclosing
// transaction. Checkout uses it so the stock check stays valid until the
// decrement commits.
func (q *Queries) GetMenuItemForUpdate(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	row := q.db.QueryRow(ctx, getMenuItemForUpdate, id)
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Description,
		&i.Price,
		&i.Category,
		&i.Available,
		&i.Stock,
		&i.IsFeatured,
		&i.ImageURL,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listMenuItems = `
SELECT id, name, description, price, category, available, stock, is_featured, image_url, created_at, updated_at
FROM menu_items
ORDER BY category, name
`

func (q *Queries) ListMenuItems(ctx context.Context) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuItem
	for rows.Next() {
		var i MenuItem
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Description,
			&i.Price,
			&i.Category,
			&i.Available,
			&i.Stock,
			&i.IsFeatured,
			&i.ImageURL,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listAvailableMenuItems = `
SELECT id, name, description, price, category, available, stock, is_featured, image_url, created_at, updated_at
FROM menu_items
WHERE available = TRUE
ORDER BY category, name
`

func (q *Queries) ListAvailableMenuItems(ctx context.Context) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listAvailableMenuItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuItem
	for rows.Next() {
		var i MenuItem
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Description,
			&i.Price,
			&i.Category,
			&i.Available,
			&i.Stock,
			&i.IsFeatured,
			&i.ImageURL,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateMenuItem = `
UPDATE menu_items
SET name = $2, description = $3, price = $4, category = $5, available = $6, stock = $7, is_featured = $8, image_url = $9, updated_at = now()
WHERE id = $1
RETURNING id, name, description, price, category, available, stock, is_featured, image_url, created_at, updated_at
`

type UpdateMenuItemParams struct {
	ID          uuid.UUID
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	Category    string
	Available   bool
	Stock       int32
	IsFeatured  bool
	ImageURL    pgtype.Text
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, updateMenuItem,
		arg.ID,
		arg.Name,
		arg.Description,
		arg.Price,
		arg.Category,
		arg.Available,
		arg.Stock,
		arg.IsFeatured,
		arg.ImageURL,
	)
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Description,
		&i.Price,
		&i.Category,
		&i.Available,
		&i.Stock,
		&i.IsFeatured,
		&i.ImageURL,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const setMenuItemAvailability = `
UPDATE menu_items
SET available = $2, updated_at = now()
WHERE id = $1
RETURNING id, name, description, price, category, available, stock, is_featured, image_url, created_at, updated_at
`

type SetMenuItemAvailabilityParams struct {
	ID        uuid.UUID
	Available bool
}

func (q *Queries) SetMenuItemAvailability(ctx context.Context, arg SetMenuItemAvailabilityParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, setMenuItemAvailability, arg.ID, arg.Available)
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Description,
		&i.Price,
		&i.Category,
		&i.Available,
		&i.Stock,
		&i.IsFeatured,
		&i.ImageURL,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const deleteMenuItem = `
DELETE FROM menu_items
WHERE id = $1
RETURNING id
`

// DeleteMenuItem fails with a foreign key violation (23503) while any order
// line still references the item; callers surface that as a conflict.
func (q *Queries) DeleteMenuItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteMenuItem, id)
	var deleted uuid.UUID
	err := row.Scan(&deleted)
	return deleted, err
}

const reserveMenuItemStock = `
UPDATE menu_items
SET stock = stock - $2, updated_at = now()
WHERE id = $1 AND stock >= $2
RETURNING stock
`

type ReserveMenuItemStockParams struct {
	ID       uuid.UUID
	Quantity int32
}

// ReserveMenuItemStock is the atomic conditional decrement. No rows means the
// item did not have $2 units left; stock can never go negative through it.
func (q *Queries) ReserveMenuItemStock(ctx context.Context, arg ReserveMenuItemStockParams) (int32, error) {
	row := q.db.QueryRow(ctx, reserveMenuItemStock, arg.ID, arg.Quantity)
	var stock int32
	err := row.Scan(&stock)
	return stock, err
}

const releaseMenuItemStock = `
UPDATE menu_items
SET stock = stock + $2, updated_at = now()
WHERE id = $1
RETURNING stock
`

type ReleaseMenuItemStockParams struct {
	ID       uuid.UUID
	Quantity int32
}

func (q *Queries) ReleaseMenuItemStock(ctx context.Context, arg ReleaseMenuItemStockParams) (int32, error) {
	row := q.db.QueryRow(ctx, releaseMenuItemStock, arg.ID, arg.Quantity)
	var stock int32
	err := row.Scan(&stock)
	return stock, err
}
