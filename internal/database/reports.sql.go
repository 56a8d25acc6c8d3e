package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const listCompletedOrderLines = `
SELECT o.id, o.created_at, o.delivery_fee,
       ol.menu_item_id, ol.item_name, ol.quantity, ol.unit_price, ol.customization
FROM order_lines ol
JOIN orders o ON o.id = ol.order_id
WHERE o.status = 'completed'
  AND o.created_at >= $1
  AND o.created_at < $2
ORDER BY o.created_at, ol.id
`

type ListCompletedOrderLinesParams struct {
	From time.Time
	To   time.Time
}

// CompletedOrderLine is a raw order line with its order's day and fee. Sales
// figures are aggregated from these rows in Go, where the pricing calculator
// can include add-on revenue; stored totals are never summed.
type CompletedOrderLine struct {
	OrderID        uuid.UUID
	OrderCreatedAt time.Time
	DeliveryFee    pgtype.Numeric
	MenuItemID     uuid.UUID
	ItemName       string
	Quantity       int32
	UnitPrice      pgtype.Numeric
	Customization  []byte
}

// ListCompletedOrderLines only returns lines of completed orders; cancelled
// and in-flight orders never contribute to revenue.
func (q *Queries) ListCompletedOrderLines(ctx context.Context, arg ListCompletedOrderLinesParams) ([]CompletedOrderLine, error) {
	rows, err := q.db.Query(ctx, listCompletedOrderLines, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []CompletedOrderLine
	for rows.Next() {
		var r CompletedOrderLine
		if err := rows.Scan(&r.OrderID, &r.OrderCreatedAt, &r.DeliveryFee,
			&r.MenuItemID, &r.ItemName, &r.Quantity, &r.UnitPrice, &r.Customization); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
