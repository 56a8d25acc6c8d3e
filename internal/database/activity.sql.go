package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createActivityLog = `
INSERT INTO activity_logs (user_id, user_role, category, action, description, order_id, menu_item_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, user_id, user_role, category, action, description, order_id, menu_item_id, created_at
`

type CreateActivityLogParams struct {
	UserID      pgtype.UUID
	UserRole    string
	Category    string
	Action      string
	Description pgtype.Text
	OrderID     pgtype.UUID
	MenuItemID  pgtype.UUID
}

func (q *Queries) CreateActivityLog(ctx context.Context, arg CreateActivityLogParams) (ActivityLog, error) {
	row := q.db.QueryRow(ctx, createActivityLog,
		arg.UserID,
		arg.UserRole,
		arg.Category,
		arg.Action,
		arg.Description,
		arg.OrderID,
		arg.MenuItemID,
	)
	var a ActivityLog
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.UserRole,
		&a.Category,
		&a.Action,
		&a.Description,
		&a.OrderID,
		&a.MenuItemID,
		&a.CreatedAt,
	)
	return a, err
}

const listActivityLogs = `
SELECT id, user_id, user_role, category, action, description, order_id, menu_item_id, created_at
FROM activity_logs
WHERE ($1::text IS NULL OR category = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

type ListActivityLogsParams struct {
	Category pgtype.Text
	Limit    int32
	Offset   int32
}

func (q *Queries) ListActivityLogs(ctx context.Context, arg ListActivityLogsParams) ([]ActivityLog, error) {
	rows, err := q.db.Query(ctx, listActivityLogs, arg.Category, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []ActivityLog
	for rows.Next() {
		var a ActivityLog
		if err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.UserRole,
			&a.Category,
			&a.Action,
			&a.Description,
			&a.OrderID,
			&a.MenuItemID,
			&a.CreatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, a)
	}
	return logs, rows.Err()
}
