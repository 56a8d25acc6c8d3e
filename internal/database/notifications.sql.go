package database

import (
	"context"

	"github.com/google/uuid"
)

const createNotification = `
INSERT INTO notifications (user_id, message, type)
VALUES ($1, $2, $3)
RETURNING id, user_id, message, type, read, created_at
`

type CreateNotificationParams struct {
	UserID  uuid.UUID
	Message string
	Type    string
}

func (q *Queries) CreateNotification(ctx context.Context, arg CreateNotificationParams) (Notification, error) {
	row := q.db.QueryRow(ctx, createNotification, arg.UserID, arg.Message, arg.Type)
	var n Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Message, &n.Type, &n.Read, &n.CreatedAt)
	return n, err
}

const listNotificationsByUser = `
SELECT id, user_id, message, type, read, created_at
FROM notifications
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT 100
`

func (q *Queries) ListNotificationsByUser(ctx context.Context, userID uuid.UUID) ([]Notification, error) {
	rows, err := q.db.Query(ctx, listNotificationsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var notifications []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Type, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

const markNotificationRead = `
UPDATE notifications
SET read = TRUE
WHERE id = $1 AND user_id = $2
RETURNING id
`

type MarkNotificationReadParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) MarkNotificationRead(ctx context.Context, arg MarkNotificationReadParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, markNotificationRead, arg.ID, arg.UserID)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}

const markAllNotificationsRead = `
UPDATE notifications
SET read = TRUE
WHERE user_id = $1 AND read = FALSE
`

func (q *Queries) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error {
	_, err := q.db.Exec(ctx, markAllNotificationsRead, userID)
	return err
}

const countUnreadNotifications = `
SELECT count(*)
FROM notifications
WHERE user_id = $1 AND read = FALSE
`

func (q *Queries) CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int64, error) {
	row := q.db.QueryRow(ctx, countUnreadNotifications, userID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
