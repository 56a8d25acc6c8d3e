package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/roasted-route/api/internal/database"
	"github.com/roasted-route/api/internal/ws"
)

// Store is the subset of database queries the notifier needs.
type Store interface {
	CreateNotification(ctx context.Context, arg database.CreateNotificationParams) (database.Notification, error)
	ListStaffUserIDs(ctx context.Context) ([]uuid.UUID, error)
	CreateActivityLog(ctx context.Context, arg database.CreateActivityLogParams) (database.ActivityLog, error)
}

// Notifier persists notifications and pushes them over the WebSocket hub.
// Every method is best-effort: a failed notification or activity log is
// logged and swallowed, it never fails the operation that triggered it.
type Notifier struct {
	store Store
	hub   *ws.Hub
}

func New(store Store, hub *ws.Hub) *Notifier {
	return &Notifier{store: store, hub: hub}
}

// notificationPayload is the wire shape pushed to WebSocket clients.
type notificationPayload struct {
	ID        uuid.UUID `json:"id"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// NotifyUser stores a notification for one user and pushes it to their
// open connections.
func (n *Notifier) NotifyUser(ctx context.Context, userID uuid.UUID, message, typ string) {
	notification, err := n.store.CreateNotification(ctx, database.CreateNotificationParams{
		UserID:  userID,
		Message: message,
		Type:    typ,
	})
	if err != nil {
		log.Printf("ERROR: create notification for user %s: %v", userID, err)
		return
	}
	n.push(notification, func(event ws.Event) {
		n.hub.BroadcastToUser(userID, event)
	})
}

// NotifyStaff stores a notification per staff user and broadcasts once to
// all connected staff clients.
func (n *Notifier) NotifyStaff(ctx context.Context, message, typ string) {
	staffIDs, err := n.store.ListStaffUserIDs(ctx)
	if err != nil {
		log.Printf("ERROR: list staff for notification: %v", err)
		return
	}

	var last database.Notification
	for _, id := range staffIDs {
		notification, err := n.store.CreateNotification(ctx, database.CreateNotificationParams{
			UserID:  id,
			Message: message,
			Type:    typ,
		})
		if err != nil {
			log.Printf("ERROR: create staff notification for %s: %v", id, err)
			continue
		}
		last = notification
	}
	if last.ID == uuid.Nil {
		// Nothing persisted, still push the live event
		last = database.Notification{Message: message, Type: typ, CreatedAt: time.Now()}
	}
	n.push(last, func(event ws.Event) {
		n.hub.BroadcastToStaff(event)
	})
}

func (n *Notifier) push(notification database.Notification, send func(ws.Event)) {
	if n.hub == nil {
		return
	}
	payload, err := json.Marshal(notificationPayload{
		ID:        notification.ID,
		Message:   notification.Message,
		Type:      notification.Type,
		CreatedAt: notification.CreatedAt,
	})
	if err != nil {
		log.Printf("ERROR: marshal notification payload: %v", err)
		return
	}
	send(ws.Event{Type: "notification", Payload: payload})
}

// LogActivity records an audit trail entry. Like notifications, the trail is
// advisory and never blocks the operation being recorded.
func (n *Notifier) LogActivity(ctx context.Context, arg database.CreateActivityLogParams) {
	if _, err := n.store.CreateActivityLog(ctx, arg); err != nil {
		log.Printf("ERROR: create activity log (%s/%s): %v", arg.Category, arg.Action, err)
	}
}
