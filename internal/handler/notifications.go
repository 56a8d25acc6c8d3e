package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/roasted-route/api/internal/database"
)

// NotificationStore defines the database methods needed by notification
// handlers. Satisfied by *database.Queries.
type NotificationStore interface {
	ListNotificationsByUser(ctx context.Context, userID uuid.UUID) ([]database.Notification, error)
	MarkNotificationRead(ctx context.Context, arg database.MarkNotificationReadParams) (uuid.UUID, error)
	MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error
	CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int64, error)
}

// NotificationHandler handles the authenticated notification inbox.
type NotificationHandler struct {
	store NotificationStore
}

func NewNotificationHandler(store NotificationStore) *NotificationHandler {
	return &NotificationHandler{store: store}
}

// RegisterRoutes registers the notification inbox endpoints.
func (h *NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/notifications", h.List)
	r.Get("/notifications/unread-count", h.UnreadCount)
	r.Patch("/notifications/{id}/read", h.MarkRead)
	r.Post("/notifications/read-all", h.MarkAllRead)
}

type notificationResponse struct {
	ID        uuid.UUID `json:"id"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

func toNotificationResponse(n database.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID,
		Message:   n.Message,
		Type:      n.Type,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

// List returns the user's most recent notifications, newest first.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	notifications, err := h.store.ListNotificationsByUser(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, err, "list notifications")
		return
	}

	resp := make([]notificationResponse, len(notifications))
	for i, n := range notifications {
		resp[i] = toNotificationResponse(n)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	count, err := h.store.CountUnreadNotifications(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, err, "count unread notifications")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"unread": count})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid notification ID"})
		return
	}

	marked, err := h.store.MarkNotificationRead(r.Context(), database.MarkNotificationReadParams{
		ID:     id,
		UserID: claims.UserID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "notification not found"})
			return
		}
		writeServiceError(w, err, "mark notification read")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"id": marked.String()})
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	if err := h.store.MarkAllNotificationsRead(r.Context(), claims.UserID); err != nil {
		writeServiceError(w, err, "mark all notifications read")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
