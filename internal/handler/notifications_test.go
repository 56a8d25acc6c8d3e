package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/roasted-route/api/internal/database"
	"github.com/roasted-route/api/internal/enum"
	"github.com/roasted-route/api/internal/handler"
	"github.com/roasted-route/api/internal/middleware"
)

// --- Mock store ---

type mockNotificationStore struct {
	notifications map[uuid.UUID]database.Notification
}

func newMockNotificationStore() *mockNotificationStore {
	return &mockNotificationStore{notifications: make(map[uuid.UUID]database.Notification)}
}

func (m *mockNotificationStore) ListNotificationsByUser(_ context.Context, userID uuid.UUID) ([]database.Notification, error) {
	var result []database.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			result = append(result, n)
		}
	}
	return result, nil
}

func (m *mockNotificationStore) MarkNotificationRead(_ context.Context, arg database.MarkNotificationReadParams) (uuid.UUID, error) {
	n, ok := m.notifications[arg.ID]
	if !ok || n.UserID != arg.UserID {
		return uuid.Nil, pgx.ErrNoRows
	}
	n.Read = true
	m.notifications[arg.ID] = n
	return n.ID, nil
}

func (m *mockNotificationStore) MarkAllNotificationsRead(_ context.Context, userID uuid.UUID) error {
	for id, n := range m.notifications {
		if n.UserID == userID {
			n.Read = true
			m.notifications[id] = n
		}
	}
	return nil
}

func (m *mockNotificationStore) CountUnreadNotifications(_ context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	for _, n := range m.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationStore) addNotification(userID uuid.UUID, message string, read bool) database.Notification {
	n := database.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Message:   message,
		Type:      enum.NotificationTypeOrder,
		Read:      read,
		CreatedAt: time.Now(),
	}
	m.notifications[n.ID] = n
	return n
}

// --- Helpers ---

func setupNotificationRouter(store *mockNotificationStore) *chi.Mux {
	h := handler.NewNotificationHandler(store)
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(testJWTSecret))
		h.RegisterRoutes(r)
	})
	return r
}

// --- Tests ---

func TestNotificationList_OnlyOwn(t *testing.T) {
	store := newMockNotificationStore()
	userID := uuid.New()
	store.addNotification(userID, "Order ORD-000001 has been placed.", false)
	store.addNotification(uuid.New(), "Someone else's notification", false)
	router := setupNotificationRouter(store)

	rr := doAuthedRequest(t, router, "GET", "/notifications", nil,
		testToken(t, userID, enum.UserRoleCustomer))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeListResponse(t, rr)
	if len(resp) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(resp))
	}
	if resp[0]["message"] != "Order ORD-000001 has been placed." {
		t.Errorf("message: got %v", resp[0]["message"])
	}
}

func TestNotificationUnreadCount(t *testing.T) {
	store := newMockNotificationStore()
	userID := uuid.New()
	store.addNotification(userID, "one", false)
	store.addNotification(userID, "two", false)
	store.addNotification(userID, "already read", true)
	router := setupNotificationRouter(store)

	rr := doAuthedRequest(t, router, "GET", "/notifications/unread-count", nil,
		testToken(t, userID, enum.UserRoleCustomer))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	resp := decodeResponse(t, rr)
	if resp["unread"] != float64(2) {
		t.Errorf("unread: got %v, want 2", resp["unread"])
	}
}

func TestNotificationMarkRead_OwnershipEnforced(t *testing.T) {
	store := newMockNotificationStore()
	n := store.addNotification(uuid.New(), "not yours", false)
	router := setupNotificationRouter(store)

	rr := doAuthedRequest(t, router, "PATCH", "/notifications/"+n.ID.String()+"/read", nil,
		testToken(t, uuid.New(), enum.UserRoleCustomer))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
	if store.notifications[n.ID].Read {
		t.Error("foreign notification must stay unread")
	}
}

func TestNotificationMarkRead_Valid(t *testing.T) {
	store := newMockNotificationStore()
	userID := uuid.New()
	n := store.addNotification(userID, "mine", false)
	router := setupNotificationRouter(store)

	rr := doAuthedRequest(t, router, "PATCH", "/notifications/"+n.ID.String()+"/read", nil,
		testToken(t, userID, enum.UserRoleCustomer))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if !store.notifications[n.ID].Read {
		t.Error("notification should be read")
	}
}

func TestNotificationMarkAllRead(t *testing.T) {
	store := newMockNotificationStore()
	userID := uuid.New()
	store.addNotification(userID, "one", false)
	store.addNotification(userID, "two", false)
	other := store.addNotification(uuid.New(), "other user", false)
	router := setupNotificationRouter(store)

	rr := doAuthedRequest(t, router, "POST", "/notifications/read-all", nil,
		testToken(t, userID, enum.UserRoleCustomer))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	count, _ := store.CountUnreadNotifications(context.Background(), userID)
	if count != 0 {
		t.Errorf("unread after mark-all: got %d, want 0", count)
	}
	if store.notifications[other.ID].Read {
		t.Error("other user's notifications must be untouched")
	}
}
