package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/roasted-route/api/internal/database"
	"github.com/roasted-route/api/internal/enum"
	"github.com/roasted-route/api/internal/handler"
	"github.com/roasted-route/api/internal/middleware"
)

// --- Mock store ---

type mockReportStore struct {
	lines []database.CompletedOrderLine
	logs  []database.ActivityLog

	lastRange    database.ListCompletedOrderLinesParams
	lastActivity database.ListActivityLogsParams
}

func (m *mockReportStore) ListCompletedOrderLines(_ context.Context, arg database.ListCompletedOrderLinesParams) ([]database.CompletedOrderLine, error) {
	m.lastRange = arg
	return m.lines, nil
}

func (m *mockReportStore) ListActivityLogs(_ context.Context, arg database.ListActivityLogsParams) ([]database.ActivityLog, error) {
	m.lastActivity = arg
	return m.logs, nil
}

// --- Helpers ---

func setupReportRouter(store *mockReportStore) *chi.Mux {
	h := handler.NewReportHandler(store)
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(testJWTSecret))
		r.Use(middleware.RequireStaff)
		h.RegisterRoutes(r)
	})
	return r
}

func reportLine(orderID uuid.UUID, createdAt time.Time, fee string, itemID uuid.UUID, itemName, unitPrice string, qty int32, customization string) database.CompletedOrderLine {
	l := database.CompletedOrderLine{
		OrderID:        orderID,
		OrderCreatedAt: createdAt,
		DeliveryFee:    testNumeric(fee),
		MenuItemID:     itemID,
		ItemName:       itemName,
		Quantity:       qty,
		UnitPrice:      testNumeric(unitPrice),
	}
	if customization != "" {
		l.Customization = json.RawMessage(customization)
	}
	return l
}

// --- Tests ---

func TestDailySales_RecomputesFromLines(t *testing.T) {
	orderID := uuid.New()
	placed := time.Date(2025, 11, 3, 18, 45, 0, 0, time.UTC)
	store := &mockReportStore{
		lines: []database.CompletedOrderLine{
			reportLine(orderID, placed, "30.00", uuid.New(), "Roast Chicken", "100.00", 2,
				`{"addons":[{"name":"Extra Rice","price":"15.00"}]}`),
			reportLine(orderID, placed, "30.00", uuid.New(), "Fries", "60.00", 1, ""),
		},
	}
	router := setupReportRouter(store)

	rr := doAuthedRequest(t, router, "GET", "/reports/daily-sales?from=2025-11-01&to=2025-11-07", nil, staffToken(t))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeListResponse(t, rr)
	if len(resp) != 1 {
		t.Fatalf("expected 1 row, got %d", len(resp))
	}
	if resp[0]["day"] != "2025-11-03" {
		t.Errorf("day: got %v", resp[0]["day"])
	}
	if resp[0]["order_count"] != float64(1) {
		t.Errorf("order_count: got %v", resp[0]["order_count"])
	}
	// (100+15)*2 + 60 + one 30.00 fee; stored order totals never feed this
	if resp[0]["total_sales"] != "320.00" {
		t.Errorf("total_sales: got %v, want 320.00", resp[0]["total_sales"])
	}

	// to is inclusive for callers, exclusive in the query
	wantTo := time.Date(2025, 11, 8, 0, 0, 0, 0, time.UTC)
	if !store.lastRange.To.Equal(wantTo) {
		t.Errorf("to bound: got %v, want %v", store.lastRange.To, wantTo)
	}
}

func TestDailySales_InvalidRange(t *testing.T) {
	store := &mockReportStore{}
	router := setupReportRouter(store)

	rr := doAuthedRequest(t, router, "GET", "/reports/daily-sales?from=2025-11-07&to=2025-11-01", nil, staffToken(t))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestDailySales_BadDate(t *testing.T) {
	store := &mockReportStore{}
	router := setupReportRouter(store)

	rr := doAuthedRequest(t, router, "GET", "/reports/daily-sales?from=yesterday", nil, staffToken(t))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestItemSales_IncludesAddonRevenue(t *testing.T) {
	chickenID := uuid.New()
	friesID := uuid.New()
	now := time.Now().UTC()
	store := &mockReportStore{
		lines: []database.CompletedOrderLine{
			reportLine(uuid.New(), now, "30.00", chickenID, "Roast Chicken", "100.00", 2,
				`{"addons":[{"name":"Extra Rice","price":"15.00"}]}`),
			reportLine(uuid.New(), now, "0.00", friesID, "Fries", "60.00", 3, ""),
		},
	}
	router := setupReportRouter(store)

	rr := doAuthedRequest(t, router, "GET", "/reports/item-sales", nil, staffToken(t))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeListResponse(t, rr)
	if len(resp) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(resp))
	}
	if resp[0]["item_name"] != "Fries" {
		t.Errorf("best seller first: got %v", resp[0]["item_name"])
	}
	if resp[0]["menu_item_id"] != friesID.String() {
		t.Errorf("menu_item_id: got %v", resp[0]["menu_item_id"])
	}
	// (100 + 15 addon) * 2; the delivery fee belongs to the order, not the item
	if resp[1]["gross_sales"] != "230.00" {
		t.Errorf("gross_sales: got %v, want 230.00", resp[1]["gross_sales"])
	}
}

func TestActivityLogs_CategoryFilter(t *testing.T) {
	store := &mockReportStore{
		logs: []database.ActivityLog{
			{
				ID:        uuid.New(),
				UserRole:  enum.UserRoleStaff,
				Category:  enum.ActivityCategoryMenu,
				Action:    "menu_item_created",
				CreatedAt: time.Now(),
			},
		},
	}
	router := setupReportRouter(store)

	rr := doAuthedRequest(t, router, "GET", "/activity-logs?category=menu", nil, staffToken(t))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeListResponse(t, rr)
	if len(resp) != 1 {
		t.Fatalf("expected 1 log, got %d", len(resp))
	}
	if resp[0]["action"] != "menu_item_created" {
		t.Errorf("action: got %v", resp[0]["action"])
	}
	if !store.lastActivity.Category.Valid || store.lastActivity.Category.String != "menu" {
		t.Errorf("category filter not passed through: %+v", store.lastActivity.Category)
	}
}

func TestReports_CustomerForbidden(t *testing.T) {
	store := &mockReportStore{}
	router := setupReportRouter(store)

	rr := doAuthedRequest(t, router, "GET", "/reports/daily-sales", nil,
		testToken(t, uuid.New(), enum.UserRoleCustomer))

	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
}
