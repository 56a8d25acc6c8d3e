package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/roasted-route/api/internal/database"
	"github.com/roasted-route/api/internal/service"
)

var errInvalidDateRange = errors.New("invalid date range; use from=YYYY-MM-DD&to=YYYY-MM-DD")

// ReportStore defines the database methods needed by the staff reporting
// endpoints. Satisfied by *database.Queries.
type ReportStore interface {
	ListCompletedOrderLines(ctx context.Context, arg database.ListCompletedOrderLinesParams) ([]database.CompletedOrderLine, error)
	ListActivityLogs(ctx context.Context, arg database.ListActivityLogsParams) ([]database.ActivityLog, error)
}

// ReportHandler serves the staff dashboard reports.
type ReportHandler struct {
	store ReportStore
}

func NewReportHandler(store ReportStore) *ReportHandler {
	return &ReportHandler{store: store}
}

// RegisterRoutes registers the staff reporting endpoints.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/reports/daily-sales", h.DailySales)
	r.Get("/reports/item-sales", h.ItemSales)
	r.Get("/activity-logs", h.ActivityLogs)
}

// --- Response types ---

type dailySalesResponse struct {
	Day        string `json:"day"`
	OrderCount int64  `json:"order_count"`
	TotalSales string `json:"total_sales"`
}

type itemSalesResponse struct {
	MenuItemID   uuid.UUID `json:"menu_item_id"`
	ItemName     string    `json:"item_name"`
	QuantitySold int64     `json:"quantity_sold"`
	GrossSales   string    `json:"gross_sales"`
}

type activityLogResponse struct {
	ID          uuid.UUID  `json:"id"`
	UserID      *uuid.UUID `json:"user_id"`
	UserRole    string     `json:"user_role"`
	Category    string     `json:"category"`
	Action      string     `json:"action"`
	Description *string    `json:"description"`
	OrderID     *uuid.UUID `json:"order_id"`
	MenuItemID  *uuid.UUID `json:"menu_item_id"`
	CreatedAt   time.Time  `json:"created_at"`
}

// --- Handlers ---

// DailySales returns per-day completed order counts and revenue for the
// requested range. The range defaults to the last 30 days. Revenue is
// recomputed from order lines and fees; the stored total_amount column is a
// display cache and never feeds reports.
func (h *ReportHandler) DailySales(w http.ResponseWriter, r *http.Request) {
	lines, ok := h.fetchReportLines(w, r)
	if !ok {
		return
	}

	rows := service.DailySales(lines)
	resp := make([]dailySalesResponse, len(rows))
	for i, row := range rows {
		resp[i] = dailySalesResponse{
			Day:        row.Day.Format("2006-01-02"),
			OrderCount: row.OrderCount,
			TotalSales: row.TotalSales.StringFixed(2),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ItemSales returns per-item quantities and gross sales over the requested
// range, best sellers first. Add-on revenue is included in gross sales.
func (h *ReportHandler) ItemSales(w http.ResponseWriter, r *http.Request) {
	lines, ok := h.fetchReportLines(w, r)
	if !ok {
		return
	}

	rows := service.ItemSales(lines)
	resp := make([]itemSalesResponse, len(rows))
	for i, row := range rows {
		resp[i] = itemSalesResponse{
			MenuItemID:   row.MenuItemID,
			ItemName:     row.ItemName,
			QuantitySold: row.QuantitySold,
			GrossSales:   row.GrossSales.StringFixed(2),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ReportHandler) fetchReportLines(w http.ResponseWriter, r *http.Request) ([]database.CompletedOrderLine, bool) {
	from, to, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return nil, false
	}

	lines, err := h.store.ListCompletedOrderLines(r.Context(), database.ListCompletedOrderLinesParams{From: from, To: to})
	if err != nil {
		writeServiceError(w, err, "sales report")
		return nil, false
	}
	return lines, true
}

func (h *ReportHandler) ActivityLogs(w http.ResponseWriter, r *http.Request) {
	params := database.ListActivityLogsParams{
		Category: textFilter(r.URL.Query().Get("category")),
		Limit:    parsePageSize(r.URL.Query().Get("limit")),
		Offset:   parseOffset(r.URL.Query().Get("offset")),
	}

	logs, err := h.store.ListActivityLogs(r.Context(), params)
	if err != nil {
		writeServiceError(w, err, "list activity logs")
		return
	}

	resp := make([]activityLogResponse, len(logs))
	for i, l := range logs {
		entry := activityLogResponse{
			ID:        l.ID,
			UserRole:  l.UserRole,
			Category:  l.Category,
			Action:    l.Action,
			CreatedAt: l.CreatedAt,
		}
		if l.UserID.Valid {
			id := uuid.UUID(l.UserID.Bytes)
			entry.UserID = &id
		}
		if l.Description.Valid {
			entry.Description = &l.Description.String
		}
		if l.OrderID.Valid {
			id := uuid.UUID(l.OrderID.Bytes)
			entry.OrderID = &id
		}
		if l.MenuItemID.Valid {
			id := uuid.UUID(l.MenuItemID.Bytes)
			entry.MenuItemID = &id
		}
		resp[i] = entry
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseDateRange reads from/to query params as YYYY-MM-DD dates. The upper
// bound is exclusive; "to" is bumped by a day so it reads inclusively.
func parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30).Truncate(24 * time.Hour)
	to := now.AddDate(0, 0, 1).Truncate(24 * time.Hour)

	if s := r.URL.Query().Get("from"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalidDateRange
		}
		from = parsed
	}
	if s := r.URL.Query().Get("to"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalidDateRange
		}
		to = parsed.AddDate(0, 0, 1)
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, errInvalidDateRange
	}
	return from, to, nil
}
