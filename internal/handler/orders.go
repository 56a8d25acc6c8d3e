package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/roasted-route/api/internal/database"
	"github.com/roasted-route/api/internal/service"
)

const (
	defaultOrderPageSize = 50
	maxOrderPageSize     = 200
)

// OrderReadStore defines the read-only queries order handlers use directly.
// Satisfied by *database.Queries; writes go through the order service.
type OrderReadStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrderForCustomer(ctx context.Context, arg database.GetOrderForCustomerParams) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID uuid.UUID) ([]database.Order, error)
	ListOrderLines(ctx context.Context, orderID uuid.UUID) ([]database.OrderLine, error)
}

// OrderHandler handles checkout, order tracking, and staff order management.
type OrderHandler struct {
	store  OrderReadStore
	orders *service.OrderService
}

func NewOrderHandler(store OrderReadStore, orders *service.OrderService) *OrderHandler {
	return &OrderHandler{store: store, orders: orders}
}

// RegisterCustomerRoutes registers the authenticated customer endpoints.
func (h *OrderHandler) RegisterCustomerRoutes(r chi.Router) {
	r.Post("/orders", h.Place)
	r.Get("/orders", h.ListMine)
	r.Get("/orders/{orderID}", h.GetMine)
	r.Post("/orders/{orderID}/cancel", h.CancelMine)
}

// RegisterStaffRoutes registers the staff order management endpoints.
func (h *OrderHandler) RegisterStaffRoutes(r chi.Router) {
	r.Get("/orders", h.ListAll)
	r.Get("/orders/{orderID}", h.GetAny)
	r.Patch("/orders/{orderID}/status", h.UpdateStatus)
	r.Post("/orders/{orderID}/cancel", h.CancelAny)
}

// --- Request / Response types ---

type placeOrderRequest struct {
	CustomerName  string `json:"customer_name"`
	ContactNumber string `json:"contact_number"`
	DeliveryType  string `json:"delivery_type"`
	Address       string `json:"address"`
	Note          string `json:"note"`
	PaymentMethod string `json:"payment_method"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

type orderLineResponse struct {
	ID            uuid.UUID       `json:"id"`
	MenuItemID    uuid.UUID       `json:"menu_item_id"`
	ItemName      string          `json:"item_name"`
	Quantity      int32           `json:"quantity"`
	UnitPrice     string          `json:"unit_price"`
	Customization json.RawMessage `json:"customization,omitempty"`
}

type orderResponse struct {
	ID            uuid.UUID           `json:"id"`
	OrderNo       string              `json:"order_no"`
	CustomerID    uuid.UUID           `json:"customer_id"`
	CustomerName  string              `json:"customer_name"`
	ContactNumber string              `json:"contact_number"`
	Subtotal      string              `json:"subtotal"`
	DeliveryFee   string              `json:"delivery_fee"`
	TotalAmount   string              `json:"total_amount"`
	DeliveryType  string              `json:"delivery_type"`
	Address       *string             `json:"address"`
	Note          *string             `json:"note"`
	PaymentMethod string              `json:"payment_method"`
	PaymentStatus string              `json:"payment_status"`
	PaymentProof  *string             `json:"payment_proof"`
	Status        string              `json:"status"`
	StatusDisplay string              `json:"status_display"`
	NextStatuses  []string            `json:"available_next_statuses"`
	Rating        *int32              `json:"rating"`
	Review        *string             `json:"review"`
	Lines         []orderLineResponse `json:"lines,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func toOrderResponse(o database.Order, lines []database.OrderLine) orderResponse {
	resp := orderResponse{
		ID:            o.ID,
		OrderNo:       service.FormatOrderNo(o.OrderNo),
		CustomerID:    o.CustomerID,
		CustomerName:  o.CustomerName,
		ContactNumber: o.ContactNumber,
		Subtotal:      moneyString(o.Subtotal),
		DeliveryFee:   moneyString(o.DeliveryFee),
		TotalAmount:   moneyString(o.TotalAmount),
		DeliveryType:  o.DeliveryType,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		Status:        o.Status,
		StatusDisplay: service.StatusDisplay(o.Status),
		NextStatuses:  service.AvailableNextStatuses(o.DeliveryType, o.Status),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if o.Address.Valid {
		resp.Address = &o.Address.String
	}
	if o.Note.Valid {
		resp.Note = &o.Note.String
	}
	if o.PaymentProof.Valid {
		resp.PaymentProof = &o.PaymentProof.String
	}
	if o.Rating.Valid {
		resp.Rating = &o.Rating.Int32
	}
	if o.Review.Valid {
		resp.Review = &o.Review.String
	}
	if lines != nil {
		// Totals are recomputed from the line snapshot so a drifted stored
		// total never reaches the client.
		resp.TotalAmount = service.ComputedTotal(o, lines).StringFixed(2)
		resp.Lines = make([]orderLineResponse, len(lines))
		for i, l := range lines {
			resp.Lines[i] = orderLineResponse{
				ID:            l.ID,
				MenuItemID:    l.MenuItemID,
				ItemName:      l.ItemName,
				Quantity:      l.Quantity,
				UnitPrice:     moneyString(l.UnitPrice),
				Customization: l.Customization,
			}
		}
	}
	return resp
}

// --- Customer handlers ---

// Place runs checkout against the active cart.
func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.orders.PlaceOrder(r.Context(), service.PlaceOrderRequest{
		CustomerID:    claims.UserID,
		CustomerName:  req.CustomerName,
		ContactNumber: req.ContactNumber,
		DeliveryType:  req.DeliveryType,
		Address:       req.Address,
		Note:          req.Note,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeServiceError(w, err, "place order")
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(result.Order, result.Lines))
}

// ListMine returns the customer's order history, newest first.
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	orders, err := h.store.ListOrdersByCustomer(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, err, "list customer orders")
		return
	}

	h.writeOrderList(w, orders)
}

func (h *OrderHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrderForCustomer(r.Context(), database.GetOrderForCustomerParams{
		ID:         orderID,
		CustomerID: claims.UserID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		writeServiceError(w, err, "get customer order")
		return
	}

	h.writeOrderWithLines(w, r, order)
}

func (h *OrderHandler) CancelMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.orders.Cancel(r.Context(), service.CancelRequest{
		OrderID: orderID,
		ActorID: claims.UserID,
		IsStaff: false,
	})
	if err != nil {
		writeServiceError(w, err, "customer cancel order")
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order, nil))
}

// --- Staff handlers ---

// ListAll returns every order with optional status, delivery_type, and
// payment_status filters.
func (h *OrderHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	params := database.ListOrdersParams{
		Status:        textFilter(r.URL.Query().Get("status")),
		DeliveryType:  textFilter(r.URL.Query().Get("delivery_type")),
		PaymentStatus: textFilter(r.URL.Query().Get("payment_status")),
		Limit:         parsePageSize(r.URL.Query().Get("limit")),
		Offset:        parseOffset(r.URL.Query().Get("offset")),
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		writeServiceError(w, err, "list orders")
		return
	}

	h.writeOrderList(w, orders)
}

func (h *OrderHandler) GetAny(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		writeServiceError(w, err, "get order")
		return
	}

	h.writeOrderWithLines(w, r, order)
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), service.UpdateStatusRequest{
		OrderID:   orderID,
		NewStatus: req.Status,
		StaffID:   claims.UserID,
	})
	if err != nil {
		writeServiceError(w, err, "update order status")
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order, nil))
}

func (h *OrderHandler) CancelAny(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.orders.Cancel(r.Context(), service.CancelRequest{
		OrderID: orderID,
		ActorID: claims.UserID,
		IsStaff: true,
	})
	if err != nil {
		writeServiceError(w, err, "staff cancel order")
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order, nil))
}

// --- Helpers ---

func (h *OrderHandler) writeOrderList(w http.ResponseWriter, orders []database.Order) {
	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o, nil)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *OrderHandler) writeOrderWithLines(w http.ResponseWriter, r *http.Request, order database.Order) {
	lines, err := h.store.ListOrderLines(r.Context(), order.ID)
	if err != nil {
		writeServiceError(w, err, "list order lines")
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order, lines))
}

func textFilter(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func parsePageSize(s string) int32 {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return defaultOrderPageSize
	}
	if n > maxOrderPageSize {
		return maxOrderPageSize
	}
	return int32(n)
}

func parseOffset(s string) int32 {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return int32(n)
}
