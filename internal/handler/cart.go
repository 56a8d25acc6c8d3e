package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/roasted-route/api/internal/service"
)

// CartHandler handles the authenticated customer cart endpoints.
type CartHandler struct {
	carts *service.CartService
}

func NewCartHandler(carts *service.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// RegisterRoutes registers the customer cart endpoints.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Get("/cart", h.View)
	r.Post("/cart/lines", h.AddLine)
	r.Patch("/cart/lines/{lineID}", h.UpdateLine)
	r.Post("/orders/{orderID}/reorder", h.Reorder)
}

// --- Request / Response types ---

type addCartLineRequest struct {
	MenuItemID    string          `json:"menu_item_id"`
	Quantity      int32           `json:"quantity"`
	Customization json.RawMessage `json:"customization"`
}

type updateCartLineRequest struct {
	Action string `json:"action"`
}

type cartLineResponse struct {
	ID            uuid.UUID       `json:"id"`
	MenuItemID    uuid.UUID       `json:"menu_item_id"`
	ItemName      string          `json:"item_name"`
	ItemImageURL  *string         `json:"item_image_url"`
	ItemAvailable bool            `json:"item_available"`
	ItemStock     int32           `json:"item_stock"`
	Quantity      int32           `json:"quantity"`
	UnitPrice     string          `json:"unit_price"`
	AddonsUnit    string          `json:"addons_unit"`
	LineTotal     string          `json:"line_total"`
	Customization json.RawMessage `json:"customization"`
	AddedAt       time.Time       `json:"added_at"`
}

type cartResponse struct {
	ID       *uuid.UUID         `json:"id"`
	Lines    []cartLineResponse `json:"lines"`
	Subtotal string             `json:"subtotal"`
}

func toCartResponse(view *service.CartView) cartResponse {
	resp := cartResponse{
		Lines:    make([]cartLineResponse, len(view.Lines)),
		Subtotal: view.Subtotal.StringFixed(2),
	}
	if view.Cart != nil {
		resp.ID = &view.Cart.ID
	}
	for i, lv := range view.Lines {
		line := cartLineResponse{
			ID:            lv.Line.ID,
			MenuItemID:    lv.Line.MenuItemID,
			ItemName:      lv.Line.ItemName,
			ItemAvailable: lv.Line.ItemAvailable,
			ItemStock:     lv.Line.ItemStock,
			Quantity:      lv.Line.Quantity,
			UnitPrice:     lv.UnitPrice.StringFixed(2),
			AddonsUnit:    lv.AddonsUnit.StringFixed(2),
			LineTotal:     lv.Total.StringFixed(2),
			Customization: lv.Line.Customization,
			AddedAt:       lv.Line.AddedAt,
		}
		if lv.Line.ItemImageURL.Valid {
			line.ItemImageURL = &lv.Line.ItemImageURL.String
		}
		resp.Lines[i] = line
	}
	return resp
}

// --- Handlers ---

func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	view, err := h.carts.ViewCart(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, err, "view cart")
		return
	}

	writeJSON(w, http.StatusOK, toCartResponse(view))
}

func (h *CartHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req addCartLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if _, err := h.carts.AddLine(r.Context(), service.AddLineRequest{
		CustomerID:    claims.UserID,
		MenuItemID:    req.MenuItemID,
		Quantity:      req.Quantity,
		Customization: req.Customization,
	}); err != nil {
		writeServiceError(w, err, "add cart line")
		return
	}

	// Respond with the full cart so the client never has to merge lines
	// itself.
	view, err := h.carts.ViewCart(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, err, "view cart after add")
		return
	}

	writeJSON(w, http.StatusCreated, toCartResponse(view))
}

func (h *CartHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	lineID, err := uuid.Parse(chi.URLParam(r, "lineID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cart line ID"})
		return
	}

	var req updateCartLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if _, err := h.carts.UpdateLine(r.Context(), claims.UserID, lineID, req.Action); err != nil {
		writeServiceError(w, err, "update cart line")
		return
	}

	view, err := h.carts.ViewCart(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, err, "view cart after update")
		return
	}

	writeJSON(w, http.StatusOK, toCartResponse(view))
}

// Reorder copies a past order's lines into the active cart. Items that no
// longer exist or are unavailable are skipped silently.
func (h *CartHandler) Reorder(w http.ResponseWriter, r *http.Request) {
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

	view, err := h.carts.Reorder(r.Context(), claims.UserID, orderID)
	if err != nil {
		writeServiceError(w, err, "reorder")
		return
	}

	writeJSON(w, http.StatusOK, toCartResponse(view))
}
