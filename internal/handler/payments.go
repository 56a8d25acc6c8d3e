package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/roasted-route/api/internal/service"
)

// PaymentHandler handles payment proof uploads, staff verification, and
// order ratings.
type PaymentHandler struct {
	orders *service.OrderService
}

func NewPaymentHandler(orders *service.OrderService) *PaymentHandler {
	return &PaymentHandler{orders: orders}
}

// RegisterCustomerRoutes registers the customer payment and rating endpoints.
func (h *PaymentHandler) RegisterCustomerRoutes(r chi.Router) {
	r.Post("/orders/{orderID}/payment-proof", h.UploadProof)
	r.Post("/orders/{orderID}/rating", h.Rate)
}

// RegisterStaffRoutes registers the payment verification endpoint.
func (h *PaymentHandler) RegisterStaffRoutes(r chi.Router) {
	r.Patch("/orders/{orderID}/payment-status", h.SetStatus)
}

// --- Request types ---

type uploadProofRequest struct {
	ProofURL string `json:"proof_url"`
}

type setPaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status"`
}

type rateOrderRequest struct {
	Rating int32  `json:"rating"`
	Review string `json:"review"`
}

// --- Handlers ---

// UploadProof attaches a payment proof reference to a gcash order and moves
// its payment to for_verification.
func (h *PaymentHandler) UploadProof(w http.ResponseWriter, r *http.Request) {
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

	var req uploadProofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.orders.UploadPaymentProof(r.Context(), service.UploadPaymentProofRequest{
		OrderID:    orderID,
		CustomerID: claims.UserID,
		ProofURL:   req.ProofURL,
	})
	if err != nil {
		writeServiceError(w, err, "upload payment proof")
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order, nil))
}

// SetStatus records the staff verification decision on an order's payment.
func (h *PaymentHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
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

	var req setPaymentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.orders.SetPaymentStatus(r.Context(), service.SetPaymentStatusRequest{
		OrderID:       orderID,
		PaymentStatus: req.PaymentStatus,
		StaffID:       claims.UserID,
	})
	if err != nil {
		writeServiceError(w, err, "set payment status")
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order, nil))
}

// Rate records a 1-5 rating and optional review on a completed order.
func (h *PaymentHandler) Rate(w http.ResponseWriter, r *http.Request) {
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

	var req rateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.orders.RateOrder(r.Context(), service.RateOrderRequest{
		OrderID:    orderID,
		CustomerID: claims.UserID,
		Rating:     req.Rating,
		Review:     req.Review,
	})
	if err != nil {
		writeServiceError(w, err, "rate order")
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order, nil))
}
