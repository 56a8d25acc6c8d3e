package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/roasted-route/api/internal/auth"
	"github.com/roasted-route/api/internal/middleware"
	"github.com/roasted-route/api/internal/service"
)

// claimsFrom pulls the authenticated claims placed on the context by the
// Authenticate middleware.
func claimsFrom(r *http.Request) (*auth.Claims, bool) {
	claims := middleware.ClaimsFromContext(r.Context())
	return claims, claims != nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

// moneyString formats a numeric column with 2 decimal places for consistent
// money representation.
func moneyString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

type shortageResponse struct {
	MenuItemID string `json:"menu_item_id"`
	ItemName   string `json:"item_name"`
	Requested  int32  `json:"requested"`
	Available  int32  `json:"available"`
	InCart     int32  `json:"in_cart,omitempty"`
}

// writeServiceError maps service-layer errors to HTTP responses. Unknown
// errors are logged and reported as 500s without leaking detail.
func writeServiceError(w http.ResponseWriter, err error, logPrefix string) {
	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  vErr.Error(),
			"fields": vErr.Fields,
		})
		return
	}

	var stockErr *service.InsufficientStockError
	if errors.As(err, &stockErr) {
		shortages := make([]shortageResponse, len(stockErr.Shortages))
		for i, s := range stockErr.Shortages {
			shortages[i] = shortageResponse{
				MenuItemID: s.MenuItemID.String(),
				ItemName:   s.ItemName,
				Requested:  s.Requested,
				Available:  s.Available,
				InCart:     s.InCart,
			}
		}
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":     stockErr.Error(),
			"shortages": shortages,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidCartAction),
		errors.Is(err, service.ErrInvalidMenuItemID),
		errors.Is(err, service.ErrInvalidPaymentStatus),
		errors.Is(err, service.ErrInvalidRating):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrMenuItemNotFound),
		errors.Is(err, service.ErrCartLineNotFound),
		errors.Is(err, service.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrItemUnavailable),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrCancelNotAllowed),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrRatingNotAllowed):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", logPrefix, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
