package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Errors returned by the cart and order services.
var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrCartLineNotFound     = errors.New("cart line not found")
	ErrMenuItemNotFound     = errors.New("menu item not found")
	ErrItemUnavailable      = errors.New("menu item is not available")
	ErrInvalidQuantity      = errors.New("quantity must be > 0")
	ErrInvalidCartAction    = errors.New("invalid cart action")
	ErrInvalidMenuItemID    = errors.New("invalid menu_item_id")
	ErrOrderNotFound        = errors.New("order not found")
	ErrInvalidTransition    = errors.New("status transition not allowed")
	ErrCancelNotAllowed     = errors.New("order can no longer be cancelled")
	ErrInvalidPaymentMethod = errors.New("payment proof requires a gcash order")
	ErrInvalidPaymentStatus = errors.New("invalid payment_status")
	ErrInvalidRating        = errors.New("rating must be between 1 and 5")
	ErrRatingNotAllowed     = errors.New("only completed orders can be rated")
)

// ValidationError reports every missing or malformed input field at once,
// never just the first one found.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return "validation failed: " + strings.Join(names, ", ")
}

// StockShortage describes one line whose requested quantity exceeds the
// item's available stock.
type StockShortage struct {
	MenuItemID uuid.UUID
	ItemName   string
	Requested  int32
	Available  int32
	InCart     int32
}

// InsufficientStockError lists every offending line discovered in a single
// pass, so the customer can fix the whole cart in one round trip.
type InsufficientStockError struct {
	Shortages []StockShortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		if s.InCart > 0 {
			parts = append(parts, fmt.Sprintf("%s: requested %d (%d already in cart), only %d available", s.ItemName, s.Requested, s.InCart, s.Available))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: requested %d, only %d available", s.ItemName, s.Requested, s.Available))
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}
