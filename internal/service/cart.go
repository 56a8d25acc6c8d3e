package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/roasted-route/api/internal/database"
	"github.com/roasted-route/api/internal/pricing"
)

// Cart line actions accepted by UpdateLine.
const (
	CartActionIncrease = "increase"
	CartActionDecrease = "decrease"
	CartActionRemove   = "remove"
)

// CartStore defines the DB methods needed for cart operations.
// Satisfied by *database.Queries.
type CartStore interface {
	GetActiveCart(ctx context.Context, customerID uuid.UUID) (database.Cart, error)
	CreateCart(ctx context.Context, customerID uuid.UUID) (database.Cart, error)
	TouchCart(ctx context.Context, id uuid.UUID) error
	ListCartLines(ctx context.Context, cartID uuid.UUID) ([]database.CartLine, error)
	ListCartLineDetails(ctx context.Context, cartID uuid.UUID) ([]database.CartLineDetail, error)
	GetCartLineForCustomer(ctx context.Context, arg database.GetCartLineForCustomerParams) (database.CartLine, error)
	CreateCartLine(ctx context.Context, arg database.CreateCartLineParams) (database.CartLine, error)
	ClearCartLines(ctx context.Context, cartID uuid.UUID) error
	UpdateCartLineQuantity(ctx context.Context, arg database.UpdateCartLineQuantityParams) (database.CartLine, error)
	DeleteCartLine(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	GetOrderForCustomer(ctx context.Context, arg database.GetOrderForCustomerParams) (database.Order, error)
	ListOrderLines(ctx context.Context, orderID uuid.UUID) ([]database.OrderLine, error)
}

// CartService handles the customer's pre-order basket.
type CartService struct {
	store CartStore
}

func NewCartService(store CartStore) *CartService {
	return &CartService{store: store}
}

// CartLineView is a priced cart line for presentation.
type CartLineView struct {
	Line       database.CartLineDetail
	UnitPrice  decimal.Decimal
	AddonsUnit decimal.Decimal
	Total      decimal.Decimal
}

// CartView is the whole cart with its live-derived subtotal. The subtotal is
// never persisted; it is recomputed from lines on every read.
type CartView struct {
	Cart     *database.Cart
	Lines    []CartLineView
	Subtotal decimal.Decimal
}

// ViewCart returns the customer's active cart. A customer without an active
// cart gets an empty view, not an error.
func (s *CartService) ViewCart(ctx context.Context, customerID uuid.UUID) (*CartView, error) {
	cart, err := s.store.GetActiveCart(ctx, customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &CartView{Subtotal: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("get active cart: %w", err)
	}

	details, err := s.store.ListCartLineDetails(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}

	view := &CartView{Cart: &cart, Subtotal: decimal.Zero}
	for _, d := range details {
		unitPrice := numericToDecimal(d.UnitPrice)
		totals := pricing.ComputeLineTotals(unitPrice, d.Quantity, d.Customization)
		view.Lines = append(view.Lines, CartLineView{
			Line:       d,
			UnitPrice:  unitPrice,
			AddonsUnit: totals.AddonsUnit,
			Total:      totals.Total,
		})
		view.Subtotal = view.Subtotal.Add(totals.Total)
	}
	return view, nil
}

// AddLineRequest is the validated input for adding an item to the cart.
type AddLineRequest struct {
	CustomerID    uuid.UUID
	MenuItemID    string
	Quantity      int32
	Customization json.RawMessage
}

// AddLine puts an item in the customer's active cart, creating the cart when
// none exists. A line for the same item with byte-equal customization is
// merged by summing quantities instead of duplicated.
func (s *CartService) AddLine(ctx context.Context, req AddLineRequest) (database.CartLine, error) {
	if req.Quantity <= 0 {
		return database.CartLine{}, ErrInvalidQuantity
	}
	itemID, err := uuid.Parse(req.MenuItemID)
	if err != nil {
		return database.CartLine{}, ErrInvalidMenuItemID
	}

	item, err := s.store.GetMenuItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.CartLine{}, ErrMenuItemNotFound
		}
		return database.CartLine{}, fmt.Errorf("get menu item: %w", err)
	}
	if !item.Available {
		return database.CartLine{}, ErrItemUnavailable
	}

	cart, err := s.getOrCreateCart(ctx, req.CustomerID)
	if err != nil {
		return database.CartLine{}, err
	}

	lines, err := s.store.ListCartLines(ctx, cart.ID)
	if err != nil {
		return database.CartLine{}, fmt.Errorf("list cart lines: %w", err)
	}

	customization := pricing.Canonical(req.Customization)
	var match *database.CartLine
	for i := range lines {
		if lines[i].MenuItemID == itemID && pricing.Equal(lines[i].Customization, customization) {
			match = &lines[i]
			break
		}
	}

	if match != nil {
		merged := match.Quantity + req.Quantity
		if merged > item.Stock {
			return database.CartLine{}, &InsufficientStockError{Shortages: []StockShortage{{
				MenuItemID: itemID,
				ItemName:   item.Name,
				Requested:  merged,
				Available:  item.Stock,
				InCart:     match.Quantity,
			}}}
		}
		line, err := s.store.UpdateCartLineQuantity(ctx, database.UpdateCartLineQuantityParams{
			ID:       match.ID,
			Quantity: merged,
		})
		if err != nil {
			return database.CartLine{}, fmt.Errorf("merge cart line: %w", err)
		}
		s.touch(ctx, cart.ID)
		return line, nil
	}

	if req.Quantity > item.Stock {
		return database.CartLine{}, &InsufficientStockError{Shortages: []StockShortage{{
			MenuItemID: itemID,
			ItemName:   item.Name,
			Requested:  req.Quantity,
			Available:  item.Stock,
		}}}
	}

	line, err := s.store.CreateCartLine(ctx, database.CreateCartLineParams{
		CartID:        cart.ID,
		MenuItemID:    itemID,
		Quantity:      req.Quantity,
		UnitPrice:     item.Price,
		Customization: customization,
	})
	if err != nil {
		return database.CartLine{}, fmt.Errorf("create cart line: %w", err)
	}
	s.touch(ctx, cart.ID)
	return line, nil
}

// UpdateLine applies increase, decrease, or remove to one of the customer's
// own cart lines. Decrease floors at quantity 1; it never removes the line.
func (s *CartService) UpdateLine(ctx context.Context, customerID, lineID uuid.UUID, action string) (database.CartLine, error) {
	line, err := s.store.GetCartLineForCustomer(ctx, database.GetCartLineForCustomerParams{
		ID:         lineID,
		CustomerID: customerID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.CartLine{}, ErrCartLineNotFound
		}
		return database.CartLine{}, fmt.Errorf("get cart line: %w", err)
	}

	switch action {
	case CartActionIncrease:
		item, err := s.store.GetMenuItem(ctx, line.MenuItemID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return database.CartLine{}, ErrMenuItemNotFound
			}
			return database.CartLine{}, fmt.Errorf("get menu item: %w", err)
		}
		if line.Quantity+1 > item.Stock {
			return database.CartLine{}, &InsufficientStockError{Shortages: []StockShortage{{
				MenuItemID: item.ID,
				ItemName:   item.Name,
				Requested:  line.Quantity + 1,
				Available:  item.Stock,
				InCart:     line.Quantity,
			}}}
		}
		updated, err := s.store.UpdateCartLineQuantity(ctx, database.UpdateCartLineQuantityParams{
			ID:       line.ID,
			Quantity: line.Quantity + 1,
		})
		if err != nil {
			return database.CartLine{}, fmt.Errorf("increase cart line: %w", err)
		}
		s.touch(ctx, line.CartID)
		return updated, nil

	case CartActionDecrease:
		if line.Quantity <= 1 {
			return line, nil
		}
		updated, err := s.store.UpdateCartLineQuantity(ctx, database.UpdateCartLineQuantityParams{
			ID:       line.ID,
			Quantity: line.Quantity - 1,
		})
		if err != nil {
			return database.CartLine{}, fmt.Errorf("decrease cart line: %w", err)
		}
		s.touch(ctx, line.CartID)
		return updated, nil

	case CartActionRemove:
		if _, err := s.store.DeleteCartLine(ctx, line.ID); err != nil {
			return database.CartLine{}, fmt.Errorf("remove cart line: %w", err)
		}
		s.touch(ctx, line.CartID)
		return line, nil
	}
	return database.CartLine{}, ErrInvalidCartAction
}

// Reorder replaces the customer's active cart with a past order's lines,
// skipping items that have since been removed or made unavailable. Unit
// prices are re-snapshotted from the current menu, not the old order.
func (s *CartService) Reorder(ctx context.Context, customerID, orderID uuid.UUID) (*CartView, error) {
	order, err := s.store.GetOrderForCustomer(ctx, database.GetOrderForCustomerParams{
		ID:         orderID,
		CustomerID: customerID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	orderLines, err := s.store.ListOrderLines(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}

	// Reorder replaces the cart contents rather than merging with them.
	cart, err := s.getOrCreateCart(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if err := s.store.ClearCartLines(ctx, cart.ID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	for _, ol := range orderLines {
		_, err := s.AddLine(ctx, AddLineRequest{
			CustomerID:    customerID,
			MenuItemID:    ol.MenuItemID.String(),
			Quantity:      ol.Quantity,
			Customization: json.RawMessage(ol.Customization),
		})
		if err != nil {
			// Missing, unavailable, or understocked items are skipped; the
			// customer gets whatever can still be ordered.
			var stockErr *InsufficientStockError
			if errors.Is(err, ErrMenuItemNotFound) || errors.Is(err, ErrItemUnavailable) || errors.As(err, &stockErr) {
				continue
			}
			return nil, err
		}
	}

	return s.ViewCart(ctx, customerID)
}

func (s *CartService) getOrCreateCart(ctx context.Context, customerID uuid.UUID) (database.Cart, error) {
	cart, err := s.store.GetActiveCart(ctx, customerID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return database.Cart{}, fmt.Errorf("get active cart: %w", err)
	}
	cart, err = s.store.CreateCart(ctx, customerID)
	if err != nil {
		return database.Cart{}, fmt.Errorf("create cart: %w", err)
	}
	return cart, nil
}

func (s *CartService) touch(ctx context.Context, cartID uuid.UUID) {
	// Timestamp drift is harmless, so a failed touch is ignored.
	_ = s.store.TouchCart(ctx, cartID)
}
