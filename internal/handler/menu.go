package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/roasted-route/api/internal/database"
	"github.com/roasted-route/api/internal/enum"
)

var (
	errNegativePrice   = errors.New("price cannot be negative")
	errNegativeStock   = errors.New("stock cannot be negative")
	errUnknownCategory = errors.New("unknown category")
)

var menuCategories = map[string]bool{
	enum.CategoryChicken: true,
	enum.CategoryPork:    true,
	enum.CategoryBurger:  true,
	enum.CategoryFries:   true,
	enum.CategoryDrinks:  true,
}

// MenuStore defines the database methods needed by menu handlers.
// Satisfied by *database.Queries.
type MenuStore interface {
	ListMenuItems(ctx context.Context) ([]database.MenuItem, error)
	ListAvailableMenuItems(ctx context.Context) ([]database.MenuItem, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error)
	SetMenuItemAvailability(ctx context.Context, arg database.SetMenuItemAvailabilityParams) (database.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// ActivityLogger records staff actions. Satisfied by *notify.Notifier.
type ActivityLogger interface {
	LogActivity(ctx context.Context, arg database.CreateActivityLogParams)
}

// MenuHandler handles the public menu listing and the staff catalog CRUD.
type MenuHandler struct {
	store    MenuStore
	activity ActivityLogger
}

func NewMenuHandler(store MenuStore, activity ActivityLogger) *MenuHandler {
	return &MenuHandler{store: store, activity: activity}
}

// RegisterPublicRoutes registers the unauthenticated browse endpoints.
func (h *MenuHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/menu", h.ListAvailable)
	r.Get("/menu/{id}", h.Get)
}

// RegisterStaffRoutes registers the catalog management endpoints.
func (h *MenuHandler) RegisterStaffRoutes(r chi.Router) {
	r.Get("/menu", h.ListAll)
	r.Post("/menu", h.Create)
	r.Put("/menu/{id}", h.Update)
	r.Patch("/menu/{id}/availability", h.SetAvailability)
	r.Delete("/menu/{id}", h.Delete)
}

// --- Request / Response types ---

type menuItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Category    string `json:"category"`
	Available   *bool  `json:"available"`
	Stock       int32  `json:"stock"`
	IsFeatured  bool   `json:"is_featured"`
	ImageURL    string `json:"image_url"`
}

type setAvailabilityRequest struct {
	Available bool `json:"available"`
}

type menuItemResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       string    `json:"price"`
	Category    string    `json:"category"`
	Available   bool      `json:"available"`
	Stock       int32     `json:"stock"`
	IsFeatured  bool      `json:"is_featured"`
	ImageURL    *string   `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toMenuItemResponse(i database.MenuItem) menuItemResponse {
	resp := menuItemResponse{
		ID:         i.ID,
		Name:       i.Name,
		Price:      moneyString(i.Price),
		Category:   i.Category,
		Available:  i.Available,
		Stock:      i.Stock,
		IsFeatured: i.IsFeatured,
		CreatedAt:  i.CreatedAt,
		UpdatedAt:  i.UpdatedAt,
	}
	if i.Description.Valid {
		resp.Description = &i.Description.String
	}
	if i.ImageURL.Valid {
		resp.ImageURL = &i.ImageURL.String
	}
	return resp
}

// --- Handlers ---

// ListAvailable returns the customer-facing menu. Unavailable items are
// hidden rather than shown greyed out.
func (h *MenuHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListAvailableMenuItems(r.Context())
	if err != nil {
		writeServiceError(w, err, "list available menu items")
		return
	}
	h.writeItemList(w, items)
}

// ListAll returns every item, including unavailable ones, for the staff
// catalog view.
func (h *MenuHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListMenuItems(r.Context())
	if err != nil {
		writeServiceError(w, err, "list menu items")
		return
	}
	h.writeItemList(w, items)
}

func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	item, err := h.store.GetMenuItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		writeServiceError(w, err, "get menu item")
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, err := menuItemParamsFromRequest(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	item, err := h.store.CreateMenuItem(r.Context(), params)
	if err != nil {
		writeServiceError(w, err, "create menu item")
		return
	}

	h.logMenuActivity(r, "menu_item_created", item)
	writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
}

func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, err := menuItemParamsFromRequest(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	item, err := h.store.UpdateMenuItem(r.Context(), database.UpdateMenuItemParams{
		ID:          id,
		Name:        params.Name,
		Description: params.Description,
		Price:       params.Price,
		Category:    params.Category,
		Available:   params.Available,
		Stock:       params.Stock,
		IsFeatured:  params.IsFeatured,
		ImageURL:    params.ImageURL,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		writeServiceError(w, err, "update menu item")
		return
	}

	h.logMenuActivity(r, "menu_item_updated", item)
	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

func (h *MenuHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	var req setAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	item, err := h.store.SetMenuItemAvailability(r.Context(), database.SetMenuItemAvailabilityParams{
		ID:        id,
		Available: req.Available,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		writeServiceError(w, err, "set menu item availability")
		return
	}

	action := "menu_item_hidden"
	if item.Available {
		action = "menu_item_shown"
	}
	h.logMenuActivity(r, action, item)
	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// Delete removes an item that was never ordered. Items referenced by order
// lines cannot be deleted; use availability to retire them instead.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	deleted, err := h.store.DeleteMenuItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		if isForeignKeyViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{
				"error": "menu item has existing orders; mark it unavailable instead",
			})
			return
		}
		writeServiceError(w, err, "delete menu item")
		return
	}

	h.logMenuActivity(r, "menu_item_deleted", database.MenuItem{ID: deleted})
	writeJSON(w, http.StatusOK, map[string]string{"id": deleted.String()})
}

// --- Helpers ---

func (h *MenuHandler) writeItemList(w http.ResponseWriter, items []database.MenuItem) {
	resp := make([]menuItemResponse, len(items))
	for i, item := range items {
		resp[i] = toMenuItemResponse(item)
	}
	writeJSON(w, http.StatusOK, resp)
}

func menuItemParamsFromRequest(req menuItemRequest) (database.CreateMenuItemParams, error) {
	if req.Name == "" {
		return database.CreateMenuItemParams{}, errors.New("name is required")
	}
	if !menuCategories[req.Category] {
		return database.CreateMenuItemParams{}, errUnknownCategory
	}
	if req.Stock < 0 {
		return database.CreateMenuItemParams{}, errNegativeStock
	}

	price, err := parsePrice(req.Price)
	if err != nil {
		return database.CreateMenuItemParams{}, err
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}

	description := pgtype.Text{}
	if req.Description != "" {
		description = pgtype.Text{String: req.Description, Valid: true}
	}
	imageURL := pgtype.Text{}
	if req.ImageURL != "" {
		imageURL = pgtype.Text{String: req.ImageURL, Valid: true}
	}

	return database.CreateMenuItemParams{
		Name:        req.Name,
		Description: description,
		Price:       price,
		Category:    req.Category,
		Available:   available,
		Stock:       req.Stock,
		IsFeatured:  req.IsFeatured,
		ImageURL:    imageURL,
	}, nil
}

func parsePrice(s string) (pgtype.Numeric, error) {
	if s == "" {
		return pgtype.Numeric{}, errors.New("price is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return pgtype.Numeric{}, errors.New("invalid price")
	}
	if d.IsNegative() {
		return pgtype.Numeric{}, errNegativePrice
	}
	var n pgtype.Numeric
	if err := n.Scan(d.StringFixed(2)); err != nil {
		return pgtype.Numeric{}, errors.New("invalid price")
	}
	return n, nil
}

func (h *MenuHandler) logMenuActivity(r *http.Request, action string, item database.MenuItem) {
	if h.activity == nil {
		return
	}
	arg := database.CreateActivityLogParams{
		UserRole:   enum.UserRoleStaff,
		Category:   enum.ActivityCategoryMenu,
		Action:     action,
		MenuItemID: pgtype.UUID{Bytes: item.ID, Valid: true},
	}
	if item.Name != "" {
		arg.Description = pgtype.Text{String: item.Name, Valid: true}
	}
	if claims, ok := claimsFrom(r); ok {
		arg.UserID = pgtype.UUID{Bytes: claims.UserID, Valid: true}
	}
	h.activity.LogActivity(r.Context(), arg)
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
