package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/roasted-route/api/internal/config"
	"github.com/roasted-route/api/internal/database"
	"github.com/roasted-route/api/internal/handler"
	mw "github.com/roasted-route/api/internal/middleware"
	"github.com/roasted-route/api/internal/notify"
	"github.com/roasted-route/api/internal/service"
	"github.com/roasted-route/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) (chi.Router, error) {
	deliveryFee, err := decimal.NewFromString(cfg.DeliveryFee)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",         // web dev server
			"https://order.roastedroute.ph", // customer storefront
			"https://staff.roastedroute.ph", // staff dashboard
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	notifier := notify.New(queries, hub)

	newOrderStore := func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}
	orderService := service.NewOrderService(pool, queries, newOrderStore, notifier, deliveryFee, cfg.StoreAddress)
	cartService := service.NewCartService(queries)

	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	menuHandler := handler.NewMenuHandler(queries, notifier)
	cartHandler := handler.NewCartHandler(cartService)
	orderHandler := handler.NewOrderHandler(queries, orderService)
	paymentHandler := handler.NewPaymentHandler(orderService)
	notificationHandler := handler.NewNotificationHandler(queries)
	reportHandler := handler.NewReportHandler(queries)

	// Public routes
	authHandler.RegisterRoutes(r)
	menuHandler.RegisterPublicRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/notifications", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Authenticated customer routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		authHandler.RegisterProfileRoutes(r)
		cartHandler.RegisterRoutes(r)
		orderHandler.RegisterCustomerRoutes(r)
		paymentHandler.RegisterCustomerRoutes(r)
		notificationHandler.RegisterRoutes(r)
	})

	// Staff routes
	r.Route("/staff", func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))
		r.Use(mw.RequireStaff)

		menuHandler.RegisterStaffRoutes(r)
		orderHandler.RegisterStaffRoutes(r)
		paymentHandler.RegisterStaffRoutes(r)
		reportHandler.RegisterRoutes(r)
	})

	return r, nil
}
