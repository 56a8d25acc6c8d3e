//go:build integration

package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"

	"github.com/roasted-route/api/internal/config"
	"github.com/roasted-route/api/internal/database"
	"github.com/roasted-route/api/internal/router"
	"github.com/roasted-route/api/internal/ws"
)

// TestIntegrationFlow exercises the full ordering lifecycle against a real
// PostgreSQL database: registration, catalog, cart, checkout, fulfillment,
// payment verification, and rating.
func TestIntegrationFlow(t *testing.T) {
	ctx := context.Background()

	pgContainer, connStr, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	runMigrations(t, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	server := startServer(t, connStr, pool)
	defer server.Close()

	// --- 1. Seed a staff account (no public staff registration) ---
	createStaffUser(t, ctx, pool)
	staffTok := login(t, server, "staff@test.com", "password123")

	// --- 2. Register a customer through the API ---
	customerResp := httpPostJSON(t, server, "/auth/register", map[string]interface{}{
		"email":    "ana@test.com",
		"password": "password123",
		"name":     "Ana Reyes",
		"phone":    "09171234567",
		"address":  "Villa Cornejo, Kawayan",
	}, "")
	customerTok := customerResp["access_token"].(string)

	// --- 3. Staff creates a menu item ---
	itemResp := httpPostJSON(t, server, "/staff/menu", map[string]interface{}{
		"name":     "Roast Chicken",
		"price":    "250.00",
		"category": "chicken",
		"stock":    10,
	}, staffTok)
	itemID := itemResp["id"].(string)

	// --- 4. Customer adds to cart with an add-on ---
	cartResp := httpPostJSON(t, server, "/cart/lines", map[string]interface{}{
		"menu_item_id": itemID,
		"quantity":     2,
		"customization": map[string]interface{}{
			"addons": []map[string]interface{}{
				{"name": "Extra Rice", "price": 15},
			},
		},
	}, customerTok)
	if cartResp["subtotal"].(string) != "530.00" {
		t.Fatalf("cart subtotal: got %v, want 530.00", cartResp["subtotal"])
	}

	// --- 5. Checkout as a gcash delivery order ---
	orderResp := httpPostJSON(t, server, "/orders", map[string]interface{}{
		"customer_name":  "Ana Reyes",
		"contact_number": "09171234567",
		"delivery_type":  "delivery",
		"address":        "Villa Cornejo, Kawayan",
		"payment_method": "gcash",
	}, customerTok)
	oid := orderResp["id"].(string)
	if orderResp["total_amount"].(string) != "560.00" {
		t.Fatalf("order total: got %v, want 560.00 (530 + 30 fee)", orderResp["total_amount"])
	}
	if orderResp["payment_status"].(string) != "waiting_payment" {
		t.Fatalf("gcash order payment status: got %v, want waiting_payment", orderResp["payment_status"])
	}

	// Stock was reserved at checkout
	var stock int32
	if err := pool.QueryRow(ctx, `SELECT stock FROM menu_items WHERE id = $1`, itemID).Scan(&stock); err != nil {
		t.Fatalf("read stock: %v", err)
	}
	if stock != 8 {
		t.Fatalf("stock after checkout: got %d, want 8", stock)
	}

	// Cart is consumed
	cart := httpGetJSON(t, server, "/cart", customerTok)
	if cart["subtotal"].(string) != "0.00" {
		t.Fatalf("cart should be empty after checkout, got subtotal %v", cart["subtotal"])
	}

	// --- 6. Customer uploads payment proof; staff verifies ---
	proofResp := httpPostJSON(t, server, "/orders/"+oid+"/payment-proof", map[string]interface{}{
		"proof_url": "uploads/gcash-proof.jpg",
	}, customerTok)
	if proofResp["payment_status"].(string) != "for_verification" {
		t.Fatalf("payment status after proof: got %v", proofResp["payment_status"])
	}

	httpPatchJSON(t, server, "/staff/orders/"+oid+"/payment-status", map[string]interface{}{
		"payment_status": "paid",
	}, staffTok)

	// --- 7. Staff walks the delivery workflow; delivered cascades ---
	for _, status := range []string{"preparing", "out_for_delivery"} {
		httpPatchJSON(t, server, "/staff/orders/"+oid+"/status", map[string]interface{}{
			"status": status,
		}, staffTok)
	}
	final := httpPatchJSON(t, server, "/staff/orders/"+oid+"/status", map[string]interface{}{
		"status": "delivered",
	}, staffTok)
	if final["status"].(string) != "completed" {
		t.Fatalf("delivered delivery order should land on completed, got %v", final["status"])
	}

	// --- 8. Customer rates the completed order ---
	rated := httpPostJSON(t, server, "/orders/"+oid+"/rating", map[string]interface{}{
		"rating": 5,
		"review": "Still hot on arrival",
	}, customerTok)
	if rated["rating"].(float64) != 5 {
		t.Fatalf("rating: got %v, want 5", rated["rating"])
	}

	// --- 9. Notifications accumulated along the way ---
	notifications := httpGetListJSON(t, server, "/notifications", customerTok)
	if len(notifications) == 0 {
		t.Fatal("customer should have order notifications")
	}

	// --- 10. Reports see the completed order ---
	sales := httpGetListJSON(t, server, "/staff/reports/daily-sales", staffTok)
	if len(sales) != 1 {
		t.Fatalf("expected 1 daily sales row, got %d", len(sales))
	}

	t.Logf("Integration flow passed: container=%s order=%s", pgContainer.GetContainerID(), oid)
}

// TestIntegrationCheckoutRace runs two checkouts against the last unit of
// stock. Exactly one may win and stock must never go negative.
func TestIntegrationCheckoutRace(t *testing.T) {
	ctx := context.Background()

	_, connStr, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	runMigrations(t, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	server := startServer(t, connStr, pool)
	defer server.Close()

	createStaffUser(t, ctx, pool)
	staffTok := login(t, server, "staff@test.com", "password123")

	itemResp := httpPostJSON(t, server, "/staff/menu", map[string]interface{}{
		"name":     "Last Burger",
		"price":    "120.00",
		"category": "burger",
		"stock":    1,
	}, staffTok)
	itemID := itemResp["id"].(string)

	tokens := make([]string, 2)
	for i := range tokens {
		resp := httpPostJSON(t, server, "/auth/register", map[string]interface{}{
			"email":    fmt.Sprintf("racer%d@test.com", i),
			"password": "password123",
			"name":     fmt.Sprintf("Racer %d", i),
		}, "")
		tokens[i] = resp["access_token"].(string)

		httpPostJSON(t, server, "/cart/lines", map[string]interface{}{
			"menu_item_id": itemID,
			"quantity":     1,
		}, tokens[i])
	}

	var wg sync.WaitGroup
	statuses := make([]int, 2)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			statuses[i] = httpPostStatus(t, server, "/orders", map[string]interface{}{
				"customer_name":  "Racer",
				"contact_number": "09170000000",
				"delivery_type":  "pickup",
				"payment_method": "cash",
			}, tokens[i])
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, code := range statuses {
		if code == http.StatusCreated {
			wins++
		} else if code != http.StatusConflict {
			t.Errorf("unexpected checkout status %d", code)
		}
	}
	if wins != 1 {
		t.Fatalf("exactly one checkout should win, got %d (statuses %v)", wins, statuses)
	}

	var stock int32
	if err := pool.QueryRow(ctx, `SELECT stock FROM menu_items WHERE id = $1`, itemID).Scan(&stock); err != nil {
		t.Fatalf("read stock: %v", err)
	}
	if stock != 0 {
		t.Fatalf("stock after race: got %d, want 0", stock)
	}
}

// --- Setup helpers ---

func setupPostgresContainer(t *testing.T, ctx context.Context) (testcontainers.Container, string, func()) {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("roasted_test"),
		tcpostgres.WithUsername("roasted"),
		tcpostgres.WithPassword("roasted"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	cleanup := func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	}

	return pgContainer, connStr, cleanup
}

func runMigrations(t *testing.T, connStr string) {
	t.Helper()

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("open db for migrations: %v", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		t.Fatalf("create migrate driver: %v", err)
	}

	// Path relative to this test file's package directory.
	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"postgres", driver)
	if err != nil {
		t.Fatalf("create migrate instance: %v", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("run migrations: %v", err)
	}
}

func startServer(t *testing.T, connStr string, pool *pgxpool.Pool) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		Port:         "8081",
		DatabaseURL:  connStr,
		JWTSecret:    "integration-test-secret",
		DeliveryFee:  "30.00",
		StoreAddress: "Roasted Route Main Branch - Villa Cornejo, Kawayan, Biliran",
	}
	queries := database.New(pool)
	hub := ws.NewHub()
	// Hub goroutine leaks on test exit; acceptable for tests.
	go hub.Run()

	r, err := router.New(cfg, queries, pool, hub)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return httptest.NewServer(r)
}

func createStaffUser(t *testing.T, ctx context.Context, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	var id uuid.UUID
	err = pool.QueryRow(ctx,
		`INSERT INTO users (email, hashed_password, name, role)
		 VALUES ($1, $2, $3, 'STAFF')
		 RETURNING id`,
		"staff@test.com", string(hashedPassword), "Test Staff",
	).Scan(&id)
	if err != nil {
		t.Fatalf("create staff user: %v", err)
	}
	return id
}

func login(t *testing.T, server *httptest.Server, email, password string) string {
	t.Helper()
	resp := httpPostJSON(t, server, "/auth/login", map[string]interface{}{
		"email":    email,
		"password": password,
	}, "")
	token, ok := resp["access_token"].(string)
	if !ok || token == "" {
		t.Fatalf("login failed: no access_token in response: %+v", resp)
	}
	return token
}

// --- HTTP helpers ---

func httpDoJSON(t *testing.T, server *httptest.Server, method, path string, body map[string]interface{}, token string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, buf.Bytes()
}

func httpPostJSON(t *testing.T, server *httptest.Server, path string, body map[string]interface{}, token string) map[string]interface{} {
	t.Helper()
	resp, raw := httpDoJSON(t, server, "POST", path, body, token)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		t.Fatalf("POST %s: status %d, body: %s", path, resp.StatusCode, raw)
	}
	var result map[string]interface{}
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result
}

func httpPostStatus(t *testing.T, server *httptest.Server, path string, body map[string]interface{}, token string) int {
	t.Helper()
	resp, _ := httpDoJSON(t, server, "POST", path, body, token)
	return resp.StatusCode
}

func httpPatchJSON(t *testing.T, server *httptest.Server, path string, body map[string]interface{}, token string) map[string]interface{} {
	t.Helper()
	resp, raw := httpDoJSON(t, server, "PATCH", path, body, token)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		t.Fatalf("PATCH %s: status %d, body: %s", path, resp.StatusCode, raw)
	}
	var result map[string]interface{}
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result
}

func httpGetJSON(t *testing.T, server *httptest.Server, path, token string) map[string]interface{} {
	t.Helper()
	resp, raw := httpDoJSON(t, server, "GET", path, nil, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d, body: %s", path, resp.StatusCode, raw)
	}
	var result map[string]interface{}
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result
}

func httpGetListJSON(t *testing.T, server *httptest.Server, path, token string) []map[string]interface{} {
	t.Helper()
	resp, raw := httpDoJSON(t, server, "GET", path, nil, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d, body: %s", path, resp.StatusCode, raw)
	}
	var result []map[string]interface{}
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result
}
