// Package integration exercises the storefront end to end against a real
// PostgreSQL container.
package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"storefront/internal/app"
	"storefront/internal/config"
	"storefront/internal/database/dbtest"
	"storefront/internal/model"

	"github.com/rs/zerolog"
)

const testAPIKey = "test-api-key"

// TestEnv is a migrated database with the whole application wired on top.
type TestEnv struct {
	DB     *dbtest.DB
	App    *app.App
	Server http.Handler
	Config *config.Config
}

// TestConfig prices orders at 10% tax with free shipping above 30.00, so
// a 35.00 basket ships free.
func TestConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{APIKey: testAPIKey, BcryptCost: 4},
		Pricing: config.PricingConfig{
			TaxRate:               "0.10",
			FreeShippingThreshold: "30.00",
			ShippingCost:          "5.99",
		},
		Reviews: config.ReviewsConfig{AutoApprove: true},
		Notify:  config.NotifyConfig{Timeout: 5 * time.Second},
	}
}

// SetupTestEnv starts PostgreSQL and builds the application. Options adjust
// the configuration before wiring.
func SetupTestEnv(t *testing.T, opts ...func(*config.Config)) *TestEnv {
	t.Helper()

	db := dbtest.New(t)

	cfg := TestConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	logger := zerolog.Nop()
	a, err := app.FromPool(context.Background(), db.Pool, cfg, logger)
	if err != nil {
		t.Fatalf("failed to build application: %v", err)
	}
	// Registered after the container cleanup, so it runs first.
	t.Cleanup(func() { a.Close() })

	server, err := a.Handler(cfg, logger)
	if err != nil {
		t.Fatalf("failed to build HTTP handler: %v", err)
	}

	return &TestEnv{DB: db, App: a, Server: server, Config: cfg}
}

// PlaceOrder creates an order for userID through the order service.
func (e *TestEnv) PlaceOrder(ctx context.Context, userID int64, items ...model.OrderItemRequest) (*model.Order, error) {
	return e.App.Services.Orders.CreateOrder(ctx, OrderRequest(userID, items...))
}

// OrderRequest builds a complete order request for the given lines.
func OrderRequest(userID int64, items ...model.OrderItemRequest) *model.CreateOrderRequest {
	return &model.CreateOrderRequest{
		UserID: userID,
		Items:  items,
		Shipping: model.ShippingInfo{
			Name:       "Ada Lovelace",
			Address:    "12 St James's Square",
			City:       "London",
			PostalCode: "SW1Y 4JH",
			Country:    "GB",
		},
		Payment: model.PaymentInfo{Method: "card"},
	}
}

// Line is shorthand for an order line.
func Line(productID int64, quantity int) model.OrderItemRequest {
	return model.OrderItemRequest{ProductID: productID, Quantity: quantity}
}

// ProductState reads the stock and counters of a product directly.
func (e *TestEnv) ProductState(t *testing.T, id int64) *model.Product {
	t.Helper()

	p, err := e.App.Repositories.Products.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("failed to read product %d: %v", id, err)
	}
	if p == nil {
		t.Fatalf("product %d not found", id)
	}
	return p
}

// CountRows returns the number of rows in table.
func (e *TestEnv) CountRows(t *testing.T, table string) int {
	t.Helper()

	var n int
	if err := e.DB.Pool.QueryRow(context.Background(), "SELECT count(*) FROM "+table).Scan(&n); err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	return n
}
