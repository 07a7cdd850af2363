// Package dbtest starts a migrated PostgreSQL container for tests.
package dbtest

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Tables lists every application table in an order safe for TRUNCATE.
var Tables = []string{
	"messages", "wishlists", "cart_items", "reviews",
	"order_items", "orders", "products", "categories", "admins", "users",
}

// DB is a running, migrated test database.
type DB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// New starts PostgreSQL, applies migrations and registers cleanup on t.
// It skips the test under -short.
func New(t *testing.T) *DB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	logger := zerolog.Nop()
	if err := database.Migrate(connStr, logger); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	pool, err := database.NewPoolFromURL(ctx, connStr, config.DatabaseConfig{
		MaxConnections: 10,
		MinConnections: 1,
	}, logger)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &DB{Container: pgContainer, Pool: pool, ConnStr: connStr}
}

// Reset empties every table and restarts identity sequences.
func (db *DB) Reset(t *testing.T) {
	t.Helper()

	query := fmt.Sprintf("TRUNCATE %s RESTART IDENTITY CASCADE", strings.Join(Tables, ", "))
	if _, err := db.Pool.Exec(context.Background(), query); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
	if _, err := db.Pool.Exec(context.Background(), "ALTER SEQUENCE order_number_seq RESTART"); err != nil {
		t.Fatalf("failed to reset order number sequence: %v", err)
	}
}

// SeedUser inserts a customer and returns its id.
func (db *DB) SeedUser(t *testing.T, email, first, last string) int64 {
	t.Helper()

	var id int64
	err := db.Pool.QueryRow(context.Background(),
		`INSERT INTO users (email, password_hash, first_name, last_name)
		 VALUES ($1, 'x', $2, $3) RETURNING id`,
		email, first, last,
	).Scan(&id)
	if err != nil {
		t.Fatalf("failed to seed user %s: %v", email, err)
	}
	return id
}

// SeedProduct inserts a product with the given price and stock and returns its id.
func (db *DB) SeedProduct(t *testing.T, sku, name, price string, stock int) int64 {
	t.Helper()

	var id int64
	err := db.Pool.QueryRow(context.Background(),
		`INSERT INTO products (name, slug, sku, price, stock, image_url)
		 VALUES ($1, $2, $3, $4::numeric, $5, $6) RETURNING id`,
		name, strings.ToLower(sku), sku, price, stock, "https://cdn.test/"+strings.ToLower(sku)+".png",
	).Scan(&id)
	if err != nil {
		t.Fatalf("failed to seed product %s: %v", sku, err)
	}
	return id
}
