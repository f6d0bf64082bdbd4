//go:build integration

// Package pgtest starts a throwaway Postgres for integration suites and seeds storefront rows.
package pgtest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	testpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dejobratic/shopkart/internal/database"
)

// Start runs an empty Postgres container, terminated on cleanup, and returns its connection string.
func Start(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := testpostgres.Run(ctx,
		"postgres:16-alpine",
		testpostgres.WithDatabase("test"),
		testpostgres.WithUsername("test"),
		testpostgres.WithPassword("test"),
		testpostgres.BasicWaitStrategies(),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}
	return connStr
}

// MigrationsPath is the repository's migrations directory.
func MigrationsPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(findProjectRoot(t), "migrations")
}

// Setup starts a migrated Postgres container and returns a pool that is closed on cleanup.
func Setup(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	connStr := Start(t)
	if _, err := database.RunMigrations(connStr, MigrationsPath(t)); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	pool, err := database.NewPool(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
	})

	return pool
}

// SeedUser inserts a user row with a placeholder password hash.
func SeedUser(t *testing.T, pool *pgxpool.Pool, id, username string) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO users (id, username, email, password_hash) VALUES ($1, $2, $3, 'x')`,
		id, username, username+"@example.com",
	)
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
}

// SeedCategory inserts a category row.
func SeedCategory(t *testing.T, pool *pgxpool.Pool, id, name string, visible bool) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO categories (id, name, visible) VALUES ($1, $2, $3)`,
		id, name, visible,
	)
	if err != nil {
		t.Fatalf("failed to seed category: %v", err)
	}
}

// Product describes a product row for SeedProduct.
type Product struct {
	ID          string
	CategoryID  string
	Name        string
	Description string
	Quantity    int
	PriceCents  int64
	Visible     bool
	Trending    bool
}

// SeedProduct inserts a product row; the original price equals the selling price.
func SeedProduct(t *testing.T, pool *pgxpool.Pool, p Product) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO products (id, category_id, name, description, quantity,
			original_price_cents, selling_price_cents, visible, trending)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $7, $8)`,
		p.ID, p.CategoryID, p.Name, p.Description, p.Quantity, p.PriceCents, p.Visible, p.Trending,
	)
	if err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
}

// SeedAddress inserts a complete address row owned by userID.
func SeedAddress(t *testing.T, pool *pgxpool.Pool, id, userID string) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO addresses (id, user_id, full_name, phone, address_line, city, state, pincode)
		VALUES ($1, $2, 'Test User', '9999999999', '1 Main Road', 'Pune', 'MH', '411001')`,
		id, userID,
	)
	if err != nil {
		t.Fatalf("failed to seed address: %v", err)
	}
}

func findProjectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}
