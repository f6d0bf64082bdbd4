package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

const healthTimeout = 2 * time.Second

// ErrSchemaMissing means the database answers but the storefront migrations have not run.
var ErrSchemaMissing = errors.New("storefront schema is not migrated")

// storefrontTables must all exist before the service reports ready.
var storefrontTables = []string{
	"users", "categories", "products", "cart_lines", "favourites",
	"buy_now_selections", "addresses", "orders", "order_items", "idempotency_keys",
}

// DB is the slice of *pgxpool.Pool the health checks use.
type DB interface {
	Ping(ctx context.Context) error
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func ping(ctx context.Context, db DB) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// CheckReady pings the database and confirms every storefront table exists; used by /readyz.
func CheckReady(ctx context.Context, db DB) error {
	if err := ping(ctx, db); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	const query = `
		SELECT coalesce(array_agg(t.name ORDER BY t.name), '{}'::text[])
		FROM unnest($1::text[]) AS t(name)
		WHERE to_regclass(t.name) IS NULL
	`
	var missing []string
	if err := db.QueryRow(ctx, query, storefrontTables).Scan(&missing); err != nil {
		return fmt.Errorf("inspect schema: %w", err)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrSchemaMissing, strings.Join(missing, ", "))
	}
	return nil
}
