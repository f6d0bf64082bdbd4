package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dejobratic/shopkart/internal/apperrors"
	cartports "github.com/dejobratic/shopkart/internal/cart/ports"
	catalogdomain "github.com/dejobratic/shopkart/internal/catalog/domain"
	"github.com/dejobratic/shopkart/internal/database"
	"github.com/dejobratic/shopkart/internal/orders/domain"
	"github.com/dejobratic/shopkart/internal/orders/ports"
)

// UnitOfWork runs order placement in a single read-committed transaction.
// Product rows are locked FOR UPDATE in id order so concurrent checkouts cannot deadlock.
type UnitOfWork struct {
	pool *pgxpool.Pool
}

func NewUnitOfWork(pool *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{pool: pool}
}

func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, tx ports.CheckoutTx) error) error {
	return database.InTx(ctx, u.pool, func(tx pgx.Tx) error {
		return fn(ctx, &checkoutTx{tx: tx})
	})
}

type checkoutTx struct {
	tx pgx.Tx
}

func (t *checkoutTx) TakeBuyNow(ctx context.Context, userID, token string, now time.Time) (ports.Line, error) {
	query := `
		DELETE FROM buy_now_selections
		WHERE token = $1 AND user_id = $2 AND expires_at > $3
		RETURNING product_id, quantity
	`

	var line ports.Line
	err := t.tx.QueryRow(ctx, query, token, userID, now).Scan(&line.ProductID, &line.Quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ports.Line{}, cartports.ErrSelectionNotFound
		}
		return ports.Line{}, fmt.Errorf("consume buy now selection: %w", err)
	}
	return line, nil
}

func (t *checkoutTx) CartLines(ctx context.Context, userID string) ([]ports.Line, error) {
	query := `
		SELECT product_id, quantity
		FROM cart_lines
		WHERE user_id = $1
		ORDER BY created_at, id
		FOR UPDATE
	`

	rows, err := t.tx.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query cart lines: %w", err)
	}
	defer rows.Close()

	var lines []ports.Line
	for rows.Next() {
		var l ports.Line
		if err := rows.Scan(&l.ProductID, &l.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart lines: %w", err)
	}

	return lines, nil
}

// AddressBelongsTo holds a share lock so the address cannot be deleted before the order references it.
func (t *checkoutTx) AddressBelongsTo(ctx context.Context, userID, addressID string) (bool, error) {
	var owner string
	err := t.tx.QueryRow(ctx, `SELECT user_id FROM addresses WHERE id = $1 FOR SHARE`, addressID).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("select address owner: %w", err)
	}
	return owner == userID, nil
}

func (t *checkoutTx) LockProducts(ctx context.Context, ids []string) (map[string]catalogdomain.Product, error) {
	query := `
		SELECT p.id, p.category_id, p.name, p.vendor, p.image, p.description, p.quantity,
			p.original_price_cents, p.selling_price_cents, p.visible AND c.visible, p.trending, p.created_at
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.id = ANY($1)
		ORDER BY p.id
		FOR UPDATE OF p
	`

	rows, err := t.tx.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}
	defer rows.Close()

	products := make(map[string]catalogdomain.Product, len(ids))
	for rows.Next() {
		var p catalogdomain.Product
		if err := rows.Scan(
			&p.ID, &p.CategoryID, &p.Name, &p.Vendor, &p.Image, &p.Description, &p.Quantity,
			&p.OriginalPriceCents, &p.SellingPriceCents, &p.Visible, &p.Trending, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products[p.ID] = p
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}

func (t *checkoutTx) InsertOrder(ctx context.Context, order domain.Order) error {
	query := `
		INSERT INTO orders (id, user_id, address_id, total_cents, payment_mode, payment_status, upi_app, status,
			created_at, updated_at, placed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := t.tx.Exec(ctx, query,
		order.ID,
		order.UserID,
		order.AddressID,
		order.TotalCents,
		order.PaymentMode,
		order.PaymentStatus,
		order.UPIApp,
		order.Status,
		order.CreatedAt,
		order.UpdatedAt,
		order.PlacedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	batch := &pgx.Batch{}
	for i, item := range order.Items {
		batch.Queue(`
			INSERT INTO order_items (id, order_id, position, product_id, product_name, quantity, price_cents)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, item.ID, order.ID, i, item.ProductID, item.ProductName, item.Quantity, item.PriceCents)
	}

	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}

	return nil
}

func (t *checkoutTx) DecrementStock(ctx context.Context, productID string, qty int) error {
	result, err := t.tx.Exec(ctx,
		`UPDATE products SET quantity = quantity - $2 WHERE id = $1 AND quantity >= $2`,
		productID, qty,
	)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.Newf(apperrors.ErrConflict, "insufficient stock for product %s", productID)
	}
	return nil
}

func (t *checkoutTx) ClearCart(ctx context.Context, userID string) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM cart_lines WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
