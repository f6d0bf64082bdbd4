package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dejobratic/shopkart/internal/orders/domain"
	"github.com/dejobratic/shopkart/internal/orders/ports"
)

const orderColumns = `id, user_id, address_id, total_cents, payment_mode, payment_status, upi_app, status,
	created_at, updated_at, placed_at, shipped_at, out_for_delivery_at, delivered_at, cancelled_at`

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	orders := []domain.Order{*order}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}

	return &orders[0], nil
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`

	return r.query(ctx, query, userID)
}

func (r *Repository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	filter = filter.Normalize()

	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	var statusFilter *string
	if filter.Status != nil {
		s := string(*filter.Status)
		statusFilter = &s
	}

	return r.query(ctx, query, statusFilter, filter.PageSize, filter.Offset())
}

// UpdateStatus is a compare-and-set on the status column.
func (r *Repository) UpdateStatus(ctx context.Context, order domain.Order, from domain.Status) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2, shipped_at = $3, out_for_delivery_at = $4,
			delivered_at = $5, cancelled_at = $6
		WHERE id = $7 AND status = $8
	`

	result, err := r.pool.Exec(ctx, query,
		order.Status,
		order.UpdatedAt,
		order.ShippedAt,
		order.OutForDeliveryAt,
		order.DeliveredAt,
		order.CancelledAt,
		order.ID,
		from,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, order.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check order exists: %w", err)
		}
		if !exists {
			return ports.ErrNotFound
		}
		return ports.ErrStatusChanged
	}

	return nil
}

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// attachItems loads the items of every order in one query.
func (r *Repository) attachItems(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	index := make(map[string]int, len(orders))
	ids := make([]string, 0, len(orders))
	for i, o := range orders {
		index[o.ID] = i
		ids = append(ids, o.ID)
		orders[i].Items = []domain.Item{}
	}

	query := `
		SELECT order_id, id, product_id, product_name, quantity, price_cents
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID string
		var item domain.Item
		if err := rows.Scan(&orderID, &item.ID, &item.ProductID, &item.ProductName, &item.Quantity, &item.PriceCents); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		i := index[orderID]
		orders[i].Items = append(orders[i].Items, item)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate order items: %w", err)
	}

	return nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var order domain.Order
	var addressID *string
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&addressID,
		&order.TotalCents,
		&order.PaymentMode,
		&order.PaymentStatus,
		&order.UPIApp,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.PlacedAt,
		&order.ShippedAt,
		&order.OutForDeliveryAt,
		&order.DeliveredAt,
		&order.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	if addressID != nil {
		order.AddressID = *addressID
	}
	return &order, nil
}
