package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dejobratic/shopkart/internal/addresses/domain"
	"github.com/dejobratic/shopkart/internal/addresses/ports"
)

const addressColumns = `id, user_id, full_name, phone, address_line, city, state, pincode, created_at`

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, a domain.Address) error {
	query := `
		INSERT INTO addresses (` + addressColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		a.ID, a.UserID, a.FullName, a.Phone, a.AddressLine, a.City, a.State, a.Pincode, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}
	return nil
}

func (r *Repository) Update(ctx context.Context, a domain.Address) error {
	query := `
		UPDATE addresses
		SET full_name = $2, phone = $3, address_line = $4, city = $5, state = $6, pincode = $7
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, a.ID, a.FullName, a.Phone, a.AddressLine, a.City, a.State, a.Pincode)
	if err != nil {
		return fmt.Errorf("update address: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE id = $1`

	var a domain.Address
	err := r.pool.QueryRow(ctx, query, id).Scan(addressFields(&a)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("select address: %w", err)
	}
	return &a, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]domain.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query addresses: %w", err)
	}
	defer rows.Close()

	var addresses []domain.Address
	for rows.Next() {
		var a domain.Address
		if err := rows.Scan(addressFields(&a)...); err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addresses = append(addresses, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate addresses: %w", err)
	}

	return addresses, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM addresses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func addressFields(a *domain.Address) []any {
	return []any{&a.ID, &a.UserID, &a.FullName, &a.Phone, &a.AddressLine, &a.City, &a.State, &a.Pincode, &a.CreatedAt}
}
