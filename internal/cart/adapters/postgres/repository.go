package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dejobratic/shopkart/internal/cart/domain"
	"github.com/dejobratic/shopkart/internal/cart/ports"
)

const uniqueViolation = "23505"

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) AddLine(ctx context.Context, line domain.Line) error {
	query := `
		INSERT INTO cart_lines (id, user_id, product_id, quantity, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query, line.ID, line.UserID, line.ProductID, line.Quantity, line.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ports.ErrAlreadyInCart
		}
		return fmt.Errorf("insert cart line: %w", err)
	}
	return nil
}

func (r *Repository) Lines(ctx context.Context, userID string) ([]domain.Line, error) {
	query := `
		SELECT id, user_id, product_id, quantity, created_at
		FROM cart_lines
		WHERE user_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query cart lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.Line
	for rows.Next() {
		var l domain.Line
		if err := rows.Scan(&l.ID, &l.UserID, &l.ProductID, &l.Quantity, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart lines: %w", err)
	}

	return lines, nil
}

func (r *Repository) LineByID(ctx context.Context, id string) (*domain.Line, error) {
	query := `
		SELECT id, user_id, product_id, quantity, created_at
		FROM cart_lines
		WHERE id = $1
	`

	var l domain.Line
	err := r.pool.QueryRow(ctx, query, id).Scan(&l.ID, &l.UserID, &l.ProductID, &l.Quantity, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrLineNotFound
		}
		return nil, fmt.Errorf("select cart line: %w", err)
	}
	return &l, nil
}

func (r *Repository) DeleteLine(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM cart_lines WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrLineNotFound
	}
	return nil
}

func (r *Repository) AddFavourite(ctx context.Context, fav domain.Favourite) error {
	query := `
		INSERT INTO favourites (id, user_id, product_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query, fav.ID, fav.UserID, fav.ProductID, fav.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ports.ErrAlreadyFavourite
		}
		return fmt.Errorf("insert favourite: %w", err)
	}
	return nil
}

func (r *Repository) Favourites(ctx context.Context, userID string) ([]domain.Favourite, error) {
	query := `
		SELECT id, user_id, product_id, created_at
		FROM favourites
		WHERE user_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query favourites: %w", err)
	}
	defer rows.Close()

	var favs []domain.Favourite
	for rows.Next() {
		var f domain.Favourite
		if err := rows.Scan(&f.ID, &f.UserID, &f.ProductID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan favourite: %w", err)
		}
		favs = append(favs, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favourites: %w", err)
	}

	return favs, nil
}

func (r *Repository) FavouriteByID(ctx context.Context, id string) (*domain.Favourite, error) {
	query := `
		SELECT id, user_id, product_id, created_at
		FROM favourites
		WHERE id = $1
	`

	var f domain.Favourite
	err := r.pool.QueryRow(ctx, query, id).Scan(&f.ID, &f.UserID, &f.ProductID, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrFavouriteNotFound
		}
		return nil, fmt.Errorf("select favourite: %w", err)
	}
	return &f, nil
}

func (r *Repository) DeleteFavourite(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM favourites WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete favourite: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrFavouriteNotFound
	}
	return nil
}

func (r *Repository) SaveSelection(ctx context.Context, sel domain.BuyNowSelection) error {
	query := `
		INSERT INTO buy_now_selections (token, user_id, product_id, quantity, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query, sel.Token, sel.UserID, sel.ProductID, sel.Quantity, sel.ExpiresAt, sel.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert buy now selection: %w", err)
	}
	return nil
}

func (r *Repository) Selection(ctx context.Context, userID, token string, now time.Time) (*domain.BuyNowSelection, error) {
	query := `
		SELECT token, user_id, product_id, quantity, expires_at, created_at
		FROM buy_now_selections
		WHERE token = $1 AND user_id = $2 AND expires_at > $3
	`

	var s domain.BuyNowSelection
	err := r.pool.QueryRow(ctx, query, token, userID, now).Scan(
		&s.Token, &s.UserID, &s.ProductID, &s.Quantity, &s.ExpiresAt, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrSelectionNotFound
		}
		return nil, fmt.Errorf("select buy now selection: %w", err)
	}
	return &s, nil
}

func (r *Repository) PurgeExpired(ctx context.Context, userID string, now time.Time) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM buy_now_selections WHERE user_id = $1 AND expires_at <= $2`, userID, now)
	if err != nil {
		return fmt.Errorf("purge buy now selections: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
