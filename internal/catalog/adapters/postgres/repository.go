package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dejobratic/shopkart/internal/catalog/domain"
	"github.com/dejobratic/shopkart/internal/catalog/ports"
)

const productColumns = `p.id, p.category_id, p.name, p.vendor, p.image, p.description, p.quantity,
	p.original_price_cents, p.selling_price_cents, p.visible, p.trending, p.created_at`

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	query := `
		SELECT id, name, description, image, visible, created_at
		FROM categories
		WHERE visible
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Image, &c.Visible, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	return categories, nil
}

func (r *Repository) CategoryByName(ctx context.Context, name string) (*domain.Category, error) {
	query := `
		SELECT id, name, description, image, visible, created_at
		FROM categories
		WHERE name = $1 AND visible
	`

	var c domain.Category
	err := r.pool.QueryRow(ctx, query, name).Scan(&c.ID, &c.Name, &c.Description, &c.Image, &c.Visible, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("select category: %w", err)
	}

	return &c, nil
}

func (r *Repository) ProductsByCategory(ctx context.Context, categoryID string) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products p
		WHERE p.category_id = $1 AND p.visible
		ORDER BY p.created_at DESC
	`
	return r.queryProducts(ctx, query, categoryID)
}

func (r *Repository) ProductByName(ctx context.Context, categoryID, name string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products p
		WHERE p.category_id = $1 AND p.name = $2 AND p.visible
		ORDER BY p.created_at
		LIMIT 1
	`
	return r.queryProduct(ctx, query, categoryID, name)
}

func (r *Repository) ProductByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products p
		WHERE p.id = $1
	`
	return r.queryProduct(ctx, query, id)
}

func (r *Repository) ProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	if len(ids) == 0 {
		return map[string]domain.Product{}, nil
	}

	query := `SELECT ` + productColumns + `
		FROM products p
		WHERE p.id = ANY($1)
	`
	products, err := r.queryProducts(ctx, query, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID, nil
}

func (r *Repository) Trending(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.trending AND p.visible AND c.visible
		ORDER BY p.created_at DESC
	`
	return r.queryProducts(ctx, query)
}

func (r *Repository) Search(ctx context.Context, filter ports.SearchFilter) ([]domain.Product, error) {
	var (
		conditions = []string{"p.visible"}
		args       []any
	)

	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+escapeLike(q)+"%")
		if filter.NameOnly {
			conditions = append(conditions, fmt.Sprintf("p.name ILIKE $%d", len(args)))
		} else {
			conditions = append(conditions, fmt.Sprintf("(p.name ILIKE $%[1]d OR p.description ILIKE $%[1]d)", len(args)))
		}
	}

	if category := strings.TrimSpace(filter.Category); category != "" {
		args = append(args, category)
		conditions = append(conditions, fmt.Sprintf("LOWER(c.name) = LOWER($%d)", len(args)))
	}

	query := `SELECT ` + productColumns + `
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY p.created_at DESC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	return r.queryProducts(ctx, query, args...)
}

func (r *Repository) queryProduct(ctx context.Context, query string, args ...any) (*domain.Product, error) {
	var p domain.Product
	err := r.pool.QueryRow(ctx, query, args...).Scan(productFields(&p)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrProductNotFound
		}
		return nil, fmt.Errorf("select product: %w", err)
	}
	return &p, nil
}

func (r *Repository) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(productFields(&p)...); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}

func productFields(p *domain.Product) []any {
	return []any{
		&p.ID, &p.CategoryID, &p.Name, &p.Vendor, &p.Image, &p.Description, &p.Quantity,
		&p.OriginalPriceCents, &p.SellingPriceCents, &p.Visible, &p.Trending, &p.CreatedAt,
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
