package ports

import (
	"context"

	"github.com/dejobratic/shopkart/internal/apperrors"
	"github.com/dejobratic/shopkart/internal/catalog/domain"
)

// CatalogRepository is read-only; stock is mutated by the order placement unit of work.
// Listing and lookup-by-name methods only see visible rows; ProductByID and ProductsByIDs
// return hidden products too and leave the visibility decision to the caller.
type CatalogRepository interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CategoryByName(ctx context.Context, name string) (*domain.Category, error)
	ProductsByCategory(ctx context.Context, categoryID string) ([]domain.Product, error)
	ProductByName(ctx context.Context, categoryID, name string) (*domain.Product, error)
	ProductByID(ctx context.Context, id string) (*domain.Product, error)
	ProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
	Trending(ctx context.Context) ([]domain.Product, error)
	Search(ctx context.Context, filter SearchFilter) ([]domain.Product, error)
}

// SearchFilter matches visible products. Query is a case-insensitive substring over name,
// and over description too when NameOnly is false. Category matches a category name.
type SearchFilter struct {
	Query    string
	Category string
	NameOnly bool
	Limit    int
}

var (
	ErrCategoryNotFound = apperrors.New(apperrors.ErrNotFound, "category not found")
	ErrProductNotFound  = apperrors.New(apperrors.ErrNotFound, "product not found")
)
