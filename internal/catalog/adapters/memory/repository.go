package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/dejobratic/shopkart/internal/apperrors"
	"github.com/dejobratic/shopkart/internal/catalog/domain"
	"github.com/dejobratic/shopkart/internal/catalog/ports"
)

// Repository provides an in-memory catalog useful for local development and tests.
type Repository struct {
	mu         sync.RWMutex
	categories map[string]domain.Category
	products   map[string]domain.Product
}

// NewRepository constructs an empty in-memory catalog.
func NewRepository() *Repository {
	return &Repository{
		categories: make(map[string]domain.Category),
		products:   make(map[string]domain.Product),
	}
}

// PutCategory inserts or replaces a category.
func (r *Repository) PutCategory(c domain.Category) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[c.ID] = c
}

// PutProduct inserts or replaces a product.
func (r *Repository) PutProduct(p domain.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
}

// AdjustQuantity adds delta to a product's stock, refusing to go below zero.
func (r *Repository) AdjustQuantity(id string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return ports.ErrProductNotFound
	}
	if p.Quantity+delta < 0 {
		return apperrors.Newf(apperrors.ErrConflict, "insufficient stock for %s", p.Name)
	}
	p.Quantity += delta
	r.products[id] = p
	return nil
}

func (r *Repository) ListCategories(_ context.Context) ([]domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Category
	for _, c := range r.categories {
		if c.Visible {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *Repository) CategoryByName(_ context.Context, name string) (*domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.categories {
		if c.Name == name && c.Visible {
			found := c
			return &found, nil
		}
	}
	return nil, ports.ErrCategoryNotFound
}

func (r *Repository) ProductsByCategory(_ context.Context, categoryID string) ([]domain.Product, error) {
	return r.filter(func(p domain.Product) bool {
		return p.CategoryID == categoryID && p.Visible
	}, 0), nil
}

func (r *Repository) ProductByName(_ context.Context, categoryID, name string) (*domain.Product, error) {
	matches := r.filter(func(p domain.Product) bool {
		return p.CategoryID == categoryID && p.Name == name && p.Visible
	}, 0)
	if len(matches) == 0 {
		return nil, ports.ErrProductNotFound
	}
	return &matches[len(matches)-1], nil
}

func (r *Repository) ProductByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, ports.ErrProductNotFound
	}
	return &p, nil
}

func (r *Repository) ProductsByIDs(_ context.Context, ids []string) (map[string]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			result[id] = p
		}
	}
	return result, nil
}

func (r *Repository) Trending(_ context.Context) ([]domain.Product, error) {
	r.mu.RLock()
	visible := make(map[string]bool, len(r.categories))
	for id, c := range r.categories {
		visible[id] = c.Visible
	}
	r.mu.RUnlock()

	return r.filter(func(p domain.Product) bool {
		return p.Trending && p.Visible && visible[p.CategoryID]
	}, 0), nil
}

func (r *Repository) Search(_ context.Context, filter ports.SearchFilter) ([]domain.Product, error) {
	query := strings.ToLower(strings.TrimSpace(filter.Query))
	category := strings.TrimSpace(filter.Category)

	r.mu.RLock()
	categoryNames := make(map[string]string, len(r.categories))
	for id, c := range r.categories {
		categoryNames[id] = c.Name
	}
	r.mu.RUnlock()

	return r.filter(func(p domain.Product) bool {
		if !p.Visible {
			return false
		}
		if category != "" && !strings.EqualFold(categoryNames[p.CategoryID], category) {
			return false
		}
		if query == "" {
			return true
		}
		if strings.Contains(strings.ToLower(p.Name), query) {
			return true
		}
		return !filter.NameOnly && strings.Contains(strings.ToLower(p.Description), query)
	}, filter.Limit), nil
}

// filter returns matching products newest first, capped at limit when positive.
func (r *Repository) filter(match func(domain.Product) bool, limit int) []domain.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Product
	for _, p := range r.products {
		if match(p) {
			result = append(result, p)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}
