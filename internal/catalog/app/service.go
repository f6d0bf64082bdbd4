package app

import (
	"context"
	"strings"

	"github.com/dejobratic/shopkart/internal/catalog/domain"
	"github.com/dejobratic/shopkart/internal/catalog/ports"
)

const maxSuggestions = 6

// Service exposes the read-only storefront catalog.
type Service struct {
	repo ports.CatalogRepository
}

func NewService(repo ports.CatalogRepository) *Service {
	return &Service{repo: repo}
}

// CategoryListing is a category together with its visible products.
type CategoryListing struct {
	Category domain.Category  `json:"category"`
	Products []domain.Product `json:"products"`
}

// Suggestion is a compact search hit for autocomplete.
type Suggestion struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Image      string `json:"image,omitempty"`
	URL        string `json:"url"`
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

// ProductsInCategory fails with NotFound when the category is missing or hidden.
func (s *Service) ProductsInCategory(ctx context.Context, categoryName string) (*CategoryListing, error) {
	category, err := s.repo.CategoryByName(ctx, categoryName)
	if err != nil {
		return nil, err
	}

	products, err := s.repo.ProductsByCategory(ctx, category.ID)
	if err != nil {
		return nil, err
	}

	return &CategoryListing{Category: *category, Products: products}, nil
}

func (s *Service) ProductDetails(ctx context.Context, categoryName, productName string) (*domain.Product, error) {
	category, err := s.repo.CategoryByName(ctx, categoryName)
	if err != nil {
		return nil, err
	}
	return s.repo.ProductByName(ctx, category.ID, productName)
}

// ProductByID hides products that are not visible on the storefront.
func (s *Service) ProductByID(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.ProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.Visible {
		return nil, ports.ErrProductNotFound
	}
	return product, nil
}

func (s *Service) Trending(ctx context.Context) ([]domain.Product, error) {
	return s.repo.Trending(ctx)
}

// Search matches name or description; an empty query lists everything visible.
func (s *Service) Search(ctx context.Context, query, category string) ([]domain.Product, error) {
	return s.repo.Search(ctx, ports.SearchFilter{
		Query:    strings.TrimSpace(query),
		Category: strings.TrimSpace(category),
	})
}

// Suggestions returns up to six products whose name contains term.
func (s *Service) Suggestions(ctx context.Context, term, category string) ([]Suggestion, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []Suggestion{}, nil
	}

	products, err := s.repo.Search(ctx, ports.SearchFilter{
		Query:    term,
		Category: strings.TrimSpace(category),
		NameOnly: true,
		Limit:    maxSuggestions,
	})
	if err != nil {
		return nil, err
	}

	suggestions := make([]Suggestion, 0, len(products))
	for _, p := range products {
		suggestions = append(suggestions, Suggestion{
			Name:       p.Name,
			PriceCents: p.SellingPriceCents,
			Image:      p.Image,
			URL:        "/v1/products/" + p.ID,
		})
	}
	return suggestions, nil
}
