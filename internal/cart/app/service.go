package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dejobratic/shopkart/internal/apperrors"
	"github.com/dejobratic/shopkart/internal/cart/domain"
	"github.com/dejobratic/shopkart/internal/cart/ports"
	catalogdomain "github.com/dejobratic/shopkart/internal/catalog/domain"
)

// Service manages carts, favourites and buy-now selections.
type Service struct {
	carts     ports.CartRepository
	favs      ports.FavouriteRepository
	buyNow    ports.BuyNowRepository
	catalog   ports.ProductCatalog
	buyNowTTL time.Duration
	now       func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source used for buy-now expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(
	carts ports.CartRepository,
	favs ports.FavouriteRepository,
	buyNow ports.BuyNowRepository,
	catalog ports.ProductCatalog,
	buyNowTTL time.Duration,
	opts ...Option,
) *Service {
	s := &Service{
		carts:     carts,
		favs:      favs,
		buyNow:    buyNow,
		catalog:   catalog,
		buyNowTTL: buyNowTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CartView is the cart with live prices.
type CartView struct {
	Lines      []CartViewLine `json:"lines"`
	TotalCents int64          `json:"total_cents"`
}

type CartViewLine struct {
	LineID         string `json:"id"`
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	Image          string `json:"image,omitempty"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	LineTotalCents int64  `json:"line_total_cents"`
	InStock        bool   `json:"in_stock"`
}

type FavouriteView struct {
	ID         string `json:"id"`
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	Image      string `json:"image,omitempty"`
	PriceCents int64  `json:"price_cents"`
}

// AddToCart reports the outcome as a status string; only infrastructure failures return an error.
func (s *Service) AddToCart(ctx context.Context, userID, productID string, qty int) (domain.Outcome, error) {
	if qty <= 0 || productID == "" {
		return domain.OutcomeInvalidRequest, nil
	}

	product, err := s.visibleProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.OutcomeSomethingWrong, nil
		}
		return "", err
	}

	lines, err := s.carts.Lines(ctx, userID)
	if err != nil {
		return "", err
	}
	for _, line := range lines {
		if line.ProductID == productID {
			return domain.OutcomeAlreadyInCart, nil
		}
	}

	if !product.InStock(qty) {
		return domain.OutcomeStockNotAvailable, nil
	}

	err = s.carts.AddLine(ctx, domain.Line{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
		CreatedAt: s.now(),
	})
	if errors.Is(err, ports.ErrAlreadyInCart) {
		return domain.OutcomeAlreadyInCart, nil
	}
	if err != nil {
		return "", err
	}
	return domain.OutcomeAddedToCart, nil
}

// Cart prices every line at the current selling price. Lines whose product disappeared are dropped.
func (s *Service) Cart(ctx context.Context, userID string) (*CartView, error) {
	lines, err := s.carts.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}

	products, err := s.catalog.ProductsByIDs(ctx, lineProductIDs(lines))
	if err != nil {
		return nil, err
	}

	view := &CartView{Lines: make([]CartViewLine, 0, len(lines))}
	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok {
			continue
		}
		total := int64(line.Quantity) * product.SellingPriceCents
		view.Lines = append(view.Lines, CartViewLine{
			LineID:         line.ID,
			ProductID:      product.ID,
			Name:           product.Name,
			Image:          product.Image,
			Quantity:       line.Quantity,
			UnitPriceCents: product.SellingPriceCents,
			LineTotalCents: total,
			InStock:        product.Visible && product.InStock(line.Quantity),
		})
		view.TotalCents += total
	}
	return view, nil
}

func (s *Service) RemoveCartLine(ctx context.Context, userID, lineID string) error {
	line, err := s.carts.LineByID(ctx, lineID)
	if err != nil {
		return err
	}
	if line.UserID != userID {
		return ports.ErrNotOwner
	}
	return s.carts.DeleteLine(ctx, lineID)
}

func (s *Service) AddFavourite(ctx context.Context, userID, productID string) (domain.Outcome, error) {
	if productID == "" {
		return domain.OutcomeInvalidRequest, nil
	}

	if _, err := s.visibleProduct(ctx, productID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.OutcomeSomethingWrong, nil
		}
		return "", err
	}

	err := s.favs.AddFavourite(ctx, domain.Favourite{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProductID: productID,
		CreatedAt: s.now(),
	})
	if errors.Is(err, ports.ErrAlreadyFavourite) {
		return domain.OutcomeAlreadyInFavourite, nil
	}
	if err != nil {
		return "", err
	}
	return domain.OutcomeAddedToFavourite, nil
}

func (s *Service) Favourites(ctx context.Context, userID string) ([]FavouriteView, error) {
	favs, err := s.favs.Favourites(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(favs))
	for _, f := range favs {
		ids = append(ids, f.ProductID)
	}
	products, err := s.catalog.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]FavouriteView, 0, len(favs))
	for _, f := range favs {
		product, ok := products[f.ProductID]
		if !ok {
			continue
		}
		views = append(views, FavouriteView{
			ID:         f.ID,
			ProductID:  product.ID,
			Name:       product.Name,
			Image:      product.Image,
			PriceCents: product.SellingPriceCents,
		})
	}
	return views, nil
}

func (s *Service) RemoveFavourite(ctx context.Context, userID, favID string) error {
	fav, err := s.favs.FavouriteByID(ctx, favID)
	if err != nil {
		return err
	}
	if fav.UserID != userID {
		return ports.ErrNotOwner
	}
	return s.favs.DeleteFavourite(ctx, favID)
}

// BuyNow records a single-use selection and returns it; the token is passed to checkout and order placement.
func (s *Service) BuyNow(ctx context.Context, userID, productID string, qty int) (*domain.BuyNowSelection, error) {
	if qty <= 0 {
		return nil, ports.ErrInvalidQuantity
	}
	if _, err := s.visibleProduct(ctx, productID); err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.buyNow.PurgeExpired(ctx, userID, now); err != nil {
		return nil, err
	}

	sel := domain.BuyNowSelection{
		Token:     uuid.NewString(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
		ExpiresAt: now.Add(s.buyNowTTL),
		CreatedAt: now,
	}
	if err := s.buyNow.SaveSelection(ctx, sel); err != nil {
		return nil, err
	}
	return &sel, nil
}

// Selection returns a live selection owned by userID.
func (s *Service) Selection(ctx context.Context, userID, token string) (*domain.BuyNowSelection, error) {
	return s.buyNow.Selection(ctx, userID, token, s.now())
}

// Lines returns the raw cart lines, oldest first.
func (s *Service) Lines(ctx context.Context, userID string) ([]domain.Line, error) {
	return s.carts.Lines(ctx, userID)
}

func (s *Service) visibleProduct(ctx context.Context, productID string) (*catalogdomain.Product, error) {
	product, err := s.catalog.ProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.Visible {
		return nil, ports.ErrProductUnavailable
	}
	return product, nil
}

func lineProductIDs(lines []domain.Line) []string {
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	return ids
}
