package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejobratic/shopkart/internal/apperrors"
	"github.com/dejobratic/shopkart/internal/cart/adapters/memory"
	"github.com/dejobratic/shopkart/internal/cart/app"
	"github.com/dejobratic/shopkart/internal/cart/domain"
	"github.com/dejobratic/shopkart/internal/cart/ports"
	catalogmemory "github.com/dejobratic/shopkart/internal/catalog/adapters/memory"
	catalogdomain "github.com/dejobratic/shopkart/internal/catalog/domain"
)

type fixture struct {
	svc     *app.Service
	repo    *memory.Repository
	catalog *catalogmemory.Repository
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:    memory.NewRepository(),
		catalog: catalogmemory.NewRepository(),
		now:     time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	f.catalog.PutCategory(catalogdomain.Category{ID: "c-1", Name: "Mugs", Visible: true})
	f.catalog.PutProduct(catalogdomain.Product{ID: "p-mug", CategoryID: "c-1", Name: "Mug", Quantity: 5,
		SellingPriceCents: 10000, OriginalPriceCents: 12000, Visible: true})
	f.catalog.PutProduct(catalogdomain.Product{ID: "p-plate", CategoryID: "c-1", Name: "Plate", Quantity: 1,
		SellingPriceCents: 2500, Visible: true})
	f.catalog.PutProduct(catalogdomain.Product{ID: "p-hidden", CategoryID: "c-1", Name: "Hidden", Quantity: 9,
		SellingPriceCents: 100, Visible: false})

	f.svc = app.NewService(f.repo, f.repo, f.repo, f.catalog, 30*time.Minute,
		app.WithClock(func() time.Time { return f.now }))
	return f
}

func TestAddToCartOutcomes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	outcome, err := f.svc.AddToCart(ctx, "u-1", "p-mug", 2)
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeAddedToCart, outcome)

	tests := []struct {
		name      string
		productID string
		qty       int
		want      domain.Outcome
	}{
		{"duplicate product", "p-mug", 1, domain.OutcomeAlreadyInCart},
		{"not enough stock", "p-plate", 2, domain.OutcomeStockNotAvailable},
		{"unknown product", "p-missing", 1, domain.OutcomeSomethingWrong},
		{"hidden product", "p-hidden", 1, domain.OutcomeSomethingWrong},
		{"zero quantity", "p-plate", 0, domain.OutcomeInvalidRequest},
		{"missing product id", "", 1, domain.OutcomeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := f.svc.AddToCart(ctx, "u-1", tt.productID, tt.qty)
			require.NoError(t, err)
			assert.Equal(t, tt.want, outcome)
		})
	}
}

func TestCartViewTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddToCart(ctx, "u-1", "p-mug", 2)
	require.NoError(t, err)
	f.now = f.now.Add(time.Second)
	_, err = f.svc.AddToCart(ctx, "u-1", "p-plate", 1)
	require.NoError(t, err)
	_, err = f.svc.AddToCart(ctx, "u-2", "p-plate", 1)
	require.NoError(t, err)

	view, err := f.svc.Cart(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, view.Lines, 2)
	assert.Equal(t, "Mug", view.Lines[0].Name)
	assert.Equal(t, int64(20000), view.Lines[0].LineTotalCents)
	assert.Equal(t, int64(22500), view.TotalCents)
	assert.True(t, view.Lines[1].InStock)
}

func TestRemoveCartLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddToCart(ctx, "u-1", "p-mug", 1)
	require.NoError(t, err)
	lines, err := f.svc.Lines(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, lines, 1)

	err = f.svc.RemoveCartLine(ctx, "u-2", lines[0].ID)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))

	require.NoError(t, f.svc.RemoveCartLine(ctx, "u-1", lines[0].ID))

	err = f.svc.RemoveCartLine(ctx, "u-1", lines[0].ID)
	assert.True(t, errors.Is(err, ports.ErrLineNotFound))
}

func TestFavourites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	outcome, err := f.svc.AddFavourite(ctx, "u-1", "p-mug")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAddedToFavourite, outcome)

	outcome, err = f.svc.AddFavourite(ctx, "u-1", "p-mug")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAlreadyInFavourite, outcome)

	outcome, err = f.svc.AddFavourite(ctx, "u-1", "p-missing")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSomethingWrong, outcome)

	favs, err := f.svc.Favourites(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, int64(10000), favs[0].PriceCents)

	assert.True(t, errors.Is(f.svc.RemoveFavourite(ctx, "u-2", favs[0].ID), apperrors.ErrForbidden))
	require.NoError(t, f.svc.RemoveFavourite(ctx, "u-1", favs[0].ID))

	favs, err = f.svc.Favourites(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, favs)
}

func TestBuyNow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("rejects unknown and hidden products", func(t *testing.T) {
		_, err := f.svc.BuyNow(ctx, "u-1", "p-missing", 1)
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))

		_, err = f.svc.BuyNow(ctx, "u-1", "p-hidden", 1)
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("rejects non positive quantity", func(t *testing.T) {
		_, err := f.svc.BuyNow(ctx, "u-1", "p-mug", 0)
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	})

	t.Run("selection is scoped to its owner and expires", func(t *testing.T) {
		sel, err := f.svc.BuyNow(ctx, "u-1", "p-mug", 1)
		require.NoError(t, err)
		assert.Equal(t, f.now.Add(30*time.Minute), sel.ExpiresAt)

		got, err := f.svc.Selection(ctx, "u-1", sel.Token)
		require.NoError(t, err)
		assert.Equal(t, "p-mug", got.ProductID)

		_, err = f.svc.Selection(ctx, "u-2", sel.Token)
		assert.True(t, errors.Is(err, ports.ErrSelectionNotFound))

		f.now = f.now.Add(31 * time.Minute)
		_, err = f.svc.Selection(ctx, "u-1", sel.Token)
		assert.True(t, errors.Is(err, ports.ErrSelectionNotFound))
	})

	t.Run("new selection purges expired ones", func(t *testing.T) {
		old, err := f.svc.BuyNow(ctx, "u-3", "p-mug", 1)
		require.NoError(t, err)

		f.now = f.now.Add(time.Hour)
		_, err = f.svc.BuyNow(ctx, "u-3", "p-plate", 1)
		require.NoError(t, err)

		require.Error(t, f.repo.ConsumeSelection("u-3", old.Token, f.now.Add(-2*time.Hour)))
	})
}
