//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dejobratic/shopkart/internal/cart/adapters/postgres"
	"github.com/dejobratic/shopkart/internal/cart/domain"
	"github.com/dejobratic/shopkart/internal/cart/ports"
	"github.com/dejobratic/shopkart/internal/testutil/pgtest"
)

func seed(t *testing.T) *postgres.Repository {
	t.Helper()
	pool := pgtest.Setup(t)
	pgtest.SeedUser(t, pool, "u-1", "alice")
	pgtest.SeedUser(t, pool, "u-2", "bob")
	pgtest.SeedCategory(t, pool, "c-1", "Mugs", true)
	pgtest.SeedProduct(t, pool, pgtest.Product{ID: "p-1", CategoryID: "c-1", Name: "Mug", Quantity: 5, PriceCents: 100, Visible: true})
	return postgres.NewRepository(pool)
}

func TestRepositoryCartLines(t *testing.T) {
	repo := seed(t)
	ctx := context.Background()
	now := time.Now().UTC()

	line := domain.Line{ID: "l-1", UserID: "u-1", ProductID: "p-1", Quantity: 2, CreatedAt: now}
	if err := repo.AddLine(ctx, line); err != nil {
		t.Fatalf("AddLine() error = %v", err)
	}

	dup := domain.Line{ID: "l-2", UserID: "u-1", ProductID: "p-1", Quantity: 1, CreatedAt: now}
	if err := repo.AddLine(ctx, dup); !errors.Is(err, ports.ErrAlreadyInCart) {
		t.Errorf("expected ErrAlreadyInCart, got %v", err)
	}

	lines, err := repo.Lines(ctx, "u-1")
	if err != nil {
		t.Fatalf("Lines() error = %v", err)
	}
	if len(lines) != 1 || lines[0].Quantity != 2 {
		t.Errorf("unexpected lines %+v", lines)
	}

	if err := repo.DeleteLine(ctx, "l-1"); err != nil {
		t.Fatalf("DeleteLine() error = %v", err)
	}
	if _, err := repo.LineByID(ctx, "l-1"); !errors.Is(err, ports.ErrLineNotFound) {
		t.Errorf("expected ErrLineNotFound, got %v", err)
	}
}

func TestRepositoryFavourites(t *testing.T) {
	repo := seed(t)
	ctx := context.Background()

	fav := domain.Favourite{ID: "f-1", UserID: "u-1", ProductID: "p-1", CreatedAt: time.Now().UTC()}
	if err := repo.AddFavourite(ctx, fav); err != nil {
		t.Fatalf("AddFavourite() error = %v", err)
	}
	fav.ID = "f-2"
	if err := repo.AddFavourite(ctx, fav); !errors.Is(err, ports.ErrAlreadyFavourite) {
		t.Errorf("expected ErrAlreadyFavourite, got %v", err)
	}

	got, err := repo.FavouriteByID(ctx, "f-1")
	if err != nil {
		t.Fatalf("FavouriteByID() error = %v", err)
	}
	if got.UserID != "u-1" {
		t.Errorf("expected owner u-1, got %s", got.UserID)
	}
}

func TestRepositoryBuyNowSelections(t *testing.T) {
	repo := seed(t)
	ctx := context.Background()
	now := time.Now().UTC()

	live := domain.BuyNowSelection{Token: "t-live", UserID: "u-1", ProductID: "p-1", Quantity: 1,
		ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	stale := domain.BuyNowSelection{Token: "t-stale", UserID: "u-1", ProductID: "p-1", Quantity: 1,
		ExpiresAt: now.Add(-time.Minute), CreatedAt: now.Add(-time.Hour)}

	for _, sel := range []domain.BuyNowSelection{live, stale} {
		if err := repo.SaveSelection(ctx, sel); err != nil {
			t.Fatalf("SaveSelection() error = %v", err)
		}
	}

	if _, err := repo.Selection(ctx, "u-1", "t-live", now); err != nil {
		t.Errorf("expected live selection, got %v", err)
	}
	if _, err := repo.Selection(ctx, "u-2", "t-live", now); !errors.Is(err, ports.ErrSelectionNotFound) {
		t.Errorf("expected foreign token to be rejected, got %v", err)
	}
	if _, err := repo.Selection(ctx, "u-1", "t-stale", now); !errors.Is(err, ports.ErrSelectionNotFound) {
		t.Errorf("expected stale token to be rejected, got %v", err)
	}

	if err := repo.PurgeExpired(ctx, "u-1", now); err != nil {
		t.Fatalf("PurgeExpired() error = %v", err)
	}
	if _, err := repo.Selection(ctx, "u-1", "t-stale", now.Add(-2*time.Hour)); !errors.Is(err, ports.ErrSelectionNotFound) {
		t.Errorf("expected purged selection to be gone, got %v", err)
	}
}
