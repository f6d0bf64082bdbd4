package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	addressmemory "github.com/dejobratic/shopkart/internal/addresses/adapters/memory"
	addressdomain "github.com/dejobratic/shopkart/internal/addresses/domain"
	"github.com/dejobratic/shopkart/internal/apperrors"
	cartmemory "github.com/dejobratic/shopkart/internal/cart/adapters/memory"
	cartdomain "github.com/dejobratic/shopkart/internal/cart/domain"
	catalogmemory "github.com/dejobratic/shopkart/internal/catalog/adapters/memory"
	catalogdomain "github.com/dejobratic/shopkart/internal/catalog/domain"
	"github.com/dejobratic/shopkart/internal/orders/ports"
)

type checkoutStores struct {
	orders    *Repository
	catalog   *catalogmemory.Repository
	carts     *cartmemory.Repository
	addresses *addressmemory.Repository
	uow       *UnitOfWork
}

func newCheckoutStores(t *testing.T, stock int) checkoutStores {
	t.Helper()

	s := checkoutStores{
		orders:    NewRepository(),
		catalog:   catalogmemory.NewRepository(),
		carts:     cartmemory.NewRepository(),
		addresses: addressmemory.NewRepository(),
	}
	s.addresses.OnDelete(s.orders.ClearAddress)
	s.uow = NewUnitOfWork(s.orders, s.catalog, s.carts, s.addresses)

	s.catalog.PutProduct(catalogdomain.Product{
		ID: "p-1", CategoryID: "c-1", Name: "Mug", Quantity: stock,
		OriginalPriceCents: 1000, SellingPriceCents: 1000, Visible: true,
	})
	if err := s.addresses.Create(context.Background(), addressdomain.Address{ID: "a-1", UserID: "u-1"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := s.carts.AddLine(context.Background(), cartdomain.Line{ID: "l-1", UserID: "u-1", ProductID: "p-1", Quantity: 1}); err != nil {
		t.Fatalf("AddLine() error = %v", err)
	}
	return s
}

// placeOne stages a one-mug order against a-1; between runs after the address check.
func placeOne(ctx context.Context, tx ports.CheckoutTx, orderID string, between func()) error {
	owned, err := tx.AddressBelongsTo(ctx, "u-1", "a-1")
	if err != nil {
		return err
	}
	if !owned {
		return ports.ErrUnknownAddress
	}
	if between != nil {
		between()
	}
	if _, err := tx.LockProducts(ctx, []string{"p-1"}); err != nil {
		return err
	}
	if err := tx.DecrementStock(ctx, "p-1", 1); err != nil {
		return err
	}
	if err := tx.InsertOrder(ctx, placedOrder(orderID, "u-1", time.Now())); err != nil {
		return err
	}
	return tx.ClearCart(ctx, "u-1")
}

func TestUnitOfWorkRejectsAddressDeletedBeforeCommit(t *testing.T) {
	s := newCheckoutStores(t, 5)
	ctx := context.Background()

	err := s.uow.Do(ctx, func(ctx context.Context, tx ports.CheckoutTx) error {
		return placeOne(ctx, tx, "o-1", func() {
			if err := s.addresses.Delete(ctx, "a-1"); err != nil {
				t.Errorf("Delete() error = %v", err)
			}
		})
	})
	if !errors.Is(err, ports.ErrUnknownAddress) {
		t.Fatalf("expected ErrUnknownAddress, got %v", err)
	}

	if _, err := s.orders.GetByID(ctx, "o-1"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected no order, got %v", err)
	}
	product, _ := s.catalog.ProductByID(ctx, "p-1")
	if product.Quantity != 5 {
		t.Errorf("expected stock untouched, got %d", product.Quantity)
	}
	lines, _ := s.carts.Lines(ctx, "u-1")
	if len(lines) != 1 {
		t.Errorf("expected cart kept, got %d lines", len(lines))
	}
}

func TestUnitOfWorkNeverLeavesDanglingAddress(t *testing.T) {
	const placements = 20
	s := newCheckoutStores(t, placements)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < placements; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.uow.Do(ctx, func(ctx context.Context, tx ports.CheckoutTx) error {
				return placeOne(ctx, tx, fmt.Sprintf("o-%d", i), nil)
			})
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.addresses.Delete(ctx, "a-1"); err != nil {
			t.Errorf("Delete() error = %v", err)
		}
	}()
	wg.Wait()

	orders, err := s.orders.ListByUser(ctx, "u-1")
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	for _, o := range orders {
		if o.AddressID != "" {
			t.Errorf("order %s still references deleted address %s", o.ID, o.AddressID)
		}
	}
}

func TestUnitOfWorkFailedPlacementLeavesNothing(t *testing.T) {
	s := newCheckoutStores(t, 0)
	ctx := context.Background()

	err := s.uow.Do(ctx, func(ctx context.Context, tx ports.CheckoutTx) error {
		return placeOne(ctx, tx, "o-1", nil)
	})
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("expected a conflict, got %v", err)
	}
	if _, err := s.orders.GetByID(ctx, "o-1"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected no order, got %v", err)
	}
}
