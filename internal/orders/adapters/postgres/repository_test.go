//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	addressdomain "github.com/dejobratic/shopkart/internal/addresses/domain"
	"github.com/dejobratic/shopkart/internal/apperrors"
	"github.com/dejobratic/shopkart/internal/orders/adapters/postgres"
	"github.com/dejobratic/shopkart/internal/orders/app/commands"
	"github.com/dejobratic/shopkart/internal/orders/domain"
	"github.com/dejobratic/shopkart/internal/orders/ports"
	"github.com/dejobratic/shopkart/internal/testutil/pgtest"
)

type quietBus struct{}

func (quietBus) PublishOrderPlaced(context.Context, domain.Order) error    { return nil }
func (quietBus) PublishOrderCancelled(context.Context, domain.Order) error { return nil }
func (quietBus) PublishOrderStatusChanged(context.Context, domain.Order, domain.Status) error {
	return nil
}

// addressBook answers from the addresses table so ownership is checked against real rows.
type addressBook struct {
	pool *pgxpool.Pool
}

func (b addressBook) Get(ctx context.Context, userID, id string) (*addressdomain.Address, error) {
	var owner string
	err := b.pool.QueryRow(ctx, `SELECT user_id FROM addresses WHERE id = $1`, id).Scan(&owner)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrNotFound, "address not found")
	}
	if owner != userID {
		return nil, apperrors.New(apperrors.ErrForbidden, "address belongs to another user")
	}
	return &addressdomain.Address{ID: id, UserID: owner}, nil
}

func (b addressBook) List(context.Context, string) ([]addressdomain.Address, error) {
	return nil, nil
}

type fixture struct {
	pool   *pgxpool.Pool
	repo   *postgres.Repository
	handle *commands.PlaceOrderCommandHandler
}

func setup(t *testing.T) fixture {
	t.Helper()
	pool := pgtest.Setup(t)
	pgtest.SeedUser(t, pool, "u-1", "alice")
	pgtest.SeedUser(t, pool, "u-2", "bob")
	pgtest.SeedAddress(t, pool, "a-1", "u-1")
	pgtest.SeedAddress(t, pool, "a-2", "u-2")
	pgtest.SeedCategory(t, pool, "c-1", "Mugs", true)
	pgtest.SeedProduct(t, pool, pgtest.Product{ID: "p-1", CategoryID: "c-1", Name: "Mug", Quantity: 5, PriceCents: 25000, Visible: true})
	pgtest.SeedProduct(t, pool, pgtest.Product{ID: "p-2", CategoryID: "c-1", Name: "Teapot", Quantity: 1, PriceCents: 90000, Visible: true})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	placer := commands.NewPlacer(postgres.NewUnitOfWork(pool), addressBook{pool: pool}, quietBus{}, logger)

	return fixture{
		pool:   pool,
		repo:   postgres.NewRepository(pool),
		handle: commands.NewPlaceOrderCommandHandler(placer),
	}
}

func (f fixture) addToCart(t *testing.T, id, userID, productID string, qty int) {
	t.Helper()
	_, err := f.pool.Exec(context.Background(),
		`INSERT INTO cart_lines (id, user_id, product_id, quantity) VALUES ($1, $2, $3, $4)`,
		id, userID, productID, qty,
	)
	if err != nil {
		t.Fatalf("failed to seed cart line: %v", err)
	}
}

func (f fixture) count(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	if err := f.pool.QueryRow(context.Background(), query, args...).Scan(&n); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	return n
}

func (f fixture) stock(t *testing.T, productID string) int {
	return f.count(t, `SELECT quantity FROM products WHERE id = $1`, productID)
}

func TestPlaceCashOnDeliveryOrderFromCart(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.addToCart(t, "l-1", "u-1", "p-1", 2)
	f.addToCart(t, "l-2", "u-1", "p-2", 1)

	result, err := f.handle.Handle(ctx, commands.PlaceOrderCommand{
		UserID:      "u-1",
		AddressID:   "a-1",
		PaymentMode: "CASH_ON_DELIVERY",
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	order, err := f.repo.GetByID(ctx, result.Order.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if order.TotalCents != 2*25000+90000 {
		t.Errorf("unexpected total %d", order.TotalCents)
	}
	if order.Status != domain.StatusPlaced || order.PaymentStatus != domain.PaymentPending {
		t.Errorf("unexpected status %s / %s", order.Status, order.PaymentStatus)
	}
	if len(order.Items) != 2 || order.Items[0].ProductName != "Mug" || order.Items[1].ProductName != "Teapot" {
		t.Errorf("unexpected items %+v", order.Items)
	}
	if domain.ItemsTotal(order.Items) != order.TotalCents {
		t.Error("stored total does not match items")
	}

	if got := f.stock(t, "p-1"); got != 3 {
		t.Errorf("expected Mug stock 3, got %d", got)
	}
	if got := f.stock(t, "p-2"); got != 0 {
		t.Errorf("expected Teapot stock 0, got %d", got)
	}
	if got := f.count(t, `SELECT COUNT(*) FROM cart_lines WHERE user_id = 'u-1'`); got != 0 {
		t.Errorf("expected cart to be cleared, %d lines left", got)
	}
}

func TestPlaceOrderRollsBackOnStockShortfall(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.addToCart(t, "l-1", "u-1", "p-1", 2)
	f.addToCart(t, "l-2", "u-1", "p-2", 3)

	_, err := f.handle.Handle(ctx, commands.PlaceOrderCommand{UserID: "u-1", AddressID: "a-1", PaymentMode: "COD"})
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	if got := f.stock(t, "p-1"); got != 5 {
		t.Errorf("expected Mug stock untouched, got %d", got)
	}
	if got := f.count(t, `SELECT COUNT(*) FROM orders`); got != 0 {
		t.Errorf("expected no orders, got %d", got)
	}
	if got := f.count(t, `SELECT COUNT(*) FROM cart_lines WHERE user_id = 'u-1'`); got != 2 {
		t.Errorf("expected cart intact, got %d lines", got)
	}
}

func TestPlaceOrderConsumesBuyNowSelection(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.addToCart(t, "l-1", "u-1", "p-2", 1)
	_, err := f.pool.Exec(ctx, `
		INSERT INTO buy_now_selections (token, user_id, product_id, quantity, expires_at)
		VALUES ('tok-1', 'u-1', 'p-1', 3, $1)`, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("failed to seed selection: %v", err)
	}

	result, err := f.handle.Handle(ctx, commands.PlaceOrderCommand{
		UserID: "u-1", AddressID: "a-1", PaymentMode: "COD", BuyNowToken: "tok-1",
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if len(result.Order.Items) != 1 || result.Order.Items[0].Quantity != 3 {
		t.Errorf("expected a single buy-now item, got %+v", result.Order.Items)
	}

	if got := f.count(t, `SELECT COUNT(*) FROM buy_now_selections`); got != 0 {
		t.Errorf("expected selection to be consumed, %d left", got)
	}
	if got := f.count(t, `SELECT COUNT(*) FROM cart_lines WHERE user_id = 'u-1'`); got != 1 {
		t.Errorf("expected cart untouched, got %d lines", got)
	}

	_, err = f.handle.Handle(ctx, commands.PlaceOrderCommand{
		UserID: "u-1", AddressID: "a-1", PaymentMode: "COD", BuyNowToken: "tok-1",
	})
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected reused token to be NotFound, got %v", err)
	}
}

func TestConcurrentPurchasesOfLastUnit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.addToCart(t, "l-1", "u-1", "p-2", 1)
	f.addToCart(t, "l-2", "u-2", "p-2", 1)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, buyer := range []struct{ user, address string }{{"u-1", "a-1"}, {"u-2", "a-2"}} {
		wg.Add(1)
		go func(i int, user, address string) {
			defer wg.Done()
			_, errs[i] = f.handle.Handle(ctx, commands.PlaceOrderCommand{UserID: user, AddressID: address, PaymentMode: "COD"})
		}(i, buyer.user, buyer.address)
	}
	wg.Wait()

	var succeeded, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, apperrors.ErrConflict):
			conflicted++
		default:
			t.Errorf("unexpected error %v", err)
		}
	}
	if succeeded != 1 || conflicted != 1 {
		t.Errorf("expected one success and one conflict, got %d and %d", succeeded, conflicted)
	}
	if got := f.stock(t, "p-2"); got != 0 {
		t.Errorf("expected stock 0, got %d", got)
	}
}

func TestRepositoryStatusUpdatesAndListing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.addToCart(t, "l-1", "u-1", "p-1", 1)
	result, err := f.handle.Handle(ctx, commands.PlaceOrderCommand{UserID: "u-1", AddressID: "a-1", PaymentMode: "COD"})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	order := *result.Order

	now := time.Now().UTC().Truncate(time.Microsecond)
	if err := order.ApplyOperatorStatus(domain.StatusShipped, domain.PolicyStrict, now); err != nil {
		t.Fatalf("ApplyOperatorStatus() error = %v", err)
	}
	if err := f.repo.UpdateStatus(ctx, order, domain.StatusPlaced); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	stale := order
	stale.Status = domain.StatusCancelled
	if err := f.repo.UpdateStatus(ctx, stale, domain.StatusPlaced); !errors.Is(err, ports.ErrStatusChanged) {
		t.Errorf("expected ErrStatusChanged, got %v", err)
	}

	missing := order
	missing.ID = "nope"
	if err := f.repo.UpdateStatus(ctx, missing, domain.StatusShipped); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	stored, err := f.repo.GetByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Status != domain.StatusShipped || stored.ShippedAt == nil {
		t.Errorf("expected shipped order with timestamp, got %+v", stored)
	}

	shipped := domain.StatusShipped
	list, err := f.repo.List(ctx, ports.ListFilter{Status: &shipped})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 || len(list[0].Items) != 1 {
		t.Errorf("unexpected list %+v", list)
	}

	placed := domain.StatusPlaced
	list, err = f.repo.List(ctx, ports.ListFilter{Status: &placed})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected no placed orders, got %d", len(list))
	}

	mine, err := f.repo.ListByUser(ctx, "u-2")
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(mine) != 0 {
		t.Errorf("expected bob to have no orders, got %d", len(mine))
	}
}

func TestDeletedAddressIsDetachedFromOrders(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.addToCart(t, "l-1", "u-1", "p-1", 1)
	result, err := f.handle.Handle(ctx, commands.PlaceOrderCommand{UserID: "u-1", AddressID: "a-1", PaymentMode: "COD"})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if _, err := f.pool.Exec(ctx, `DELETE FROM addresses WHERE id = 'a-1'`); err != nil {
		t.Fatalf("delete address: %v", err)
	}

	stored, err := f.repo.GetByID(ctx, result.Order.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.AddressID != "" {
		t.Errorf("expected address to be detached, got %q", stored.AddressID)
	}
}
