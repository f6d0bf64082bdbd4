package commands_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	addressmemory "github.com/dejobratic/shopkart/internal/addresses/adapters/memory"
	addressapp "github.com/dejobratic/shopkart/internal/addresses/app"
	addressdomain "github.com/dejobratic/shopkart/internal/addresses/domain"
	cartmemory "github.com/dejobratic/shopkart/internal/cart/adapters/memory"
	cartdomain "github.com/dejobratic/shopkart/internal/cart/domain"
	catalogmemory "github.com/dejobratic/shopkart/internal/catalog/adapters/memory"
	catalogdomain "github.com/dejobratic/shopkart/internal/catalog/domain"
	ordersmemory "github.com/dejobratic/shopkart/internal/orders/adapters/memory"
	"github.com/dejobratic/shopkart/internal/orders/app/commands"
	"github.com/dejobratic/shopkart/internal/orders/domain"
	"github.com/dejobratic/shopkart/internal/orders/ports"
)

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type recordingBus struct {
	mu        sync.Mutex
	placed    []string
	cancelled []string
	changed   []string
	err       error
}

func (b *recordingBus) PublishOrderPlaced(_ context.Context, order domain.Order) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.placed = append(b.placed, order.ID)
	return b.err
}

func (b *recordingBus) PublishOrderCancelled(_ context.Context, order domain.Order) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancelled = append(b.cancelled, order.ID)
	return b.err
}

func (b *recordingBus) PublishOrderStatusChanged(_ context.Context, order domain.Order, from domain.Status) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.changed = append(b.changed, string(from)+"->"+string(order.Status))
	return b.err
}

type world struct {
	t         *testing.T
	catalog   *catalogmemory.Repository
	carts     *cartmemory.Repository
	addresses *addressmemory.Repository
	orders    *ordersmemory.Repository
	bus       *recordingBus
	placer    *commands.Placer
	logger    *slog.Logger
	added     int
}

func newWorld(t *testing.T) *world {
	t.Helper()

	w := &world{
		t:         t,
		catalog:   catalogmemory.NewRepository(),
		carts:     cartmemory.NewRepository(),
		addresses: addressmemory.NewRepository(),
		orders:    ordersmemory.NewRepository(),
		bus:       &recordingBus{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	w.addresses.OnDelete(w.orders.ClearAddress)

	w.catalog.PutCategory(catalogdomain.Category{ID: "c-1", Name: "Kitchen", Visible: true})
	w.putProduct("p-mug", "Mug", 5, 25000, true)
	w.putProduct("p-pot", "Teapot", 1, 90000, true)
	w.putProduct("p-old", "Old Jug", 3, 5000, false)

	w.addAddress("a-1", "u-1")
	w.addAddress("a-2", "u-2")

	uow := ordersmemory.NewUnitOfWork(w.orders, w.catalog, w.carts, w.addresses)
	w.placer = commands.NewPlacer(uow, addressapp.NewService(w.addresses), w.bus, w.logger).
		WithClock(func() time.Time { return fixedNow }).
		WithPreflight(cartSelections{carts: w.carts}, w.catalog)

	return w
}

// cartSelections reads the memory cart the way the storefront's selection adapter does.
type cartSelections struct {
	carts *cartmemory.Repository
}

func (s cartSelections) CartLines(ctx context.Context, userID string) ([]ports.Line, error) {
	lines, err := s.carts.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]ports.Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, ports.Line{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return out, nil
}

func (s cartSelections) BuyNow(ctx context.Context, userID, token string) (ports.Line, error) {
	sel, err := s.carts.Selection(ctx, userID, token, fixedNow)
	if err != nil {
		return ports.Line{}, err
	}
	return ports.Line{ProductID: sel.ProductID, Quantity: sel.Quantity}, nil
}

func (w *world) putProduct(id, name string, qty int, price int64, visible bool) {
	w.catalog.PutProduct(catalogdomain.Product{
		ID:                 id,
		CategoryID:         "c-1",
		Name:               name,
		Quantity:           qty,
		OriginalPriceCents: price,
		SellingPriceCents:  price,
		Visible:            visible,
	})
}

func (w *world) addAddress(id, userID string) {
	err := w.addresses.Create(context.Background(), addressdomain.Address{
		ID: id, UserID: userID, FullName: "Test User", Phone: "9999999999",
		AddressLine: "1 Main Road", City: "Pune", State: "MH", Pincode: "411001",
	})
	require.NoError(w.t, err)
}

func (w *world) addToCart(userID, productID string, qty int) {
	w.added++
	err := w.carts.AddLine(context.Background(), cartdomain.Line{
		ID: uuid.NewString(), UserID: userID, ProductID: productID, Quantity: qty, CreatedAt: fixedNow.Add(time.Duration(w.added) * time.Second),
	})
	require.NoError(w.t, err)
}

func (w *world) buyNow(userID, productID string, qty int, expiresAt time.Time) string {
	token := uuid.NewString()
	err := w.carts.SaveSelection(context.Background(), cartdomain.BuyNowSelection{
		Token: token, UserID: userID, ProductID: productID, Quantity: qty, ExpiresAt: expiresAt, CreatedAt: fixedNow,
	})
	require.NoError(w.t, err)
	return token
}

func (w *world) stock(productID string) int {
	p, err := w.catalog.ProductByID(context.Background(), productID)
	require.NoError(w.t, err)
	return p.Quantity
}

func (w *world) cartSize(userID string) int {
	lines, err := w.carts.Lines(context.Background(), userID)
	require.NoError(w.t, err)
	return len(lines)
}

func (w *world) orderCount(userID string) int {
	orders, err := w.orders.ListByUser(context.Background(), userID)
	require.NoError(w.t, err)
	return len(orders)
}

func (w *world) seedOrder(id, userID string, status domain.Status) domain.Order {
	order := domain.Order{
		ID:            id,
		UserID:        userID,
		AddressID:     "a-1",
		TotalCents:    25000,
		PaymentMode:   domain.PaymentCashOnDelivery,
		PaymentStatus: domain.PaymentPending,
		Status:        status,
		Items:         []domain.Item{{ID: "i-" + id, ProductID: "p-mug", ProductName: "Mug", Quantity: 1, PriceCents: 25000}},
		CreatedAt:     fixedNow,
		UpdatedAt:     fixedNow,
		PlacedAt:      fixedNow,
	}
	w.orders.Insert(order)
	return order
}

var errBroker = errors.New("broker unavailable")
