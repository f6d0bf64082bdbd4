package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	addressmemory "github.com/dejobratic/shopkart/internal/addresses/adapters/memory"
	addressports "github.com/dejobratic/shopkart/internal/addresses/ports"
	"github.com/dejobratic/shopkart/internal/apperrors"
	cartmemory "github.com/dejobratic/shopkart/internal/cart/adapters/memory"
	catalogmemory "github.com/dejobratic/shopkart/internal/catalog/adapters/memory"
	catalogdomain "github.com/dejobratic/shopkart/internal/catalog/domain"
	"github.com/dejobratic/shopkart/internal/orders/domain"
	"github.com/dejobratic/shopkart/internal/orders/ports"
)

// UnitOfWork serializes order placement over the in-memory stores. Writes are staged
// and only applied once fn succeeds, so a failed placement leaves nothing behind.
type UnitOfWork struct {
	mu        sync.Mutex
	orders    *Repository
	catalog   *catalogmemory.Repository
	carts     *cartmemory.Repository
	addresses *addressmemory.Repository
}

func NewUnitOfWork(orders *Repository, catalog *catalogmemory.Repository, carts *cartmemory.Repository, addresses *addressmemory.Repository) *UnitOfWork {
	return &UnitOfWork{orders: orders, catalog: catalog, carts: carts, addresses: addresses}
}

func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, tx ports.CheckoutTx) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	tx := &checkoutTx{uow: u, stock: make(map[string]int)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.apply()
}

type consumedSelection struct {
	userID string
	token  string
	now    time.Time
}

type checkoutTx struct {
	uow       *UnitOfWork
	products  map[string]catalogdomain.Product
	stock     map[string]int
	order     *domain.Order
	selection *consumedSelection
	clearCart string
	address   string
}

func (t *checkoutTx) TakeBuyNow(ctx context.Context, userID, token string, now time.Time) (ports.Line, error) {
	sel, err := t.uow.carts.Selection(ctx, userID, token, now)
	if err != nil {
		return ports.Line{}, err
	}
	t.selection = &consumedSelection{userID: userID, token: token, now: now}
	return ports.Line{ProductID: sel.ProductID, Quantity: sel.Quantity}, nil
}

func (t *checkoutTx) CartLines(ctx context.Context, userID string) ([]ports.Line, error) {
	lines, err := t.uow.carts.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := make([]ports.Line, 0, len(lines))
	for _, l := range lines {
		result = append(result, ports.Line{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return result, nil
}

func (t *checkoutTx) AddressBelongsTo(ctx context.Context, userID, addressID string) (bool, error) {
	address, err := t.uow.addresses.GetByID(ctx, addressID)
	if err != nil {
		if errors.Is(err, addressports.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if address.UserID != userID {
		return false, nil
	}
	t.address = addressID
	return true, nil
}

func (t *checkoutTx) LockProducts(ctx context.Context, ids []string) (map[string]catalogdomain.Product, error) {
	products, err := t.uow.catalog.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	t.products = products
	return products, nil
}

func (t *checkoutTx) InsertOrder(_ context.Context, order domain.Order) error {
	t.order = &order
	return nil
}

func (t *checkoutTx) DecrementStock(_ context.Context, productID string, qty int) error {
	product, ok := t.products[productID]
	if !ok {
		return fmt.Errorf("decrement stock of unlocked product %s", productID)
	}
	if product.Quantity-t.stock[productID]-qty < 0 {
		return apperrors.Newf(apperrors.ErrConflict, "insufficient stock for %s", product.Name)
	}
	t.stock[productID] += qty
	return nil
}

func (t *checkoutTx) ClearCart(_ context.Context, userID string) error {
	t.clearCart = userID
	return nil
}

// apply runs under the unit of work lock with the checked address held, so a
// concurrent address delete either fails the placement or clears the new order.
func (t *checkoutTx) apply() error {
	if t.address == "" {
		return t.write()
	}
	err := t.uow.addresses.WhileExists(t.address, t.write)
	if errors.Is(err, addressports.ErrNotFound) {
		return ports.ErrUnknownAddress
	}
	return err
}

func (t *checkoutTx) write() error {
	if t.selection != nil {
		if err := t.uow.carts.ConsumeSelection(t.selection.userID, t.selection.token, t.selection.now); err != nil {
			return err
		}
	}
	for productID, qty := range t.stock {
		if err := t.uow.catalog.AdjustQuantity(productID, -qty); err != nil {
			return err
		}
	}
	if t.order != nil {
		t.uow.orders.Insert(*t.order)
	}
	if t.clearCart != "" {
		t.uow.carts.ClearLines(t.clearCart)
	}
	return nil
}
