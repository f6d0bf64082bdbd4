package ports

import (
	"context"
	"time"

	addressdomain "github.com/dejobratic/shopkart/internal/addresses/domain"
	catalogdomain "github.com/dejobratic/shopkart/internal/catalog/domain"
	"github.com/dejobratic/shopkart/internal/orders/domain"
)

// Line is a product and quantity about to be bought.
type Line struct {
	ProductID string
	Quantity  int
}

// CheckoutTx is the set of reads and writes order placement performs atomically.
type CheckoutTx interface {
	// TakeBuyNow consumes a live selection owned by userID; unknown, foreign or expired tokens are NotFound.
	TakeBuyNow(ctx context.Context, userID, token string, now time.Time) (Line, error)
	CartLines(ctx context.Context, userID string) ([]Line, error)
	AddressBelongsTo(ctx context.Context, userID, addressID string) (bool, error)
	// LockProducts returns the products keyed by id and holds them until the unit of work ends.
	LockProducts(ctx context.Context, ids []string) (map[string]catalogdomain.Product, error)
	InsertOrder(ctx context.Context, order domain.Order) error
	// DecrementStock fails with Conflict instead of taking quantity below zero.
	DecrementStock(ctx context.Context, productID string, qty int) error
	ClearCart(ctx context.Context, userID string) error
}

// UnitOfWork runs fn atomically: every write made through tx commits together or not at all.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx CheckoutTx) error) error
}

// SelectionReader previews what checkout would buy without consuming anything.
type SelectionReader interface {
	CartLines(ctx context.Context, userID string) ([]Line, error)
	BuyNow(ctx context.Context, userID, token string) (Line, error)
}

type ProductCatalog interface {
	ProductsByIDs(ctx context.Context, ids []string) (map[string]catalogdomain.Product, error)
}

// AddressBook returns owned addresses; foreign ids are Forbidden.
type AddressBook interface {
	Get(ctx context.Context, userID, id string) (*addressdomain.Address, error)
	List(ctx context.Context, userID string) ([]addressdomain.Address, error)
}

type UserDirectory interface {
	Username(ctx context.Context, userID string) (string, error)
}
