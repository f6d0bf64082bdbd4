package ports

import (
	"context"
	"time"

	"github.com/dejobratic/shopkart/internal/apperrors"
	"github.com/dejobratic/shopkart/internal/cart/domain"
	catalogdomain "github.com/dejobratic/shopkart/internal/catalog/domain"
)

// CartRepository persists cart lines. AddLine reports ErrAlreadyInCart when the user already holds the product.
type CartRepository interface {
	AddLine(ctx context.Context, line domain.Line) error
	Lines(ctx context.Context, userID string) ([]domain.Line, error)
	LineByID(ctx context.Context, id string) (*domain.Line, error)
	DeleteLine(ctx context.Context, id string) error
}

// FavouriteRepository persists favourites. Add reports ErrAlreadyFavourite on duplicates.
type FavouriteRepository interface {
	AddFavourite(ctx context.Context, fav domain.Favourite) error
	Favourites(ctx context.Context, userID string) ([]domain.Favourite, error)
	FavouriteByID(ctx context.Context, id string) (*domain.Favourite, error)
	DeleteFavourite(ctx context.Context, id string) error
}

// BuyNowRepository stores pending buy-now selections until an order consumes them.
type BuyNowRepository interface {
	SaveSelection(ctx context.Context, sel domain.BuyNowSelection) error
	// Selection returns a live selection owned by userID; expired and foreign tokens are ErrSelectionNotFound.
	Selection(ctx context.Context, userID, token string, now time.Time) (*domain.BuyNowSelection, error)
	PurgeExpired(ctx context.Context, userID string, now time.Time) error
}

// ProductCatalog is the slice of the catalog the cart needs.
type ProductCatalog interface {
	ProductByID(ctx context.Context, id string) (*catalogdomain.Product, error)
	ProductsByIDs(ctx context.Context, ids []string) (map[string]catalogdomain.Product, error)
}

var (
	ErrLineNotFound       = apperrors.New(apperrors.ErrNotFound, "cart item not found")
	ErrFavouriteNotFound  = apperrors.New(apperrors.ErrNotFound, "favourite not found")
	ErrSelectionNotFound  = apperrors.New(apperrors.ErrNotFound, "buy now selection not found or expired")
	ErrAlreadyInCart      = apperrors.New(apperrors.ErrConflict, "product already in cart")
	ErrAlreadyFavourite   = apperrors.New(apperrors.ErrConflict, "product already in favourites")
	ErrNotOwner           = apperrors.New(apperrors.ErrForbidden, "item belongs to another user")
	ErrInvalidQuantity    = apperrors.Validation("quantity must be positive")
	ErrProductUnavailable = apperrors.New(apperrors.ErrNotFound, "product not found")
)
