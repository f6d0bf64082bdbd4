package ports

import (
	"context"

	"github.com/dejobratic/shopkart/internal/apperrors"
	"github.com/dejobratic/shopkart/internal/orders/domain"
)

// OrderRepository reads orders with their items and applies status changes.
type OrderRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Order, error)
	// UpdateStatus persists order's status and timestamps only while the stored status is still from.
	UpdateStatus(ctx context.Context, order domain.Order, from domain.Status) error
}

// ListFilter narrows operator list queries by status and pagination.
type ListFilter struct {
	Status   *domain.Status
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize fills in defaults and clamps the page size.
func (f ListFilter) Normalize() ListFilter {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	return f
}

func (f ListFilter) Offset() int {
	n := f.Normalize()
	return (n.Page - 1) * n.PageSize
}

var (
	ErrNotFound       = apperrors.New(apperrors.ErrNotFound, "order not found")
	ErrNotOwner       = apperrors.New(apperrors.ErrForbidden, "order belongs to another user")
	ErrStatusChanged  = apperrors.New(apperrors.ErrConflict, "order status changed concurrently, reload and retry")
	ErrEmptyCart      = apperrors.Validation("cart is empty")
	ErrAddressMissing = apperrors.Validation("address_id is required")
	ErrUnknownAddress = apperrors.New(apperrors.ErrNotFound, "address not found")

	ErrRequestInProgress = apperrors.New(apperrors.ErrConflict, "a request with this Idempotency-Key is still being processed")
)
