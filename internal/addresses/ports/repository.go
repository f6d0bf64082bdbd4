package ports

import (
	"context"

	"github.com/dejobratic/shopkart/internal/addresses/domain"
	"github.com/dejobratic/shopkart/internal/apperrors"
)

type AddressRepository interface {
	Create(ctx context.Context, address domain.Address) error
	Update(ctx context.Context, address domain.Address) error
	GetByID(ctx context.Context, id string) (*domain.Address, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Address, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrNotFound = apperrors.New(apperrors.ErrNotFound, "address not found")
	ErrNotOwner = apperrors.New(apperrors.ErrForbidden, "address belongs to another user")
)
