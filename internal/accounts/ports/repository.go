package ports

import (
	"context"

	"github.com/dejobratic/shopkart/internal/accounts/domain"
	"github.com/dejobratic/shopkart/internal/apperrors"
	"github.com/dejobratic/shopkart/internal/auth"
)

// UserRepository reports ErrUsernameTaken from Create when the username already exists.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type TokenIssuer interface {
	Issue(id auth.Identity) (string, error)
}

var (
	ErrUserNotFound       = apperrors.New(apperrors.ErrNotFound, "user not found")
	ErrUsernameTaken      = apperrors.New(apperrors.ErrConflict, "username already taken")
	ErrInvalidCredentials = apperrors.New(apperrors.ErrUnauthorized, "invalid username or password")
)
