package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dejobratic/shopkart/internal/accounts/domain"
	"github.com/dejobratic/shopkart/internal/accounts/ports"
	"github.com/dejobratic/shopkart/internal/apperrors"
	"github.com/dejobratic/shopkart/internal/auth"
)

const minPasswordLength = 8

type Service struct {
	users  ports.UserRepository
	tokens ports.TokenIssuer
	cost   int
}

func NewService(users ports.UserRepository, tokens ports.TokenIssuer) *Service {
	return &Service{users: users, tokens: tokens, cost: bcrypt.DefaultCost}
}

// WithHashCost lowers the bcrypt cost, which keeps tests fast.
func (s *Service) WithHashCost(cost int) *Service {
	s.cost = cost
	return s
}

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Session struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)

	switch {
	case username == "":
		return nil, apperrors.Validation("username is required")
	case email == "" || !strings.Contains(email, "@"):
		return nil, apperrors.Validation("a valid email is required")
	case len(in.Password) < minPasswordLength:
		return nil, apperrors.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login checks credentials and issues a bearer token. Unknown users and wrong passwords look the same.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ports.ErrUserNotFound) {
			return nil, ports.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ports.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(auth.Identity{UserID: user.ID, Username: user.Username, IsStaff: user.IsStaff})
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: *user}, nil
}

// Username resolves a user id for display, e.g. on invoices.
func (s *Service) Username(ctx context.Context, userID string) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Username, nil
}
