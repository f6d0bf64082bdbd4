package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dejobratic/shopkart/internal/addresses/domain"
	"github.com/dejobratic/shopkart/internal/addresses/ports"
)

// Service manages a user's address book.
type Service struct {
	repo ports.AddressRepository
	now  func() time.Time
}

func NewService(repo ports.AddressRepository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// SaveInput creates an address, or updates the owned address named by ID.
type SaveInput struct {
	ID          string `json:"address_id"`
	FullName    string `json:"full_name"`
	Phone       string `json:"phone"`
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	State       string `json:"state"`
	Pincode     string `json:"pincode"`
}

func (s *Service) Save(ctx context.Context, userID string, in SaveInput) (*domain.Address, error) {
	address := domain.Address{
		UserID:      userID,
		FullName:    strings.TrimSpace(in.FullName),
		Phone:       strings.TrimSpace(in.Phone),
		AddressLine: strings.TrimSpace(in.AddressLine),
		City:        strings.TrimSpace(in.City),
		State:       strings.TrimSpace(in.State),
		Pincode:     strings.TrimSpace(in.Pincode),
	}
	if err := address.Validate(); err != nil {
		return nil, err
	}

	if id := strings.TrimSpace(in.ID); id != "" {
		existing, err := s.Get(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		address.ID = existing.ID
		address.CreatedAt = existing.CreatedAt
		if err := s.repo.Update(ctx, address); err != nil {
			return nil, err
		}
		return &address, nil
	}

	address.ID = uuid.NewString()
	address.CreatedAt = s.now()
	if err := s.repo.Create(ctx, address); err != nil {
		return nil, err
	}
	return &address, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]domain.Address, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get returns an address only to its owner.
func (s *Service) Get(ctx context.Context, userID, id string) (*domain.Address, error) {
	address, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if address.UserID != userID {
		return nil, ports.ErrNotOwner
	}
	return address, nil
}

// Delete removes an owned address; orders that referenced it keep an empty reference.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
