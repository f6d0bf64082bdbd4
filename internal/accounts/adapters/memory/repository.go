package memory

import (
	"context"
	"sync"

	"github.com/dejobratic/shopkart/internal/accounts/domain"
	"github.com/dejobratic/shopkart/internal/accounts/ports"
)

type Repository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewRepository() *Repository {
	return &Repository{users: make(map[string]domain.User)}
}

func (r *Repository) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username {
			return ports.ErrUsernameTaken
		}
	}
	r.users[user.ID] = user
	return nil
}

// SetStaff flips the staff flag, standing in for the out-of-band operator grant.
func (r *Repository) SetStaff(id string, staff bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ports.ErrUserNotFound
	}
	u.IsStaff = staff
	r.users[id] = u
	return nil
}

func (r *Repository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, ports.ErrUserNotFound
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ports.ErrUserNotFound
	}
	return &u, nil
}
