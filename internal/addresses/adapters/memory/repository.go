package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dejobratic/shopkart/internal/addresses/domain"
	"github.com/dejobratic/shopkart/internal/addresses/ports"
)

type Repository struct {
	mu        sync.RWMutex
	addresses map[string]domain.Address
	onDelete  []func(id string)
}

func NewRepository() *Repository {
	return &Repository{addresses: make(map[string]domain.Address)}
}

// OnDelete registers a hook run after an address is removed, mirroring ON DELETE SET NULL.
func (r *Repository) OnDelete(fn func(id string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onDelete = append(r.onDelete, fn)
}

func (r *Repository) Create(_ context.Context, address domain.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addresses[address.ID] = address
	return nil
}

func (r *Repository) Update(_ context.Context, address domain.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.addresses[address.ID]; !ok {
		return ports.ErrNotFound
	}
	r.addresses[address.ID] = address
	return nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	address, ok := r.addresses[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &address, nil
}

// WhileExists runs fn with the address held, so Delete waits until fn returns.
func (r *Repository) WhileExists(id string, fn func() error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.addresses[id]; !ok {
		return ports.ErrNotFound
	}
	return fn()
}

func (r *Repository) ListByUser(_ context.Context, userID string) ([]domain.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Address
	for _, a := range r.addresses {
		if a.UserID == userID {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *Repository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	if _, ok := r.addresses[id]; !ok {
		r.mu.Unlock()
		return ports.ErrNotFound
	}
	delete(r.addresses, id)
	hooks := append([]func(string){}, r.onDelete...)
	r.mu.Unlock()

	for _, fn := range hooks {
		fn(id)
	}
	return nil
}
