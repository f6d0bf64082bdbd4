package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dejobratic/shopkart/internal/orders/domain"
	"github.com/dejobratic/shopkart/internal/orders/ports"
)

// Repository provides an in-memory store useful for local development and tests.
type Repository struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
}

// NewRepository constructs a new in-memory repository.
func NewRepository() *Repository {
	return &Repository{orders: make(map[string]domain.Order)}
}

// Insert stores a new order. Orders enter the store through the unit of work.
func (r *Repository) Insert(order domain.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = clone(order)
}

// ClearAddress detaches a deleted address from every order that referenced it.
func (r *Repository) ClearAddress(addressID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, order := range r.orders {
		if order.AddressID == addressID {
			order.AddressID = ""
			r.orders[id] = order
		}
	}
}

// GetByID fetches a single order by identifier.
func (r *Repository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	found := clone(order)
	return &found, nil
}

func (r *Repository) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []domain.Order{}
	for _, order := range r.orders {
		if order.UserID == userID {
			result = append(result, clone(order))
		}
	}
	newestFirst(result)
	return result, nil
}

// List returns orders respecting the provided filter. Pagination is 1-based.
func (r *Repository) List(_ context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Order
	for _, order := range r.orders {
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		result = append(result, order)
	}
	newestFirst(result)

	filter = filter.Normalize()
	start := filter.Offset()
	if start >= len(result) {
		return []domain.Order{}, nil
	}

	end := start + filter.PageSize
	if end > len(result) {
		end = len(result)
	}

	slice := make([]domain.Order, 0, end-start)
	for _, order := range result[start:end] {
		slice = append(slice, clone(order))
	}
	return slice, nil
}

// UpdateStatus writes the new status and timestamps while the stored status still equals from.
func (r *Repository) UpdateStatus(_ context.Context, order domain.Order, from domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[order.ID]
	if !ok {
		return ports.ErrNotFound
	}
	if stored.Status != from {
		return ports.ErrStatusChanged
	}

	stored.Status = order.Status
	stored.UpdatedAt = order.UpdatedAt
	stored.ShippedAt = order.ShippedAt
	stored.OutForDeliveryAt = order.OutForDeliveryAt
	stored.DeliveredAt = order.DeliveredAt
	stored.CancelledAt = order.CancelledAt
	r.orders[order.ID] = stored
	return nil
}

func newestFirst(orders []domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

func clone(order domain.Order) domain.Order {
	order.Items = append([]domain.Item(nil), order.Items...)
	return order
}
