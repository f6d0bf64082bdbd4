package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dejobratic/shopkart/internal/cart/domain"
	"github.com/dejobratic/shopkart/internal/cart/ports"
)

// Repository keeps carts, favourites and buy-now selections in memory.
type Repository struct {
	mu         sync.RWMutex
	lines      map[string]domain.Line
	favourites map[string]domain.Favourite
	selections map[string]domain.BuyNowSelection
}

func NewRepository() *Repository {
	return &Repository{
		lines:      make(map[string]domain.Line),
		favourites: make(map[string]domain.Favourite),
		selections: make(map[string]domain.BuyNowSelection),
	}
}

func (r *Repository) AddLine(_ context.Context, line domain.Line) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.lines {
		if existing.UserID == line.UserID && existing.ProductID == line.ProductID {
			return ports.ErrAlreadyInCart
		}
	}
	r.lines[line.ID] = line
	return nil
}

func (r *Repository) Lines(_ context.Context, userID string) ([]domain.Line, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Line
	for _, line := range r.lines {
		if line.UserID == userID {
			result = append(result, line)
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

func (r *Repository) LineByID(_ context.Context, id string) (*domain.Line, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	line, ok := r.lines[id]
	if !ok {
		return nil, ports.ErrLineNotFound
	}
	return &line, nil
}

func (r *Repository) DeleteLine(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.lines[id]; !ok {
		return ports.ErrLineNotFound
	}
	delete(r.lines, id)
	return nil
}

// ClearLines removes every cart line owned by userID.
func (r *Repository) ClearLines(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, line := range r.lines {
		if line.UserID == userID {
			delete(r.lines, id)
		}
	}
}

func (r *Repository) AddFavourite(_ context.Context, fav domain.Favourite) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.favourites {
		if existing.UserID == fav.UserID && existing.ProductID == fav.ProductID {
			return ports.ErrAlreadyFavourite
		}
	}
	r.favourites[fav.ID] = fav
	return nil
}

func (r *Repository) Favourites(_ context.Context, userID string) ([]domain.Favourite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Favourite
	for _, fav := range r.favourites {
		if fav.UserID == userID {
			result = append(result, fav)
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

func (r *Repository) FavouriteByID(_ context.Context, id string) (*domain.Favourite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fav, ok := r.favourites[id]
	if !ok {
		return nil, ports.ErrFavouriteNotFound
	}
	return &fav, nil
}

func (r *Repository) DeleteFavourite(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.favourites[id]; !ok {
		return ports.ErrFavouriteNotFound
	}
	delete(r.favourites, id)
	return nil
}

func (r *Repository) SaveSelection(_ context.Context, sel domain.BuyNowSelection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selections[sel.Token] = sel
	return nil
}

func (r *Repository) Selection(_ context.Context, userID, token string, now time.Time) (*domain.BuyNowSelection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sel, ok := r.selections[token]
	if !ok || sel.UserID != userID || sel.Expired(now) {
		return nil, ports.ErrSelectionNotFound
	}
	return &sel, nil
}

func (r *Repository) PurgeExpired(_ context.Context, userID string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for token, sel := range r.selections {
		if sel.UserID == userID && sel.Expired(now) {
			delete(r.selections, token)
		}
	}
	return nil
}

// ConsumeSelection deletes a live selection owned by userID.
func (r *Repository) ConsumeSelection(userID, token string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sel, ok := r.selections[token]
	if !ok || sel.UserID != userID || sel.Expired(now) {
		return ports.ErrSelectionNotFound
	}
	delete(r.selections, token)
	return nil
}
