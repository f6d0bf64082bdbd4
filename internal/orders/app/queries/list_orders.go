package queries

import (
	"context"

	"github.com/dejobratic/shopkart/internal/orders/domain"
	"github.com/dejobratic/shopkart/internal/orders/ports"
)

type ListOrdersQueryHandler struct {
	repo ports.OrderRepository
}

func NewListOrdersQueryHandler(repo ports.OrderRepository) *ListOrdersQueryHandler {
	return &ListOrdersQueryHandler{repo: repo}
}

// Mine returns the user's orders newest first, items included.
func (h *ListOrdersQueryHandler) Mine(ctx context.Context, userID string) ([]domain.Order, error) {
	return h.repo.ListByUser(ctx, userID)
}

// All is the operator listing.
func (h *ListOrdersQueryHandler) All(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	if filter.Status != nil {
		switch *filter.Status {
		case domain.StatusPlaced, domain.StatusShipped, domain.StatusOutForDelivery, domain.StatusDelivered, domain.StatusCancelled:
		default:
			return nil, domain.ErrInvalidStatus
		}
	}
	return h.repo.List(ctx, filter.Normalize())
}
