package ports

import (
	"context"

	"github.com/dejobratic/shopkart/internal/invoice"
	"github.com/dejobratic/shopkart/internal/orders/domain"
)

// EventBus announces committed order changes.
type EventBus interface {
	PublishOrderPlaced(ctx context.Context, order domain.Order) error
	PublishOrderCancelled(ctx context.Context, order domain.Order) error
	PublishOrderStatusChanged(ctx context.Context, order domain.Order, from domain.Status) error
}

type InvoiceRenderer interface {
	Render(doc invoice.Document) ([]byte, error)
}

// StoredResponse contains the response data to replay for a reused key.
// A zero StatusCode marks a claim whose first request has not finished yet.
type StoredResponse struct {
	StatusCode int
	Body       []byte
	OrderID    string
}

func (r StoredResponse) Pending() bool {
	return r.StatusCode == 0
}

// IdempotencyStore lets order placement be retried safely.
type IdempotencyStore interface {
	// Reserve claims key for the caller and returns nil, or returns the live entry another request holds.
	Reserve(ctx context.Context, key string) (*StoredResponse, error)
	Get(ctx context.Context, key string) (*StoredResponse, error)
	// Save completes a claim. A finished response is never overwritten while it is live.
	Save(ctx context.Context, key string, response StoredResponse) error
	// Release drops an unfinished claim so the key can be retried.
	Release(ctx context.Context, key string) error
}
