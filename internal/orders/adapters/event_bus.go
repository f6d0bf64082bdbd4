package adapters

import (
	"context"
	"time"

	"github.com/dejobratic/shopkart/internal/events"
	"github.com/dejobratic/shopkart/internal/orders/domain"
)

const (
	RoutingKeyOrderPlaced        = "order.placed"
	RoutingKeyOrderCancelled     = "order.cancelled"
	RoutingKeyOrderStatusChanged = "order.status_changed"
)

// OrderEvent is the message body of every order event.
type OrderEvent struct {
	OrderID        string               `json:"order_id"`
	UserID         string               `json:"user_id"`
	Status         domain.Status        `json:"status"`
	PreviousStatus domain.Status        `json:"previous_status,omitempty"`
	PaymentMode    domain.PaymentMode   `json:"payment_mode"`
	PaymentStatus  domain.PaymentStatus `json:"payment_status"`
	TotalCents     int64                `json:"total_cents"`
	ItemCount      int                  `json:"item_count"`
	OccurredAt     time.Time            `json:"occurred_at"`
}

// EventBus maps order changes onto broker messages.
type EventBus struct {
	publisher events.Publisher
}

func NewEventBus(publisher events.Publisher) *EventBus {
	return &EventBus{publisher: publisher}
}

func (b *EventBus) PublishOrderPlaced(ctx context.Context, order domain.Order) error {
	return b.publisher.Publish(ctx, RoutingKeyOrderPlaced, newOrderEvent(order, ""))
}

func (b *EventBus) PublishOrderCancelled(ctx context.Context, order domain.Order) error {
	return b.publisher.Publish(ctx, RoutingKeyOrderCancelled, newOrderEvent(order, domain.StatusPlaced))
}

func (b *EventBus) PublishOrderStatusChanged(ctx context.Context, order domain.Order, from domain.Status) error {
	return b.publisher.Publish(ctx, RoutingKeyOrderStatusChanged, newOrderEvent(order, from))
}

func newOrderEvent(order domain.Order, from domain.Status) OrderEvent {
	return OrderEvent{
		OrderID:        order.ID,
		UserID:         order.UserID,
		Status:         order.Status,
		PreviousStatus: from,
		PaymentMode:    order.PaymentMode,
		PaymentStatus:  order.PaymentStatus,
		TotalCents:     order.TotalCents,
		ItemCount:      len(order.Items),
		OccurredAt:     order.UpdatedAt,
	}
}
