package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dejobratic/shopkart/internal/orders/domain"
)

type publishedMessage struct {
	routingKey string
	payload    any
}

type fakePublisher struct {
	messages []publishedMessage
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, routingKey string, payload any) error {
	p.messages = append(p.messages, publishedMessage{routingKey: routingKey, payload: payload})
	return p.err
}

func (p *fakePublisher) Close() error { return nil }

func testOrder(status domain.Status) domain.Order {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return domain.Order{
		ID:            "o-1",
		UserID:        "u-1",
		Status:        status,
		PaymentMode:   domain.PaymentOnline,
		PaymentStatus: domain.PaymentSuccess,
		TotalCents:    50000,
		Items:         []domain.Item{{ID: "i-1", ProductID: "p-1", Quantity: 2, PriceCents: 25000}},
		UpdatedAt:     now,
	}
}

func TestEventBusRoutingKeys(t *testing.T) {
	tests := []struct {
		name     string
		publish  func(*EventBus) error
		wantKey  string
		wantFrom domain.Status
		wantTo   domain.Status
	}{
		{
			name:    "placed",
			publish: func(b *EventBus) error { return b.PublishOrderPlaced(context.Background(), testOrder(domain.StatusPlaced)) },
			wantKey: RoutingKeyOrderPlaced,
			wantTo:  domain.StatusPlaced,
		},
		{
			name: "cancelled",
			publish: func(b *EventBus) error {
				return b.PublishOrderCancelled(context.Background(), testOrder(domain.StatusCancelled))
			},
			wantKey:  RoutingKeyOrderCancelled,
			wantFrom: domain.StatusPlaced,
			wantTo:   domain.StatusCancelled,
		},
		{
			name: "status changed",
			publish: func(b *EventBus) error {
				return b.PublishOrderStatusChanged(context.Background(), testOrder(domain.StatusDelivered), domain.StatusShipped)
			},
			wantKey:  RoutingKeyOrderStatusChanged,
			wantFrom: domain.StatusShipped,
			wantTo:   domain.StatusDelivered,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher := &fakePublisher{}
			if err := tt.publish(NewEventBus(publisher)); err != nil {
				t.Fatalf("publish failed: %v", err)
			}
			if len(publisher.messages) != 1 {
				t.Fatalf("expected 1 message, got %d", len(publisher.messages))
			}

			msg := publisher.messages[0]
			if msg.routingKey != tt.wantKey {
				t.Errorf("routing key = %s, want %s", msg.routingKey, tt.wantKey)
			}
			event, ok := msg.payload.(OrderEvent)
			if !ok {
				t.Fatalf("payload is %T, want OrderEvent", msg.payload)
			}
			if event.Status != tt.wantTo || event.PreviousStatus != tt.wantFrom {
				t.Errorf("event status %s -> %s, want %s -> %s", event.PreviousStatus, event.Status, tt.wantFrom, tt.wantTo)
			}
			if event.ItemCount != 1 || event.TotalCents != 50000 {
				t.Errorf("unexpected event body %+v", event)
			}
		})
	}
}

func TestEventBusPropagatesPublisherError(t *testing.T) {
	boom := errors.New("channel closed")
	bus := NewEventBus(&fakePublisher{err: boom})

	if err := bus.PublishOrderPlaced(context.Background(), testOrder(domain.StatusPlaced)); !errors.Is(err, boom) {
		t.Errorf("expected publisher error, got %v", err)
	}
}
