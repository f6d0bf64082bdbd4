// Package events publishes domain events to the message broker.
package events

import (
	"context"
	"log/slog"
)

// Publisher sends a JSON-encoded payload under routingKey.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
	Close() error
}

// NoopPublisher logs events without sending them anywhere. Used when no broker is configured.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

func (n *NoopPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	slog.DebugContext(ctx, "event::"+routingKey, "payload", payload)
	return nil
}

func (n *NoopPublisher) Close() error { return nil }
