package adapters

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/shopkart/internal/events"
	"github.com/dejobratic/shopkart/internal/orders/domain"
	"github.com/dejobratic/shopkart/internal/orders/ports"
	"github.com/dejobratic/shopkart/internal/telemetry"
)

type ObservableEventBus struct {
	bus     ports.EventBus
	metrics *events.Metrics
}

func NewObservableEventBus(bus ports.EventBus, metrics *events.Metrics) *ObservableEventBus {
	return &ObservableEventBus{
		bus:     bus,
		metrics: metrics,
	}
}

func (e *ObservableEventBus) PublishOrderPlaced(ctx context.Context, order domain.Order) error {
	return e.observe(ctx, "EventBus.PublishOrderPlaced", RoutingKeyOrderPlaced, order, func(ctx context.Context) error {
		return e.bus.PublishOrderPlaced(ctx, order)
	})
}

func (e *ObservableEventBus) PublishOrderCancelled(ctx context.Context, order domain.Order) error {
	return e.observe(ctx, "EventBus.PublishOrderCancelled", RoutingKeyOrderCancelled, order, func(ctx context.Context) error {
		return e.bus.PublishOrderCancelled(ctx, order)
	})
}

func (e *ObservableEventBus) PublishOrderStatusChanged(ctx context.Context, order domain.Order, from domain.Status) error {
	return e.observe(ctx, "EventBus.PublishOrderStatusChanged", RoutingKeyOrderStatusChanged, order, func(ctx context.Context) error {
		return e.bus.PublishOrderStatusChanged(ctx, order, from)
	})
}

func (e *ObservableEventBus) observe(ctx context.Context, spanName, routingKey string, order domain.Order, publish func(context.Context) error) error {
	ctx, span := telemetry.StartProducerSpan(ctx, spanName,
		attribute.String("order.id", order.ID),
		attribute.String("order.status", string(order.Status)),
		attribute.String("event.type", routingKey),
		attribute.String("routing_key", routingKey),
	)
	defer span.End()

	start := time.Now()
	err := publish(ctx)
	e.metrics.RecordPublish(ctx, routingKey, time.Since(start).Seconds(), err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}
