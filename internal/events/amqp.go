package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
)

// DefaultDialTimeout caps how long a (re)connect may block a publish.
const DefaultDialTimeout = 5 * time.Second

// AMQPPublisher publishes persistent JSON messages to a durable topic exchange.
// The channel is reopened, and the connection redialled, when the broker drops them.
type AMQPPublisher struct {
	url         string
	exchange    string
	dialTimeout time.Duration
	dial        func(url string, cfg amqp.Config) (*amqp.Connection, error)

	// sem is a one-slot lock that callers can give up on when their context ends.
	sem  chan struct{}
	conn *amqp.Connection
	ch   *amqp.Channel
}

type PublisherOption func(*AMQPPublisher)

func WithDialTimeout(d time.Duration) PublisherOption {
	return func(p *AMQPPublisher) { p.dialTimeout = d }
}

func NewAMQPPublisher(ctx context.Context, url, exchange string, opts ...PublisherOption) (*AMQPPublisher, error) {
	p := newAMQPPublisher(url, exchange, opts...)

	if err := p.lock(ctx); err != nil {
		return nil, err
	}
	defer p.unlock()
	if err := p.connectLocked(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func newAMQPPublisher(url, exchange string, opts ...PublisherOption) *AMQPPublisher {
	p := &AMQPPublisher{
		url:         url,
		exchange:    exchange,
		dialTimeout: DefaultDialTimeout,
		dial:        amqp.DialConfig,
		sem:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *AMQPPublisher) lock(ctx context.Context) error {
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for amqp publisher: %w", ctx.Err())
	}
}

func (p *AMQPPublisher) unlock() { <-p.sem }

// timeoutFor shortens the dial timeout to whatever is left of ctx.
func (p *AMQPPublisher) timeoutFor(ctx context.Context) time.Duration {
	timeout := p.dialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	return timeout
}

func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", routingKey, err)
	}

	headers := amqp.Table{}
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier(headers))

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Type:         routingKey,
		Headers:      headers,
		Body:         body,
	}

	if err := p.lock(ctx); err != nil {
		return err
	}
	defer p.unlock()

	if p.conn == nil || p.conn.IsClosed() || p.ch == nil || p.ch.IsClosed() {
		if err := p.connectLocked(ctx); err != nil {
			return err
		}
	}

	if err := p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	_ = p.lock(context.Background())
	defer p.unlock()

	var errs []error
	if p.ch != nil && !p.ch.IsClosed() {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil && !p.conn.IsClosed() {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}

func (p *AMQPPublisher) connectLocked(ctx context.Context) error {
	if p.conn == nil || p.conn.IsClosed() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("dial amqp: %w", err)
		}
		conn, err := p.dial(p.url, amqp.Config{
			Heartbeat: 10 * time.Second,
			Locale:    "en_US",
			Dial:      amqp.DefaultDial(p.timeoutFor(ctx)),
		})
		if err != nil {
			return fmt.Errorf("dial amqp: %w", err)
		}
		p.conn = conn
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(p.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}

	p.ch = ch
	return nil
}

// headerCarrier lets the OTel propagator write trace context into message headers.
type headerCarrier amqp.Table

func (c headerCarrier) Get(key string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

func (c headerCarrier) Set(key, value string) {
	c[key] = value
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}
