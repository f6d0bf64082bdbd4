package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

var (
	ErrInvalidConfig         = errors.New("invalid telemetry configuration")
	ErrMissingServiceName    = errors.New("service name is required")
	ErrMissingServiceVersion = errors.New("service version is required")
	ErrInvalidSampleRate     = errors.New("sample rate must be between 0.0 and 1.0")
)

// metricInterval is how often order, checkout and HTTP instruments are pushed to the collector.
const metricInterval = 30 * time.Second

// Config selects which signals are exported and where.
// An empty OTLPEndpoint with no injected exporter turns the corresponding signal off.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string
	EnableTracing  bool
	EnableMetrics  bool
	SampleRate     float64
}

// Validate reports every problem at once, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	var problems []error
	if c.ServiceName == "" {
		problems = append(problems, ErrMissingServiceName)
	}
	if c.ServiceVersion == "" {
		problems = append(problems, ErrMissingServiceVersion)
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		problems = append(problems, ErrInvalidSampleRate)
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(problems...))
}

// Telemetry owns the SDK providers so they can be flushed on shutdown.
type Telemetry struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider

	// closers run in reverse order of registration.
	closers []func(context.Context) error
}

type Option func(*exporters)

type exporters struct {
	trace  sdktrace.SpanExporter
	metric sdkmetric.Exporter
}

// WithTraceExporter replaces the OTLP span exporter, mainly for tests.
func WithTraceExporter(exporter sdktrace.SpanExporter) Option {
	return func(e *exporters) { e.trace = exporter }
}

// WithMetricExporter replaces the OTLP metric exporter, mainly for tests.
func WithMetricExporter(exporter sdkmetric.Exporter) Option {
	return func(e *exporters) { e.metric = exporter }
}

// Initialize installs the global tracer provider, meter provider and W3C propagators.
func Initialize(ctx context.Context, cfg Config, opts ...Option) (*Telemetry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	injected := &exporters{}
	for _, opt := range opts {
		opt(injected)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithOS(),
		resource.WithContainer(),
		resource.WithHost(),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tel := &Telemetry{}

	if cfg.EnableTracing && (cfg.OTLPEndpoint != "" || injected.trace != nil) {
		if err := tel.startTracing(ctx, res, cfg, injected.trace); err != nil {
			return nil, fmt.Errorf("initialize tracing: %w", err)
		}
	}

	if cfg.EnableMetrics && (cfg.OTLPEndpoint != "" || injected.metric != nil) {
		if err := tel.startMetrics(ctx, res, cfg, injected.metric); err != nil {
			_ = tel.Shutdown(ctx)
			return nil, fmt.Errorf("initialize metrics: %w", err)
		}
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tel, nil
}

func (t *Telemetry) startTracing(ctx context.Context, res *resource.Resource, cfg Config, exporter sdktrace.SpanExporter) error {
	if exporter == nil {
		var err error
		// The collector runs next to the service without TLS.
		exporter, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("create trace exporter: %w", err)
		}
	}

	t.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(createSampler(cfg.SampleRate)),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(t.tracerProvider)

	t.closers = append(t.closers, t.tracerProvider.Shutdown)
	return nil
}

func (t *Telemetry) startMetrics(ctx context.Context, res *resource.Resource, cfg Config, exporter sdkmetric.Exporter) error {
	if exporter == nil {
		var err error
		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("create metric exporter: %w", err)
		}
	}

	t.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(metricInterval))),
	)
	otel.SetMeterProvider(t.meterProvider)

	t.closers = append(t.closers, t.meterProvider.Shutdown)
	return nil
}

// createSampler keeps every trace at 1, none at 0, and otherwise follows the caller's decision
// with a ratio for new roots.
func createSampler(sampleRate float64) sdktrace.Sampler {
	switch {
	case sampleRate <= 0:
		return sdktrace.NeverSample()
	case sampleRate >= 1:
		return sdktrace.AlwaysSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRate))
	}
}

// Shutdown flushes and closes every started provider; each provider closes its own exporter.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(t.closers) - 1; i >= 0; i-- {
		if err := t.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	t.closers = nil
	return errors.Join(errs...)
}

func (t *Telemetry) TracerProvider() *sdktrace.TracerProvider {
	return t.tracerProvider
}

func (t *Telemetry) MeterProvider() *sdkmetric.MeterProvider {
	return t.meterProvider
}

// Meter returns a named meter from the configured provider, or a no-op meter when metrics are off.
func (t *Telemetry) Meter(name string) metric.Meter {
	if t == nil || t.meterProvider == nil {
		return noopmetric.NewMeterProvider().Meter(name)
	}
	return t.meterProvider.Meter(name)
}
