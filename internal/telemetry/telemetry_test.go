package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		ServiceName:    "shopkart-test",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		SampleRate:     1.0,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(*Config) {}, nil},
		{"missing name", func(c *Config) { c.ServiceName = "" }, ErrMissingServiceName},
		{"missing version", func(c *Config) { c.ServiceVersion = "" }, ErrMissingServiceVersion},
		{"negative sample rate", func(c *Config) { c.SampleRate = -0.1 }, ErrInvalidSampleRate},
		{"sample rate above one", func(c *Config) { c.SampleRate = 1.1 }, ErrInvalidSampleRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) || !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected %v wrapped in ErrInvalidConfig, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestInitializeWithoutEndpointDisablesSignals(t *testing.T) {
	cfg := testConfig()
	cfg.EnableTracing = true
	cfg.EnableMetrics = true

	tel, err := Initialize(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if tel.TracerProvider() != nil {
		t.Error("expected tracing to stay off without an endpoint")
	}
	if tel.MeterProvider() != nil {
		t.Error("expected metrics to stay off without an endpoint")
	}
	if tel.Meter("orders") == nil {
		t.Error("expected a no-op meter")
	}
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestInitializeWithInjectedExporters(t *testing.T) {
	cfg := testConfig()
	cfg.EnableTracing = true
	cfg.EnableMetrics = true

	spans := &CountingSpanExporter{}
	metrics := &CountingMetricExporter{}

	tel, err := Initialize(context.Background(), cfg,
		WithTraceExporter(spans),
		WithMetricExporter(metrics),
	)
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if tel.TracerProvider() == nil {
		t.Fatal("expected tracer provider")
	}
	if tel.MeterProvider() == nil {
		t.Fatal("expected meter provider")
	}

	_, span := tel.TracerProvider().Tracer("checkout").Start(context.Background(), "place order")
	span.End()

	counter, err := tel.Meter("orders").Int64Counter("orders_placed_total")
	if err != nil {
		t.Fatalf("Int64Counter() error = %v", err)
	}
	counter.Add(context.Background(), 1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tel.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}

	if spans.Exported() != 1 {
		t.Errorf("expected the span to be flushed on shutdown, got %d", spans.Exported())
	}
	if metrics.Exported() == 0 {
		t.Error("expected a final metric export on shutdown")
	}
}

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{0, "AlwaysOffSampler"},
		{1, "AlwaysOnSampler"},
		{0.5, "ParentBased{root:TraceIDRatioBased{0.5},remoteParentSampled:AlwaysOnSampler,remoteParentNotSampled:AlwaysOffSampler,localParentSampled:AlwaysOnSampler,localParentNotSampled:AlwaysOffSampler}"},
	}

	for _, tt := range tests {
		if got := createSampler(tt.rate).Description(); got != tt.want {
			t.Errorf("createSampler(%v) = %s, want %s", tt.rate, got, tt.want)
		}
	}
}
