package telemetry

import (
	"context"
	"sync/atomic"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// CountingSpanExporter drops spans but remembers how many were handed over,
// so tests can enable tracing without a collector and still see what was flushed.
type CountingSpanExporter struct {
	spans atomic.Int64
}

func (e *CountingSpanExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	e.spans.Add(int64(len(spans)))
	return nil
}

func (e *CountingSpanExporter) Shutdown(context.Context) error { return nil }

// Exported returns the number of spans received so far.
func (e *CountingSpanExporter) Exported() int64 { return e.spans.Load() }

// CountingMetricExporter is the metric counterpart of CountingSpanExporter; it counts export rounds.
type CountingMetricExporter struct {
	rounds atomic.Int64
}

func (e *CountingMetricExporter) Temporality(sdkmetric.InstrumentKind) metricdata.Temporality {
	return metricdata.CumulativeTemporality
}

func (e *CountingMetricExporter) Aggregation(sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.AggregationDefault{}
}

func (e *CountingMetricExporter) Export(context.Context, *metricdata.ResourceMetrics) error {
	e.rounds.Add(1)
	return nil
}

func (e *CountingMetricExporter) ForceFlush(context.Context) error { return nil }

func (e *CountingMetricExporter) Shutdown(context.Context) error { return nil }

// Exported returns the number of export rounds seen so far.
func (e *CountingMetricExporter) Exported() int64 { return e.rounds.Load() }
