package loader

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	TracerName = "ecorecovery-loader"
	MeterName  = "ecorecovery-loader"
)

// Metrics holds the loader's OpenTelemetry instruments. A nil *Metrics
// records nothing.
type Metrics struct {
	Fetches       metric.Int64Counter
	FetchFailures metric.Int64Counter
	FetchDuration metric.Float64Histogram
	CacheHits     metric.Int64Counter
	CacheMisses   metric.Int64Counter
	RecordsLoaded metric.Int64Gauge
	DocumentBytes metric.Int64Histogram
}

// NewMetrics creates the loader instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.Fetches, err = meter.Int64Counter(
		"dataset_fetches_total",
		metric.WithDescription("Total number of dataset fetches"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetches counter: %w", err)
	}

	m.FetchFailures, err = meter.Int64Counter(
		"dataset_fetch_failures_total",
		metric.WithDescription("Total number of failed dataset loads"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetch failures counter: %w", err)
	}

	m.FetchDuration, err = meter.Float64Histogram(
		"dataset_fetch_duration_seconds",
		metric.WithDescription("Dataset fetch and parse duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetch duration histogram: %w", err)
	}

	m.CacheHits, err = meter.Int64Counter(
		"dataset_cache_hits_total",
		metric.WithDescription("Total number of dataset cache hits"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache hits counter: %w", err)
	}

	m.CacheMisses, err = meter.Int64Counter(
		"dataset_cache_misses_total",
		metric.WithDescription("Total number of dataset cache misses"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache misses counter: %w", err)
	}

	m.RecordsLoaded, err = meter.Int64Gauge(
		"dataset_records_loaded",
		metric.WithDescription("Number of records in the most recently loaded dataset"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create records gauge: %w", err)
	}

	m.DocumentBytes, err = meter.Int64Histogram(
		"dataset_document_bytes",
		metric.WithDescription("Size of fetched dataset documents"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create document size histogram: %w", err)
	}

	return m, nil
}

func (m *Metrics) recordCache(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.Add(ctx, 1)
		return
	}
	m.CacheMisses.Add(ctx, 1)
}

func (m *Metrics) recordFetch(ctx context.Context, scheme string, duration time.Duration, size, records int, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	attrs := metric.WithAttributes(
		attribute.String("source.scheme", scheme),
		attribute.String("status", status),
	)
	m.Fetches.Add(ctx, 1, attrs)
	m.FetchDuration.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		m.FetchFailures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("source.scheme", scheme),
			attribute.String("error.type", errorType(err)),
		))
		return
	}
	m.DocumentBytes.Record(ctx, int64(size), metric.WithAttributes(attribute.String("source.scheme", scheme)))
	m.RecordsLoaded.Record(ctx, int64(records))
}

// startSpan starts a loader span on the global tracer provider.
func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "loader."+name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
