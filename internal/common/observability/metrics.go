package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Observability owns the OpenTelemetry meter and tracer providers for the process.
// All Record methods are safe on a nil receiver.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	jobCounter     otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
	recommendation otelmetric.Int64Counter
}

// New registers a Prometheus-backed meter provider and a tracer provider.
// Spans are exported to Jaeger when jaegerEndpoint is set and dropped otherwise.
func New(serviceName, jaegerEndpoint string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, err
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	jobCounter, err := meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)
	if err != nil {
		return nil, err
	}

	jobDuration, err := meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	recommendation, err := meter.Int64Counter(
		"recommendations",
		otelmetric.WithDescription("Recommendation outcomes"),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider, err := newTracerProvider(serviceName, jaegerEndpoint)
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(tracerProvider)

	return &Observability{
		meterProvider:  provider,
		tracerProvider: tracerProvider,
		jobCounter:     jobCounter,
		jobDuration:    jobDuration,
		recommendation: recommendation,
	}, nil
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o == nil || o.jobCounter == nil {
		return
	}
	o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration) {
	if o == nil || o.jobDuration == nil {
		return
	}
	o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
	))
}

func (o *Observability) RecordRecommendation(ctx context.Context, outcome, stage string) {
	if o == nil || o.recommendation == nil {
		return
	}
	o.recommendation.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("stage", stage),
	))
}

// Shutdown flushes pending spans and metrics.
func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil {
		return nil
	}
	var firstErr error
	if o.tracerProvider != nil {
		if err := o.tracerProvider.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if o.meterProvider != nil {
		if err := o.meterProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
