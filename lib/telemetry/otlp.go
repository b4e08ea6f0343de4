package telemetry

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const exporterTimeout = 3 * time.Second

func newResource(serviceName string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
}

// newTraceProvider returns nil when no trace endpoint is configured.
func newTraceProvider(ctx context.Context, r *resource.Resource, config Config) (*trace.TracerProvider, error) {
	conn := config.Otlp.Traces
	if !conn.Enabled() {
		slog.Debug("no trace endpoint configured, traces are not exported")
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, exporterTimeout)
	defer cancel()

	var exporter trace.SpanExporter
	var err error
	if conn.GrpcEndpoint != "" {
		exporter, err = otlptracegrpc.New(
			ctx,
			otlptracegrpc.WithEndpointURL(conn.GrpcEndpoint),
			otlptracegrpc.WithHeaders(conn.Headers),
		)
	} else {
		exporter, err = otlptracehttp.New(
			ctx,
			otlptracehttp.WithEndpointURL(conn.HttpEndpoint),
			otlptracehttp.WithHeaders(conn.Headers),
		)
	}
	if err != nil {
		return nil, err
	}
	conn.logInitialized("trace")

	sampler := trace.ParentBased(trace.AlwaysSample())
	if config.SampleRatio > 0 && config.SampleRatio < 1 {
		sampler = trace.ParentBased(trace.TraceIDRatioBased(config.SampleRatio))
	}
	return trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(r),
		trace.WithSampler(sampler),
	), nil
}

// newMetricProvider returns nil when no metric endpoint is configured.
func newMetricProvider(ctx context.Context, r *resource.Resource, config Config) (*metric.MeterProvider, error) {
	conn := config.Otlp.Metrics
	if !conn.Enabled() {
		slog.Debug("no metric endpoint configured, metrics are not exported")
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, exporterTimeout)
	defer cancel()

	var exporter metric.Exporter
	var err error
	if conn.GrpcEndpoint != "" {
		exporter, err = otlpmetricgrpc.New(
			ctx,
			otlpmetricgrpc.WithEndpointURL(conn.GrpcEndpoint),
			otlpmetricgrpc.WithHeaders(conn.Headers),
		)
	} else {
		exporter, err = otlpmetrichttp.New(
			ctx,
			otlpmetrichttp.WithEndpointURL(conn.HttpEndpoint),
			otlpmetrichttp.WithHeaders(conn.Headers),
		)
	}
	if err != nil {
		return nil, err
	}
	conn.logInitialized("metric")

	interval := time.Duration(config.MetricIntervalSec) * time.Second
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter, metric.WithInterval(interval))),
		metric.WithResource(r),
	), nil
}
