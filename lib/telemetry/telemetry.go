package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"curriculum-scraper/lib/configutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
)

// Telemetry holds the installed providers, either may be nil when its
// signal is not exported.
type Telemetry struct {
	TracerProvider *trace.TracerProvider
	MeterProvider  *metric.MeterProvider
}

// Shutdown flushes whatever is still buffered.
func (t Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.TracerProvider != nil {
		errs = append(errs, t.TracerProvider.Shutdown(ctx))
	}
	if t.MeterProvider != nil {
		errs = append(errs, t.MeterProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

type OtlpConnConfig struct {
	GrpcEndpoint string            `json:"grpc_endpoint"`
	HttpEndpoint string            `json:"http_endpoint"`
	Headers      map[string]string `json:"headers"`
}

func (c OtlpConnConfig) Enabled() bool {
	return c.GrpcEndpoint != "" || c.HttpEndpoint != ""
}

func (c OtlpConnConfig) logInitialized(signal string) {
	kind, endpoint := "http", c.HttpEndpoint
	if c.GrpcEndpoint != "" {
		kind, endpoint = "grpc", c.GrpcEndpoint
	}
	slog.Info(
		"otlp exporter initialized",
		"signal", signal,
		"type", kind,
		"endpoint", endpoint,
		"headers", len(c.Headers) > 0,
	)
}

type OtlpConfig struct {
	Traces  OtlpConnConfig `json:"traces"`
	Metrics OtlpConnConfig `json:"metrics"`
}

type Config struct {
	Otlp OtlpConfig `json:"otlp"`
	// SampleRatio is the share of batch traces kept, 0 keeps all of them.
	SampleRatio       float64 `json:"sample_ratio"`
	MetricIntervalSec int     `json:"metric_interval_sec"`
}

// SetupFromEnv searches up the filesystem from the cwd for a file called
// telemetry.json5 and sets telemetry up with it. os.ErrNotExist is returned
// when there is none.
func SetupFromEnv(ctx context.Context, serviceName string) (Telemetry, error) {
	config, err := configutil.ReadRecursively[Config]("telemetry.json5")
	if err != nil {
		return Telemetry{}, err
	}
	return Setup(ctx, serviceName, config)
}

func Setup(ctx context.Context, serviceName string, config Config) (Telemetry, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*15)
	defer cancel()

	r, err := newResource(serviceName)
	if err != nil {
		return Telemetry{}, err
	}

	tracerProvider, err := newTraceProvider(ctx, r, config)
	if err != nil {
		return Telemetry{}, err
	}
	meterProvider, err := newMetricProvider(ctx, r, config)
	if err != nil {
		return Telemetry{TracerProvider: tracerProvider}, err
	}

	if tracerProvider != nil {
		otel.SetTracerProvider(tracerProvider)
	}
	if meterProvider != nil {
		otel.SetMeterProvider(meterProvider)
	}
	return Telemetry{
		TracerProvider: tracerProvider,
		MeterProvider:  meterProvider,
	}, nil
}
