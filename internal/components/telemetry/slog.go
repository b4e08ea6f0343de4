package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("curriculum.telemetry")
var countGauge, _ = meter.Int64Gauge("report_count")

// SlogAPI implements API on top of log/slog, counts are also recorded as an
// otel gauge keyed by their id. The zero value logs to slog.Default().
type SlogAPI struct {
	Logger *slog.Logger
}

func (s SlogAPI) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// slogArgs keeps slog.Attr params as they are, logs the first error under
// "err" and numbers everything else.
func slogArgs(out []any, params []any) []any {
	sawErr := false
	for i, p := range params {
		switch v := p.(type) {
		case slog.Attr:
			out = append(out, v)
		case error:
			key := "err"
			if sawErr {
				key = fmt.Sprintf("params.%d", i)
			}
			sawErr = true
			out = append(out, key, v.Error())
		default:
			out = append(out, fmt.Sprintf("params.%d", i), v)
		}
	}
	return out
}

func (s SlogAPI) ReportBroken(id string, params ...any) {
	s.logger().Error("broken component", slogArgs([]any{"id", id}, params)...)
}

func (s SlogAPI) ReportWarning(id string, params ...any) {
	s.logger().Warn("warning", slogArgs([]any{"id", id}, params)...)
}

func (s SlogAPI) ReportDebug(message string, params ...any) {
	s.logger().Debug(message, slogArgs(nil, params)...)
}

func (s SlogAPI) ReportCount(id string, count int64) {
	countGauge.Record(context.Background(), count, metric.WithAttributes(attribute.String("id", id)))
	s.logger().Info("count", "id", id, "n", count)
}
