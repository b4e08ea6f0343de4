package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/process"
	"go.opentelemetry.io/otel"
)

var meter = otel.Meter("curriculum.perf_stats")
var cpuGauge, _ = meter.Float64Gauge("cpu_usage")
var memoryGauge, _ = meter.Int64Gauge("allocated_mb")
var goroutineGauge, _ = meter.Int64Gauge("goroutine_count")
var childProcessGauge, _ = meter.Int64Gauge("child_processes")
var childMemoryGauge, _ = meter.Int64Gauge("child_rss_mb")

// childStats sums up the child processes, which is where the playwright
// driver and the browser live.
func childStats(ctx context.Context, self *process.Process) (count int64, rssMb int64, err error) {
	children, err := self.ChildrenWithContext(ctx)
	if errors.Is(err, process.ErrorNoChildren) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, err
	}
	var rss uint64
	for _, child := range children {
		mem, err := child.MemoryInfoWithContext(ctx)
		if err != nil {
			continue
		}
		rss += mem.RSS
	}
	return int64(len(children)), int64(rss / 1_000_000), nil
}

// InstrumentPerfStats records process gauges every `interval` until ctx is done.
func InstrumentPerfStats(ctx context.Context, interval time.Duration) {
	self, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		slog.WarnContext(ctx, "failed to inspect own process", "err", err)
	}

	go func() {
		var memStats runtime.MemStats
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				runtime.ReadMemStats(&memStats)

				cpuUsage, err := cpu.PercentWithContext(ctx, 0, false)
				if err == nil && len(cpuUsage) > 0 {
					cpuGauge.Record(ctx, cpuUsage[0])
				} else if err != nil {
					slog.WarnContext(ctx, "failed to read cpu usage", "err", err)
				}
				memoryGauge.Record(ctx, int64(memStats.Alloc/1_000_000))
				goroutineGauge.Record(ctx, int64(runtime.NumGoroutine()))

				if self == nil {
					continue
				}
				count, rss, err := childStats(ctx, self)
				if err != nil {
					slog.DebugContext(ctx, "failed to read child processes", "err", err)
					continue
				}
				childProcessGauge.Record(ctx, count)
				childMemoryGauge.Record(ctx, rss)
			case <-ctx.Done():
				return
			}
		}
	}()
}
