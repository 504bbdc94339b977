package telemetry

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/process"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

type perfGauges struct {
	cpu        metric.Float64Gauge
	rss        metric.Int64Gauge
	heap       metric.Int64Gauge
	goroutines metric.Int64Gauge
}

func newPerfGauges() (perfGauges, error) {
	meter := otel.Meter("mediahub.perf_stats")
	var g perfGauges
	var err error
	if g.cpu, err = meter.Float64Gauge("process_cpu_percent"); err != nil {
		return g, err
	}
	if g.rss, err = meter.Int64Gauge("process_rss_bytes", metric.WithUnit("By")); err != nil {
		return g, err
	}
	if g.heap, err = meter.Int64Gauge("heap_alloc_bytes", metric.WithUnit("By")); err != nil {
		return g, err
	}
	if g.goroutines, err = meter.Int64Gauge("goroutines"); err != nil {
		return g, err
	}
	return g, nil
}

// InstrumentPerfStats records the cpu, memory and goroutine usage of the
// process every interval until ctx is done. Concurrent downloads hold every
// segment in memory, these are the gauges to watch when tuning workers.
func InstrumentPerfStats(ctx context.Context, interval time.Duration) {
	gauges, err := newPerfGauges()
	if err != nil {
		slog.Warn("failed to create perf gauges", "err", err)
		return
	}
	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		slog.Warn("failed to inspect own process", "err", err)
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var mem runtime.MemStats
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			if percent, err := proc.CPUPercentWithContext(ctx); err == nil {
				gauges.cpu.Record(ctx, percent)
			}
			if info, err := proc.MemoryInfoWithContext(ctx); err == nil {
				gauges.rss.Record(ctx, int64(info.RSS))
			}
			runtime.ReadMemStats(&mem)
			gauges.heap.Record(ctx, int64(mem.HeapAlloc))
			gauges.goroutines.Record(ctx, int64(runtime.NumGoroutine()))
		}
	}()
}
