package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/sourcegraph/conc/pool"

	"github.com/angeloszaimis/go-metrics/config"
	"github.com/angeloszaimis/go-metrics/internal/histogram"
	"github.com/angeloszaimis/go-metrics/internal/meter"
	"github.com/angeloszaimis/go-metrics/internal/processor"
	"github.com/angeloszaimis/go-metrics/internal/timer"
	"github.com/angeloszaimis/go-metrics/pkg/logger"
	"github.com/angeloszaimis/go-metrics/pkg/registry"
)

var statusCodes = []string{"200", "404", "500"}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ctx, stop := context.WithTimeout(ctx, cfg.Demo.RunFor())
	defer stop()

	reg, err := registry.New(cfg, log)
	if err != nil {
		log.Error("Failed to create registry", slog.Any("err", err))
		os.Exit(1)
	}
	defer reg.Close()

	gatherer := prometheus.NewRegistry()
	if err := gatherer.Register(reg.Collector()); err != nil {
		log.Error("Failed to register collector", slog.Any("err", err))
		os.Exit(1)
	}

	inst, err := newInstruments(reg)
	if err != nil {
		log.Error("Failed to create instruments", slog.Any("err", err))
		os.Exit(1)
	}

	log.Info("Generating load",
		slog.Int("workers", cfg.Demo.Workers),
		slog.Duration("duration", cfg.Demo.RunFor()))

	done := make(chan struct{})
	go func() {
		defer close(done)
		runWorkers(ctx, inst, cfg.Demo.Workers)
	}()

	ticker := time.NewTicker(cfg.Demo.ReportEvery())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			report(log, reg.Snapshot())

		case <-done:
			log.Info("Shutting down gracefully...")
			report(log, reg.Snapshot())
			if err := writeExposition(os.Stdout, gatherer); err != nil {
				log.Error("Failed to write metrics", slog.Any("err", err))
				os.Exit(1)
			}
			return
		}
	}
}

// instruments holds the metrics one simulated service updates per request.
type instruments struct {
	requests   map[string]*processor.Cell[uint64]
	inFlight   *processor.Cell[int64]
	active     *atomic.Int64
	throughput *meter.Meter
	latency    *timer.Timer[*histogram.SlidingWindow]
	queueWait  *timer.Timer[*histogram.Uniform]
}

func newInstruments(reg *registry.Registry) (*instruments, error) {
	inst := &instruments{
		requests: make(map[string]*processor.Cell[uint64], len(statusCodes)),
		active:   &atomic.Int64{},
	}

	for _, code := range statusCodes {
		c, err := registry.Counter[uint64](reg, "requests", map[string]string{"code": code})
		if err != nil {
			return nil, fmt.Errorf("requests counter: %w", err)
		}
		inst.requests[code] = c
	}

	var err error
	if inst.inFlight, err = registry.Counter[int64](reg, "in_flight", nil); err != nil {
		return nil, fmt.Errorf("in-flight counter: %w", err)
	}
	if _, err = registry.Listen(reg, "workers_active", nil, inst.active.Load); err != nil {
		return nil, fmt.Errorf("workers gauge: %w", err)
	}
	if inst.throughput, err = registry.Meter(reg, "throughput", nil); err != nil {
		return nil, fmt.Errorf("throughput meter: %w", err)
	}
	if inst.latency, err = registry.Timer[*histogram.SlidingWindow](reg, "latency", nil); err != nil {
		return nil, fmt.Errorf("latency timer: %w", err)
	}
	if inst.queueWait, err = registry.Timer[*histogram.Uniform](reg, "queue_wait", nil); err != nil {
		return nil, fmt.Errorf("queue wait timer: %w", err)
	}

	return inst, nil
}

func runWorkers(ctx context.Context, inst *instruments, workers int) {
	p := pool.New().WithMaxGoroutines(workers)
	for i := range workers {
		rnd := rand.New(rand.NewPCG(uint64(i), uint64(time.Now().UnixNano())))
		p.Go(func() {
			inst.active.Add(1)
			defer inst.active.Add(-1)
			generateLoad(ctx, inst, rnd)
		})
	}
	p.Wait()
}

func generateLoad(ctx context.Context, inst *instruments, rnd *rand.Rand) {
	for ctx.Err() == nil {
		inst.queueWait.Update(time.Duration(rnd.IntN(1000)) * time.Microsecond)

		inst.inFlight.Inc()
		inst.latency.Time(func() {
			time.Sleep(time.Duration(1+rnd.IntN(5)) * time.Millisecond)
		})
		inst.inFlight.Add(-1)

		inst.throughput.Mark(1)
		inst.requests[pickStatus(rnd)].Inc()
	}
}

// pickStatus returns 200 for 90% of requests and splits the rest between
// 404 and 500.
func pickStatus(rnd *rand.Rand) string {
	switch n := rnd.IntN(100); {
	case n < 90:
		return statusCodes[0]
	case n < 95:
		return statusCodes[1]
	default:
		return statusCodes[2]
	}
}

func report(log *slog.Logger, snap processor.Snapshot) {
	for _, c := range snap.Counters {
		log.Info("Counter", slog.String("metric", c.ID.String()), slog.Float64("value", c.Value))
	}
	for _, g := range snap.Gauges {
		log.Info("Gauge", slog.String("metric", g.ID.String()), slog.Float64("value", g.Value))
	}
	for _, m := range snap.Meters {
		log.Info("Meter",
			slog.String("metric", m.ID.String()),
			slog.Uint64("count", m.Meter.Count),
			slog.Float64("m1_rate", m.Meter.Rate1),
			slog.Float64("mean_rate", m.Meter.MeanRate))
	}
	for _, t := range snap.Timers {
		h := t.Timer.Histogram
		log.Info("Timer",
			slog.String("metric", t.ID.String()),
			slog.String("accumulator", t.Accumulator),
			slog.Uint64("count", h.Count),
			slog.Duration("p50", time.Duration(h.P50)),
			slog.Duration("p99", time.Duration(h.P99)),
			slog.Duration("max", time.Duration(h.Max)))
	}
}

func writeExposition(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather: %w", err)
	}

	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
