package registry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/angeloszaimis/go-metrics/config"
	"github.com/angeloszaimis/go-metrics/internal/export"
	"github.com/angeloszaimis/go-metrics/internal/histogram"
	"github.com/angeloszaimis/go-metrics/internal/identity"
	"github.com/angeloszaimis/go-metrics/internal/meter"
	"github.com/angeloszaimis/go-metrics/internal/processor"
	"github.com/angeloszaimis/go-metrics/internal/scheduler"
	"github.com/angeloszaimis/go-metrics/internal/timer"
)

type Registry struct {
	processor *processor.Processor
	scheduler *scheduler.Scheduler
	namespace string
	logger    *slog.Logger

	closeOnce sync.Once
}

type Option func(*options)

type options struct {
	clock clock.Clock
}

// WithClock drives meters, timers and the tick loop from clk.
func WithClock(clk clock.Clock) Option {
	return func(o *options) { o.clock = clk }
}

// New starts a registry configured by cfg. A nil cfg uses config.Default.
func New(cfg *config.Config, log *slog.Logger, opts ...Option) (*Registry, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}

	o := options{clock: clock.New()}
	for _, opt := range opts {
		opt(&o)
	}

	p := processor.New(
		processor.WithLogger(log),
		processor.WithClock(o.clock),
		processor.WithWindowSize(cfg.Histogram.WindowSize),
		processor.WithReservoirSize(cfg.Histogram.ReservoirSize),
	)

	s := scheduler.New(p, log, o.clock)
	s.Start(context.Background())

	return &Registry{
		processor: p,
		scheduler: s,
		namespace: cfg.Export.Namespace,
		logger:    log,
	}, nil
}

// Processor exposes the underlying processor for posting custom tasks.
func (r *Registry) Processor() *processor.Processor {
	return r.processor
}

// Snapshot reads every registered metric on the worker. Once Close has begun
// it returns an empty snapshot.
func (r *Registry) Snapshot() processor.Snapshot {
	take := func() processor.Snapshot {
		return processor.TakeSnapshot(r.processor)
	}

	if r.processor.OnWorker() {
		return take()
	}

	f, ok := processor.TryPost(r.processor, take)
	if !ok {
		return processor.Snapshot{}
	}
	return f.Wait()
}

// Collector returns a Prometheus collector over this registry. It keeps
// working after Close and then exports nothing.
func (r *Registry) Collector() *export.Collector {
	return export.NewCollector(r, r.namespace, export.WithLogger(r.logger))
}

// Close stops ticking, drains queued tasks and stops the worker. It must not
// be called from a processor task.
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		r.scheduler.Stop()
		r.processor.Close()
	})
}

// Counter returns the counter cell for name and tags, creating it if needed.
func Counter[T processor.Integer](r *Registry, name string, tags map[string]string) (*processor.Cell[T], error) {
	id, err := identity.New(name, tags)
	if err != nil {
		return nil, err
	}

	return call(r, func() *processor.Cell[T] {
		return processor.Counter[T](r.processor, id)
	}), nil
}

// Listen registers fn as the gauge for name and tags. If a gauge of kind T is
// already registered there, the existing callback is returned and fn is
// ignored.
func Listen[T processor.GaugeValue](r *Registry, name string, tags map[string]string, fn func() T) (func() T, error) {
	id, err := identity.New(name, tags)
	if err != nil {
		return nil, err
	}

	return call(r, func() func() T {
		return processor.Gauge(r.processor, id, fn)
	}), nil
}

// Gauge looks up a registered gauge of kind T. An invalid name or tag set is
// reported as an error, an unregistered one as false.
func Gauge[T processor.GaugeValue](r *Registry, name string, tags map[string]string) (func() T, bool, error) {
	id, err := identity.New(name, tags)
	if err != nil {
		return nil, false, err
	}

	type result struct {
		fn func() T
		ok bool
	}
	res := call(r, func() result {
		fn, ok := processor.LookupGauge[T](r.processor, id)
		return result{fn: fn, ok: ok}
	})
	return res.fn, res.ok, nil
}

// Meter returns the meter for name and tags, creating it if needed.
func Meter(r *Registry, name string, tags map[string]string) (*meter.Meter, error) {
	id, err := identity.New(name, tags)
	if err != nil {
		return nil, err
	}

	return call(r, func() *meter.Meter {
		return processor.Meter(r.processor, id)
	}), nil
}

// Timer returns the timer of accumulator kind A for name and tags, creating
// it if needed.
func Timer[A histogram.Kind](r *Registry, name string, tags map[string]string) (*timer.Timer[A], error) {
	id, err := identity.New(name, tags)
	if err != nil {
		return nil, err
	}

	return call(r, func() *timer.Timer[A] {
		return processor.Timer[A](r.processor, id)
	}), nil
}

func call[T any](r *Registry, fn func() T) T {
	if r.processor.OnWorker() {
		return fn()
	}
	return processor.Post(r.processor, fn).Wait()
}
