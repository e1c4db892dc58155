package processor

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/angeloszaimis/go-metrics/internal/histogram"
	"github.com/angeloszaimis/go-metrics/internal/identity"
	"github.com/angeloszaimis/go-metrics/internal/meter"
	"github.com/angeloszaimis/go-metrics/internal/timer"
)

// Snapshot is a point-in-time copy of every registered metric, each list
// sorted by identity key.
type Snapshot struct {
	Gauges   []GaugeSample
	Counters []CounterSample
	Meters   []MeterSample
	Timers   []TimerSample
}

// GaugeSample is one gauge reading. Kind names the gauge's value type
// ("uint64", "int64" or "float64"); one identity may hold a gauge of each.
type GaugeSample struct {
	ID    identity.Identity
	Kind  string
	Value float64
}

type CounterSample struct {
	ID     identity.Identity
	Value  float64
	Signed bool
}

type MeterSample struct {
	ID    identity.Identity
	Meter meter.Snapshot
}

type TimerSample struct {
	ID          identity.Identity
	Accumulator string
	Timer       timer.Snapshot
}

// TakeSnapshot reads every metric. Gauge callbacks run on the worker.
func TakeSnapshot(p *Processor) Snapshot {
	p.mustOnWorker("TakeSnapshot")

	var snap Snapshot

	snap.Gauges = appendGauges[uint64](p, snap.Gauges, "uint64")
	snap.Gauges = appendGauges[int64](p, snap.Gauges, "int64")
	snap.Gauges = appendGauges[float64](p, snap.Gauges, "float64")

	for id, c := range Counters[int64](p) {
		snap.Counters = append(snap.Counters, CounterSample{ID: id, Value: float64(c.Load()), Signed: true})
	}
	for id, c := range Counters[uint64](p) {
		snap.Counters = append(snap.Counters, CounterSample{ID: id, Value: float64(c.Load())})
	}

	for id, m := range Meters(p) {
		snap.Meters = append(snap.Meters, MeterSample{ID: id, Meter: m.Snapshot()})
	}

	for id, t := range Timers[*histogram.SlidingWindow](p) {
		snap.Timers = append(snap.Timers, TimerSample{
			ID:          id,
			Accumulator: histogram.Name[*histogram.SlidingWindow](),
			Timer:       t.Snapshot(),
		})
	}
	for id, t := range Timers[*histogram.Uniform](p) {
		snap.Timers = append(snap.Timers, TimerSample{
			ID:          id,
			Accumulator: histogram.Name[*histogram.Uniform](),
			Timer:       t.Snapshot(),
		})
	}

	slices.SortFunc(snap.Gauges, func(a, b GaugeSample) int {
		if c := strings.Compare(a.ID.Key(), b.ID.Key()); c != 0 {
			return c
		}
		return strings.Compare(a.Kind, b.Kind)
	})
	slices.SortFunc(snap.Counters, func(a, b CounterSample) int {
		if c := strings.Compare(a.ID.Key(), b.ID.Key()); c != 0 {
			return c
		}
		// signed first
		switch {
		case a.Signed == b.Signed:
			return 0
		case a.Signed:
			return -1
		default:
			return 1
		}
	})
	slices.SortFunc(snap.Meters, func(a, b MeterSample) int { return strings.Compare(a.ID.Key(), b.ID.Key()) })
	slices.SortFunc(snap.Timers, func(a, b TimerSample) int {
		if c := strings.Compare(a.ID.Key(), b.ID.Key()); c != 0 {
			return c
		}
		return strings.Compare(a.Accumulator, b.Accumulator)
	})

	return snap
}

// appendGauges reads every gauge of kind T. A callback that panics is logged
// and left out of the snapshot.
func appendGauges[T GaugeValue](p *Processor, samples []GaugeSample, kind string) []GaugeSample {
	for id, fn := range Gauges[T](p) {
		if v, ok := readGauge(p, id, fn); ok {
			samples = append(samples, GaugeSample{ID: id, Kind: kind, Value: v})
		}
	}
	return samples
}

func readGauge[T GaugeValue](p *Processor, id identity.Identity, fn func() T) (value float64, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Gauge callback panicked",
				slog.String("metric", id.String()),
				slog.Any("panic", r))
			ok = false
		}
	}()

	return float64(fn()), true
}

// TickAll advances the moving averages of every meter and timer.
func TickAll(p *Processor) {
	p.mustOnWorker("TickAll")

	for _, m := range Meters(p) {
		m.Tick()
	}
	for _, t := range Timers[*histogram.SlidingWindow](p) {
		t.Tick()
	}
	for _, t := range Timers[*histogram.Uniform](p) {
		t.Tick()
	}
}

// Sweep drops counter entries whose cells were released and returns how many
// were removed.
func Sweep(p *Processor) int {
	p.mustOnWorker("Sweep")

	return p.data.counters.i64.sweep() + p.data.counters.u64.sweep()
}
