package timer

import (
	"time"

	"github.com/angeloszaimis/go-metrics/internal/histogram"
	"github.com/angeloszaimis/go-metrics/internal/meter"
)

// Timer records durations into an accumulator of kind A and marks a meter
// once per recorded duration.
type Timer[A histogram.Kind] struct {
	meter     *meter.Meter
	histogram A
}

// Snapshot is a point-in-time view of a Timer. Histogram values are nanoseconds.
type Snapshot struct {
	Rate      meter.Snapshot     `json:"rate"`
	Histogram histogram.Snapshot `json:"histogram"`
}

func New[A histogram.Kind](m *meter.Meter, h A) *Timer[A] {
	return &Timer[A]{meter: m, histogram: h}
}

// Update records one operation that took d.
func (t *Timer[A]) Update(d time.Duration) {
	t.meter.Mark(1)
	t.histogram.Record(d.Nanoseconds())
}

// Time runs fn and records its duration.
func (t *Timer[A]) Time(fn func()) {
	start := time.Now()
	defer func() { t.Update(time.Since(start)) }()
	fn()
}

// Tick advances the meter's moving averages.
func (t *Timer[A]) Tick() {
	t.meter.Tick()
}

func (t *Timer[A]) Meter() *meter.Meter {
	return t.meter
}

func (t *Timer[A]) Histogram() A {
	return t.histogram
}

func (t *Timer[A]) Snapshot() Snapshot {
	return Snapshot{
		Rate:      t.meter.Snapshot(),
		Histogram: t.histogram.Snapshot(),
	}
}
