package processor

import (
	"iter"
	"weak"

	"github.com/angeloszaimis/go-metrics/internal/histogram"
	"github.com/angeloszaimis/go-metrics/internal/identity"
	"github.com/angeloszaimis/go-metrics/internal/meter"
	"github.com/angeloszaimis/go-metrics/internal/timer"
)

// The functions below must run on the worker goroutine.

func (p *Processor) mustAccess(op string, id identity.Identity) {
	p.mustOnWorker(op)
	if id.IsZero() {
		panic("processor: " + op + " called with a zero identity")
	}
}

// Gauge returns the callback registered for id, installing fn if there is none.
func Gauge[T GaugeValue](p *Processor, id identity.Identity, fn func() T) func() T {
	p.mustAccess("Gauge", id)

	t := gaugeTable[T](&p.data)
	if e, ok := t[id.Key()]; ok {
		return e.value
	}
	if fn == nil {
		panic("processor: Gauge called with a nil callback for " + id.String())
	}

	t[id.Key()] = entry[func() T]{id: id, value: fn}
	return fn
}

// LookupGauge returns the callback registered for id, if any.
func LookupGauge[T GaugeValue](p *Processor, id identity.Identity) (func() T, bool) {
	p.mustAccess("LookupGauge", id)

	e, ok := gaugeTable[T](&p.data)[id.Key()]
	return e.value, ok
}

// Counter returns the live cell for id, or a new zero cell if the previous
// one was released or never existed.
func Counter[T Integer](p *Processor, id identity.Identity) *Cell[T] {
	p.mustAccess("Counter", id)

	t := counterTable[T](&p.data)
	if c, ok := t.live(id.Key()); ok {
		return c
	}

	c := new(Cell[T])
	t[id.Key()] = weakEntry[T]{id: id, cell: weak.Make(c)}
	return c
}

// LookupCounter returns the live cell for id without creating one.
func LookupCounter[T Integer](p *Processor, id identity.Identity) (*Cell[T], bool) {
	p.mustAccess("LookupCounter", id)

	return counterTable[T](&p.data).live(id.Key())
}

// Meter returns the meter for id, creating it on first use.
func Meter(p *Processor, id identity.Identity) *meter.Meter {
	p.mustAccess("Meter", id)

	if e, ok := p.data.meters[id.Key()]; ok {
		return e.value
	}

	m := meter.New(p.clock)
	p.data.meters[id.Key()] = entry[*meter.Meter]{id: id, value: m}
	return m
}

// LookupMeter returns the meter for id without creating one.
func LookupMeter(p *Processor, id identity.Identity) (*meter.Meter, bool) {
	p.mustAccess("LookupMeter", id)

	e, ok := p.data.meters[id.Key()]
	return e.value, ok
}

// Timer returns the timer of kind A for id, creating it on first use.
func Timer[A histogram.Kind](p *Processor, id identity.Identity) *timer.Timer[A] {
	p.mustAccess("Timer", id)

	t := timerTable[A](&p.data)
	if e, ok := t[id.Key()]; ok {
		return e.value
	}

	tm := timer.New(meter.New(p.clock), newAccumulator[A](p, id))
	t[id.Key()] = entry[*timer.Timer[A]]{id: id, value: tm}
	return tm
}

// LookupTimer returns the timer of kind A for id without creating one.
func LookupTimer[A histogram.Kind](p *Processor, id identity.Identity) (*timer.Timer[A], bool) {
	p.mustAccess("LookupTimer", id)

	e, ok := timerTable[A](&p.data)[id.Key()]
	return e.value, ok
}

func newAccumulator[A histogram.Kind](p *Processor, id identity.Identity) A {
	var zero A
	switch any(zero).(type) {
	case *histogram.SlidingWindow:
		return any(histogram.NewSlidingWindow(p.windowSize)).(A)
	default:
		return any(histogram.NewUniform(p.reservoirSize, id.Hash())).(A)
	}
}

// Gauges iterates over the registered gauges of kind T.
func Gauges[T GaugeValue](p *Processor) iter.Seq2[identity.Identity, func() T] {
	p.mustOnWorker("Gauges")
	return entries(gaugeTable[T](&p.data))
}

// Counters iterates over the live counters of kind T. Stale entries are skipped.
func Counters[T Integer](p *Processor) iter.Seq2[identity.Identity, *Cell[T]] {
	p.mustOnWorker("Counters")

	t := counterTable[T](&p.data)
	return func(yield func(identity.Identity, *Cell[T]) bool) {
		for _, e := range t {
			c := e.cell.Value()
			if c == nil {
				continue
			}
			if !yield(e.id, c) {
				return
			}
		}
	}
}

// Meters iterates over the registered meters.
func Meters(p *Processor) iter.Seq2[identity.Identity, *meter.Meter] {
	p.mustOnWorker("Meters")
	return entries(p.data.meters)
}

// Timers iterates over the registered timers of kind A.
func Timers[A histogram.Kind](p *Processor) iter.Seq2[identity.Identity, *timer.Timer[A]] {
	p.mustOnWorker("Timers")
	return entries(timerTable[A](&p.data))
}

func entries[V any](t table[V]) iter.Seq2[identity.Identity, V] {
	return func(yield func(identity.Identity, V) bool) {
		for _, e := range t {
			if !yield(e.id, e.value) {
				return
			}
		}
	}
}
