package processor

import (
	"weak"

	"github.com/angeloszaimis/go-metrics/internal/histogram"
	"github.com/angeloszaimis/go-metrics/internal/identity"
	"github.com/angeloszaimis/go-metrics/internal/meter"
	"github.com/angeloszaimis/go-metrics/internal/timer"
)

// GaugeValue lists the gauge value kinds.
type GaugeValue interface {
	uint64 | int64 | float64
}

type entry[V any] struct {
	id    identity.Identity
	value V
}

// table owns its values.
type table[V any] map[string]entry[V]

type weakEntry[T Integer] struct {
	id   identity.Identity
	cell weak.Pointer[Cell[T]]
}

// weakTable only references its cells; an entry whose cell was collected is
// stale and treated as absent.
type weakTable[T Integer] map[string]weakEntry[T]

func (t weakTable[T]) live(key string) (*Cell[T], bool) {
	e, ok := t[key]
	if !ok {
		return nil, false
	}
	c := e.cell.Value()
	return c, c != nil
}

func (t weakTable[T]) sweep() int {
	removed := 0
	for key, e := range t {
		if e.cell.Value() == nil {
			delete(t, key)
			removed++
		}
	}
	return removed
}

type gaugeTables struct {
	u64 table[func() uint64]
	i64 table[func() int64]
	f64 table[func() float64]
}

type counterTables struct {
	i64 weakTable[int64]
	u64 weakTable[uint64]
}

type timerTables struct {
	sliding table[*timer.Timer[*histogram.SlidingWindow]]
	uniform table[*timer.Timer[*histogram.Uniform]]
}

// collection holds one table per value kind. The type parameter of each
// selector picks the table.
type collection struct {
	gauges   gaugeTables
	counters counterTables
	meters   table[*meter.Meter]
	timers   timerTables
}

func newCollection() collection {
	return collection{
		gauges: gaugeTables{
			u64: make(table[func() uint64]),
			i64: make(table[func() int64]),
			f64: make(table[func() float64]),
		},
		counters: counterTables{
			i64: make(weakTable[int64]),
			u64: make(weakTable[uint64]),
		},
		meters: make(table[*meter.Meter]),
		timers: timerTables{
			sliding: make(table[*timer.Timer[*histogram.SlidingWindow]]),
			uniform: make(table[*timer.Timer[*histogram.Uniform]]),
		},
	}
}

func gaugeTable[T GaugeValue](c *collection) table[func() T] {
	var zero T
	switch any(zero).(type) {
	case uint64:
		return any(c.gauges.u64).(table[func() T])
	case int64:
		return any(c.gauges.i64).(table[func() T])
	default:
		return any(c.gauges.f64).(table[func() T])
	}
}

func counterTable[T Integer](c *collection) weakTable[T] {
	var zero T
	switch any(zero).(type) {
	case int64:
		return any(c.counters.i64).(weakTable[T])
	default:
		return any(c.counters.u64).(weakTable[T])
	}
}

func timerTable[A histogram.Kind](c *collection) table[*timer.Timer[A]] {
	var zero A
	switch any(zero).(type) {
	case *histogram.SlidingWindow:
		return any(c.timers.sliding).(table[*timer.Timer[A]])
	default:
		return any(c.timers.uniform).(table[*timer.Timer[A]])
	}
}
