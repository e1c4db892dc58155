package meter

import (
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/angeloszaimis/go-metrics/internal/ewma"
)

// Meter tracks how often an event happens.
type Meter struct {
	count atomic.Uint64
	clock clock.Clock
	start time.Time

	m1  *ewma.EWMA
	m5  *ewma.EWMA
	m15 *ewma.EWMA
}

// Snapshot is a point-in-time view of a Meter with rates in events per second.
type Snapshot struct {
	Count    uint64  `json:"count"`
	MeanRate float64 `json:"mean_rate"`
	Rate1    float64 `json:"m1_rate"`
	Rate5    float64 `json:"m5_rate"`
	Rate15   float64 `json:"m15_rate"`
}

// New creates a meter whose lifetime average is measured against clk.
// A nil clk uses the wall clock.
func New(clk clock.Clock) *Meter {
	if clk == nil {
		clk = clock.New()
	}

	return &Meter{
		clock: clk,
		start: clk.Now(),
		m1:    ewma.M1(),
		m5:    ewma.M5(),
		m15:   ewma.M15(),
	}
}

// Mark records n events.
func (m *Meter) Mark(n uint64) {
	m.count.Add(n)
	m.m1.Update(n)
	m.m5.Update(n)
	m.m15.Update(n)
}

// Tick folds pending marks into the moving averages.
func (m *Meter) Tick() {
	m.m1.Tick()
	m.m5.Tick()
	m.m15.Tick()
}

// Count returns the number of events marked since creation.
func (m *Meter) Count() uint64 {
	return m.count.Load()
}

// MeanRate returns the lifetime average rate in events per unit.
func (m *Meter) MeanRate(unit time.Duration) float64 {
	count := m.count.Load()
	if count == 0 {
		return 0
	}

	elapsed := m.clock.Since(m.start)
	if elapsed <= 0 {
		return 0
	}

	return float64(count) / float64(elapsed) * float64(unit)
}

// Rate1 returns the one-minute moving average in events per unit.
func (m *Meter) Rate1(unit time.Duration) float64 {
	return m.m1.Rate(unit)
}

// Rate5 returns the five-minute moving average in events per unit.
func (m *Meter) Rate5(unit time.Duration) float64 {
	return m.m5.Rate(unit)
}

// Rate15 returns the fifteen-minute moving average in events per unit.
func (m *Meter) Rate15(unit time.Duration) float64 {
	return m.m15.Rate(unit)
}

// Snapshot returns the current values with rates per second.
func (m *Meter) Snapshot() Snapshot {
	return Snapshot{
		Count:    m.Count(),
		MeanRate: m.MeanRate(time.Second),
		Rate1:    m.Rate1(time.Second),
		Rate5:    m.Rate5(time.Second),
		Rate15:   m.Rate15(time.Second),
	}
}
