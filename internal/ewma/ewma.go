package ewma

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"
)

// Interval is the tick cadence of the M1, M5 and M15 accumulators.
const Interval = 5 * time.Second

var (
	m1Alpha  = Alpha(Interval, time.Minute)
	m5Alpha  = Alpha(Interval, 5*time.Minute)
	m15Alpha = Alpha(Interval, 15*time.Minute)
)

// EWMA is a decaying rate accumulator. All methods are safe for concurrent use.
type EWMA struct {
	uncounted   atomic.Uint64
	alpha       float64
	interval    float64 // nanoseconds
	initialized atomic.Bool
	rate        atomic.Uint64 // float64 bits, events per nanosecond
}

// Alpha returns the smoothing constant for a window sampled every interval.
func Alpha(interval, window time.Duration) float64 {
	return -math.Expm1(-interval.Seconds() / window.Seconds())
}

// New creates an accumulator with smoothing constant alpha that expects
// Tick to be called every interval.
func New(alpha float64, interval time.Duration) *EWMA {
	if !(alpha > 0 && alpha < 1) {
		panic(fmt.Sprintf("ewma: alpha %v out of range (0,1)", alpha))
	}
	if interval <= 0 {
		panic(fmt.Sprintf("ewma: non-positive interval %v", interval))
	}

	return &EWMA{
		alpha:    alpha,
		interval: float64(interval.Nanoseconds()),
	}
}

// M1 returns a one-minute moving average ticked every Interval.
func M1() *EWMA {
	return New(m1Alpha, Interval)
}

// M5 returns a five-minute moving average ticked every Interval.
func M5() *EWMA {
	return New(m5Alpha, Interval)
}

// M15 returns a fifteen-minute moving average ticked every Interval.
func M15() *EWMA {
	return New(m15Alpha, Interval)
}

// Update adds n events to the pending count.
func (e *EWMA) Update(n uint64) {
	e.uncounted.Add(n)
}

// Tick folds the pending count into the smoothed rate.
func (e *EWMA) Tick() {
	count := e.uncounted.Swap(0)
	instant := float64(count) / e.interval

	// The first tick seeds the rate instead of blending against zero.
	if !e.initialized.Swap(true) {
		e.rate.Store(math.Float64bits(instant))
		return
	}

	rate := math.Float64frombits(e.rate.Load())
	e.rate.Store(math.Float64bits(rate + e.alpha*(instant-rate)))
}

// Rate returns the smoothed rate in events per unit.
func (e *EWMA) Rate(unit time.Duration) float64 {
	return math.Float64frombits(e.rate.Load()) * float64(unit)
}

// Alpha returns the smoothing constant.
func (e *EWMA) Alpha() float64 {
	return e.alpha
}
