// Package ewma implements the exponentially weighted moving average used to
// turn raw event counts into smoothed rates.
//
// Writers call Update from any goroutine. A single periodic driver calls Tick
// every Interval; the accumulator never measures wall time itself, so the
// driver's cadence must match the interval the accumulator was built with.
//
//	e := ewma.M1()
//	e.Update(3)
//	e.Tick()
//	e.Rate(time.Second) // 0.6
package ewma
