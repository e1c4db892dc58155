// Package scheduler drives the periodic decay of every meter and timer held by
// a processor.
//
// Every ewma.Interval the scheduler posts one task to the processor's worker
// that ticks all meters and timers and sweeps counter entries whose cells were
// released. The scheduler must be stopped before the processor is closed.
package scheduler
