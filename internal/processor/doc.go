// Package processor confines the metric registry to a single worker goroutine.
//
// All structural bookkeeping (creating and looking up gauges, counters, meters
// and timers) runs on the worker. Other goroutines reach it through Post,
// which enqueues a task on an unbounded FIFO and returns a Future for its
// result:
//
//	p := processor.New(processor.WithLogger(log))
//	defer p.Close()
//
//	hits := processor.Post(p, func() *processor.Cell[uint64] {
//		return processor.Counter[uint64](p, identity.MustNew("hits", nil))
//	}).Wait()
//
//	hits.Add(1) // hot path, no hop through the worker
//
// Accessors such as Counter, Gauge, Meter and Timer must only be called from
// tasks running on the worker. They compare the calling goroutine against the
// worker and panic on mismatch; that is a bug in the caller, not a runtime
// condition to recover from.
//
// Counters are held weakly. A cell lives as long as some caller keeps the
// *Cell returned by Counter; once the garbage collector reclaims it, the next
// Counter call for the same identity starts over from zero. Gauges, meters and
// timers are owned by the processor and live until Close.
//
// Close stops accepting new work, runs every task already queued, and waits for
// the worker to exit. Posting after Close has started panics.
package processor
