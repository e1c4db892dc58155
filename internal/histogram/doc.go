// Package histogram provides the distribution accumulators used by timers.
//
// Every accumulator satisfies Accumulator: Record is safe for concurrent use
// and holds a short critical section, Snapshot copies the retained samples and
// summarizes them without touching recorded state.
//
// Two sampling strategies are available:
//   - SlidingWindow keeps the most recent N samples.
//   - Uniform keeps a uniform random sample of everything ever recorded
//     (Vitter's algorithm R).
package histogram
