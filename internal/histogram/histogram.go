package histogram

const (
	DefaultWindowSize    = 1024
	DefaultReservoirSize = 1028
)

// Accumulator records values and summarizes their distribution.
type Accumulator interface {
	Record(v int64)
	Snapshot() Snapshot
}

// Kind enumerates the accumulators a timer can be built with.
type Kind interface {
	*SlidingWindow | *Uniform
	Accumulator
}

// Name returns a short label for the accumulator kind A.
func Name[A Kind]() string {
	var zero A
	switch any(zero).(type) {
	case *SlidingWindow:
		return "sliding_window"
	case *Uniform:
		return "uniform"
	default:
		return "unknown"
	}
}
