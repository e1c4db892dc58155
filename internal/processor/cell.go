package processor

import "sync/atomic"

const cacheLineSize = 64

// Integer lists the counter value kinds.
type Integer interface {
	int64 | uint64
}

// Cell is an atomic counter shared between the registry and its holders.
// It is padded to a cache line so neighbouring cells do not contend.
type Cell[T Integer] struct {
	value atomic.Uint64
	_     [cacheLineSize - 8]byte
}

// Add adds delta and returns the new value.
func (c *Cell[T]) Add(delta T) T {
	return T(c.value.Add(uint64(delta)))
}

// Inc adds one and returns the new value.
func (c *Cell[T]) Inc() T {
	return T(c.value.Add(1))
}

func (c *Cell[T]) Load() T {
	return T(c.value.Load())
}

func (c *Cell[T]) Store(v T) {
	c.value.Store(uint64(v))
}
