package histogram

import "sync"

// SlidingWindow retains the last size recorded values.
type SlidingWindow struct {
	mutex  sync.Mutex
	values []int64
	next   int
	count  uint64
}

// NewSlidingWindow creates a window of the given size. Non-positive sizes
// fall back to DefaultWindowSize.
func NewSlidingWindow(size int) *SlidingWindow {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &SlidingWindow{values: make([]int64, 0, size)}
}

func (w *SlidingWindow) Record(v int64) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	w.count++
	if len(w.values) < cap(w.values) {
		w.values = append(w.values, v)
		return
	}

	w.values[w.next] = v
	w.next = (w.next + 1) % len(w.values)
}

func (w *SlidingWindow) Snapshot() Snapshot {
	w.mutex.Lock()
	count := w.count
	values := make([]int64, len(w.values))
	copy(values, w.values)
	w.mutex.Unlock()

	return newSnapshot(count, values)
}
