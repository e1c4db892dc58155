package histogram

import "sync"

// Uniform keeps a fixed-size uniform random sample of every recorded value.
type Uniform struct {
	mutex  sync.Mutex
	size   int
	count  uint64
	rng    uint64
	values []int64
}

// NewUniform creates a reservoir holding at most size values. The seed feeds
// the replacement RNG; zero is replaced by one.
func NewUniform(size int, seed uint64) *Uniform {
	if size <= 0 {
		size = DefaultReservoirSize
	}
	if seed == 0 {
		seed = 1
	}

	initial := size
	if initial > 64 {
		initial = 64
	}

	return &Uniform{
		size:   size,
		rng:    seed,
		values: make([]int64, 0, initial),
	}
}

func (u *Uniform) Record(v int64) {
	u.mutex.Lock()
	defer u.mutex.Unlock()

	u.count++
	if len(u.values) < u.size {
		u.values = append(u.values, v)
		return
	}

	if j := u.next() % u.count; j < uint64(u.size) {
		u.values[j] = v
	}
}

func (u *Uniform) Snapshot() Snapshot {
	u.mutex.Lock()
	count := u.count
	values := make([]int64, len(u.values))
	copy(values, u.values)
	u.mutex.Unlock()

	return newSnapshot(count, values)
}

// xorshift64
func (u *Uniform) next() uint64 {
	x := u.rng
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	u.rng = x
	return x
}
