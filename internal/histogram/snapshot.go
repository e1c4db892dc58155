package histogram

import (
	"math"
	"slices"
)

// Snapshot summarizes the samples an accumulator retained at one instant.
// Count is the number of values ever recorded, which can exceed Size.
type Snapshot struct {
	Count  uint64  `json:"count"`
	Size   int     `json:"size"`
	Min    int64   `json:"min"`
	Max    int64   `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	P50    float64 `json:"p50"`
	P75    float64 `json:"p75"`
	P95    float64 `json:"p95"`
	P98    float64 `json:"p98"`
	P99    float64 `json:"p99"`
	P999   float64 `json:"p999"`

	sorted []int64
}

func newSnapshot(count uint64, values []int64) Snapshot {
	snap := Snapshot{Count: count, Size: len(values)}
	if len(values) == 0 {
		return snap
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)
	snap.sorted = sorted

	var sum float64
	for _, v := range sorted {
		sum += float64(v)
	}
	snap.Mean = sum / float64(len(sorted))

	if len(sorted) > 1 {
		var sq float64
		for _, v := range sorted {
			d := float64(v) - snap.Mean
			sq += d * d
		}
		snap.StdDev = math.Sqrt(sq / float64(len(sorted)-1))
	}

	snap.Min = sorted[0]
	snap.Max = sorted[len(sorted)-1]
	snap.P50 = snap.Quantile(0.50)
	snap.P75 = snap.Quantile(0.75)
	snap.P95 = snap.Quantile(0.95)
	snap.P98 = snap.Quantile(0.98)
	snap.P99 = snap.Quantile(0.99)
	snap.P999 = snap.Quantile(0.999)

	return snap
}

// Quantile returns the q-th quantile of the retained samples using linear
// interpolation between closest ranks. It returns NaN when nothing was retained.
func (s Snapshot) Quantile(q float64) float64 {
	if len(s.sorted) == 0 || math.IsNaN(q) {
		return math.NaN()
	}

	last := len(s.sorted) - 1
	if q <= 0 {
		return float64(s.sorted[0])
	}
	if q >= 1 {
		return float64(s.sorted[last])
	}

	pos := q * float64(last)
	low := int(math.Floor(pos))
	high := int(math.Ceil(pos))
	if low == high {
		return float64(s.sorted[low])
	}

	w := pos - float64(low)
	return float64(s.sorted[low])*(1-w) + float64(s.sorted[high])*w
}

// Values returns a sorted copy of the retained samples.
func (s Snapshot) Values() []int64 {
	return slices.Clone(s.sorted)
}
