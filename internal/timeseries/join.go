package timeseries

import (
	"math"
	"sort"
	"time"
)

// AsofJoin matches every left row with the nearest right row whose timestamp
// is within tolerance, in either direction. Left rows without a match carry
// NaN for the right columns. Right columns replace same-named left columns.
func AsofJoin(left, right *Frame, tolerance time.Duration) *Frame {
	out := New()
	out.times = left.times

	match := make([]int, len(left.times))
	for i, t := range left.times {
		match[i] = nearestWithin(right.times, t, tolerance)
	}

	for _, name := range left.cols {
		if right.Has(name) {
			continue
		}
		out.cols = append(out.cols, name)
		out.data[name] = left.data[name]
	}
	for _, name := range right.cols {
		src := right.data[name]
		vals := make([]float64, len(left.times))
		for i, m := range match {
			if m < 0 {
				vals[i] = math.NaN()
			} else {
				vals[i] = src[m]
			}
		}
		out.cols = append(out.cols, name)
		out.data[name] = vals
	}
	return out
}

// nearestWithin returns the index of the timestamp closest to t, or -1 when
// the closest one is further away than tolerance. times must be sorted.
func nearestWithin(times []time.Time, t time.Time, tolerance time.Duration) int {
	if len(times) == 0 {
		return -1
	}
	i := sort.Search(len(times), func(k int) bool { return !times[k].Before(t) })

	best := -1
	var bestDist time.Duration
	if i < len(times) {
		best = i
		bestDist = times[i].Sub(t)
	}
	if i > 0 {
		if d := t.Sub(times[i-1]); best < 0 || d < bestDist {
			best = i - 1
			bestDist = d
		}
	}
	if best < 0 || bestDist > tolerance {
		return -1
	}
	return best
}
