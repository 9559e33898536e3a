package timeseries

import (
	"math"
	"time"
)

// Grid returns timestamps from start to end inclusive, spaced by step.
func Grid(start, end time.Time, step time.Duration) []time.Time {
	if step <= 0 || end.Before(start) {
		return nil
	}
	var out []time.Time
	for t := start; !t.After(end); t = t.Add(step) {
		out = append(out, t)
	}
	return out
}

// AsFreq reindexes the frame onto a regular grid from the first to the last
// timestamp. Grid points without an exact source row become NaN.
func (f *Frame) AsFreq(step time.Duration) *Frame {
	if f.Len() == 0 {
		return f
	}
	grid := Grid(f.times[0], f.times[len(f.times)-1], step)

	out := New()
	out.times = grid
	for _, name := range f.cols {
		out.cols = append(out.cols, name)
		out.data[name] = reindex(f, name, grid)
	}
	return out
}

// ResampleInterpolate reindexes onto a regular grid and fills the new points
// with time-weighted linear interpolation between the surrounding known
// values. Points before the first or after the last known value stay NaN.
func (f *Frame) ResampleInterpolate(step time.Duration) *Frame {
	if f.Len() == 0 {
		return f
	}
	grid := Grid(f.times[0], f.times[len(f.times)-1], step)

	out := New()
	out.times = grid
	for _, name := range f.cols {
		out.cols = append(out.cols, name)
		out.data[name] = interpolate(f.times, f.data[name], grid)
	}
	return out
}

// ResampleMean buckets rows by truncating timestamps to step and averages the
// non-NaN values per bucket. Buckets with no data are NaN.
func (f *Frame) ResampleMean(step time.Duration) *Frame {
	if f.Len() == 0 {
		return f
	}
	first := f.times[0].Truncate(step)
	last := f.times[len(f.times)-1].Truncate(step)
	grid := Grid(first, last, step)

	pos := make(map[int64]int, len(grid))
	for i, t := range grid {
		pos[t.UnixNano()] = i
	}

	out := New()
	out.times = grid
	for _, name := range f.cols {
		sums := make([]float64, len(grid))
		counts := make([]int, len(grid))
		for i, t := range f.times {
			v := f.data[name][i]
			if math.IsNaN(v) {
				continue
			}
			b := pos[t.Truncate(step).UnixNano()]
			sums[b] += v
			counts[b]++
		}
		vals := make([]float64, len(grid))
		for i := range vals {
			if counts[i] == 0 {
				vals[i] = math.NaN()
			} else {
				vals[i] = sums[i] / float64(counts[i])
			}
		}
		out.cols = append(out.cols, name)
		out.data[name] = vals
	}
	return out
}

// interpolate evaluates the piecewise-linear function through the non-NaN
// (times, vals) points at each grid timestamp.
func interpolate(times []time.Time, vals []float64, grid []time.Time) []float64 {
	type point struct {
		t time.Time
		v float64
	}
	known := make([]point, 0, len(vals))
	for i, v := range vals {
		if !math.IsNaN(v) {
			known = append(known, point{times[i], v})
		}
	}

	out := make([]float64, len(grid))
	j := 0
	for i, t := range grid {
		for j < len(known) && !known[j].t.After(t) {
			j++
		}
		// known[j-1].t <= t < known[j].t
		switch {
		case j == 0:
			out[i] = math.NaN()
		case known[j-1].t.Equal(t):
			out[i] = known[j-1].v
		case j == len(known):
			out[i] = math.NaN()
		default:
			span := known[j].t.Sub(known[j-1].t)
			frac := float64(t.Sub(known[j-1].t)) / float64(span)
			out[i] = known[j-1].v + frac*(known[j].v-known[j-1].v)
		}
	}
	return out
}
