package timeseries

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Frame is a column-oriented time series: a sorted timestamp index plus
// float64 columns of equal length. Missing values are NaN.
type Frame struct {
	times []time.Time
	cols  []string
	data  map[string][]float64
}

// New returns an empty frame.
func New() *Frame {
	return &Frame{data: make(map[string][]float64)}
}

// FromColumns builds a frame from a timestamp slice and named columns.
// Rows are sorted by timestamp; duplicate timestamps keep the first row.
func FromColumns(times []time.Time, columns map[string][]float64) (*Frame, error) {
	for name, vals := range columns {
		if len(vals) != len(times) {
			return nil, fmt.Errorf("column %s has %d values for %d timestamps", name, len(vals), len(times))
		}
	}

	idx := make([]int, len(times))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return times[idx[a]].Before(times[idx[b]]) })

	f := New()
	for _, i := range idx {
		n := len(f.times)
		if n > 0 && f.times[n-1].Equal(times[i]) {
			continue
		}
		f.times = append(f.times, times[i])
	}

	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		src := columns[name]
		vals := make([]float64, 0, len(f.times))
		seen := make(map[int64]bool, len(f.times))
		for _, i := range idx {
			key := times[i].UnixNano()
			if seen[key] {
				continue
			}
			seen[key] = true
			vals = append(vals, src[i])
		}
		f.cols = append(f.cols, name)
		f.data[name] = vals
	}

	return f, nil
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.times) }

// Times returns the timestamp index. The slice must not be mutated.
func (f *Frame) Times() []time.Time { return f.times }

// Columns returns the column names in order.
func (f *Frame) Columns() []string { return f.cols }

// Has reports whether a column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.data[name]
	return ok
}

// Column returns a column's values. The slice must not be mutated.
func (f *Frame) Column(name string) []float64 { return f.data[name] }

// Value returns the value at row i of the named column, NaN if absent.
func (f *Frame) Value(i int, name string) float64 {
	vals, ok := f.data[name]
	if !ok || i < 0 || i >= len(vals) {
		return math.NaN()
	}
	return vals[i]
}

// AddColumn appends a column; an existing column of the same name is replaced.
func (f *Frame) AddColumn(name string, vals []float64) error {
	if len(vals) != len(f.times) {
		return fmt.Errorf("column %s has %d values for %d timestamps", name, len(vals), len(f.times))
	}
	if _, exists := f.data[name]; !exists {
		f.cols = append(f.cols, name)
	}
	f.data[name] = vals
	return nil
}

// OuterJoin merges two frames on the union of their timestamps. Rows missing
// on either side become NaN. Columns of the right frame replace same-named
// columns of the left.
func (f *Frame) OuterJoin(other *Frame) *Frame {
	union := make([]time.Time, 0, len(f.times)+len(other.times))
	i, j := 0, 0
	for i < len(f.times) || j < len(other.times) {
		switch {
		case j >= len(other.times):
			union = append(union, f.times[i])
			i++
		case i >= len(f.times):
			union = append(union, other.times[j])
			j++
		case f.times[i].Before(other.times[j]):
			union = append(union, f.times[i])
			i++
		case other.times[j].Before(f.times[i]):
			union = append(union, other.times[j])
			j++
		default:
			union = append(union, f.times[i])
			i++
			j++
		}
	}

	out := New()
	out.times = union
	for _, name := range f.cols {
		if other.Has(name) {
			continue
		}
		out.cols = append(out.cols, name)
		out.data[name] = reindex(f, name, union)
	}
	for _, name := range other.cols {
		out.cols = append(out.cols, name)
		out.data[name] = reindex(other, name, union)
	}
	return out
}

// Select returns a frame with only the named columns, in the given order.
// Unknown names are ignored.
func (f *Frame) Select(names ...string) *Frame {
	out := New()
	out.times = f.times
	for _, name := range names {
		if vals, ok := f.data[name]; ok {
			out.cols = append(out.cols, name)
			out.data[name] = vals
		}
	}
	return out
}

// Rename changes a column name in place. Renaming a missing column is a no-op.
func (f *Frame) Rename(from, to string) {
	vals, ok := f.data[from]
	if !ok {
		return
	}
	delete(f.data, from)
	f.data[to] = vals
	for i, name := range f.cols {
		if name == from {
			f.cols[i] = to
		}
	}
}

// DropNaN removes rows where the named column is NaN.
func (f *Frame) DropNaN(name string) *Frame {
	vals, ok := f.data[name]
	if !ok {
		return f
	}
	keep := make([]int, 0, len(f.times))
	for i, v := range vals {
		if !math.IsNaN(v) {
			keep = append(keep, i)
		}
	}

	out := New()
	out.times = make([]time.Time, len(keep))
	for k, i := range keep {
		out.times[k] = f.times[i]
	}
	for _, col := range f.cols {
		src := f.data[col]
		dst := make([]float64, len(keep))
		for k, i := range keep {
			dst[k] = src[i]
		}
		out.cols = append(out.cols, col)
		out.data[col] = dst
	}
	return out
}

// ForwardFill replaces NaN runs with the last seen value, up to limit
// consecutive rows per gap. limit <= 0 means unlimited.
func (f *Frame) ForwardFill(limit int) {
	for _, name := range f.cols {
		vals := f.data[name]
		last := math.NaN()
		run := 0
		for i, v := range vals {
			if math.IsNaN(v) {
				run++
				if !math.IsNaN(last) && (limit <= 0 || run <= limit) {
					vals[i] = last
				}
				continue
			}
			last = v
			run = 0
		}
	}
}

// reindex maps a frame column onto a new timestamp index; timestamps not
// present in the source become NaN. Both indexes must be sorted.
func reindex(f *Frame, name string, times []time.Time) []float64 {
	src := f.data[name]
	out := make([]float64, len(times))
	j := 0
	for i, t := range times {
		for j < len(f.times) && f.times[j].Before(t) {
			j++
		}
		if j < len(f.times) && f.times[j].Equal(t) {
			out[i] = src[j]
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}
