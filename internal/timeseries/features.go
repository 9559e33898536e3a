package timeseries

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// FeatureOptions controls which derived columns DeriveFeatures produces.
type FeatureOptions struct {
	// AggVariables are variable suffixes aggregated across locations
	// (columns named "<location>__<variable>").
	AggVariables []string

	// DeltaBases get a one-step difference column ("<base>__delta1").
	DeltaBases []string

	// RollingBases get rolling mean/std columns per window.
	RollingBases   []string
	RollingWindows []int
}

// DefaultFeatureOptions mirrors the feature set used for intraday-price work:
// cross-location aggregates for the RES-relevant variables, short-horizon
// deltas and rolling statistics for wind and irradiance.
func DefaultFeatureOptions() FeatureOptions {
	return FeatureOptions{
		AggVariables: []string{
			"wind_speed_10m",
			"wind_gusts_10m",
			"shortwave_radiation",
			"cloud_cover",
			"precipitation",
		},
		DeltaBases: []string{
			"AGG__mean__wind_speed_10m",
			"AGG__mean__shortwave_radiation",
			"AGG__mean__cloud_cover",
		},
		RollingBases: []string{
			"AGG__mean__wind_speed_10m",
			"AGG__mean__shortwave_radiation",
		},
		RollingWindows: []int{3, 6},
	}
}

// DeriveFeatures adds aggregate, delta, rolling and calendar columns to a
// copy of the frame and returns it.
func DeriveFeatures(f *Frame, opts FeatureOptions) *Frame {
	out := f.Select(f.Columns()...)

	for _, variable := range opts.AggVariables {
		cols := columnsWithSuffix(out, variable)
		if len(cols) == 0 {
			continue
		}
		means := make([]float64, out.Len())
		medians := make([]float64, out.Len())
		for i := range means {
			row := rowValues(out, cols, i)
			means[i] = meanOrNaN(row)
			medians[i] = medianOrNaN(row)
		}
		out.AddColumn("AGG__mean__"+variable, means)
		out.AddColumn("AGG__median__"+variable, medians)
	}

	// Day/night mask as the mean of the per-location is_day flags.
	if cols := columnsWithSuffix(out, "is_day"); len(cols) > 0 {
		means := make([]float64, out.Len())
		for i := range means {
			means[i] = meanOrNaN(rowValues(out, cols, i))
		}
		out.AddColumn("AGG__mean__is_day", means)
	}

	for _, base := range opts.DeltaBases {
		if !out.Has(base) {
			continue
		}
		out.AddColumn(base+"__delta1", diff1(out.Column(base)))
	}

	for _, w := range opts.RollingWindows {
		for _, base := range opts.RollingBases {
			if !out.Has(base) {
				continue
			}
			std, mean := rolling(out.Column(base), w)
			out.AddColumn(base+"__rollstd"+strconv.Itoa(w), std)
			out.AddColumn(base+"__rollmean"+strconv.Itoa(w), mean)
		}
	}

	addCalendar(out)
	return out
}

func addCalendar(f *Frame) {
	hours := make([]float64, f.Len())
	dows := make([]float64, f.Len())
	months := make([]float64, f.Len())
	for i, t := range f.Times() {
		hours[i] = float64(t.Hour())
		dows[i] = float64((int(t.Weekday()) + 6) % 7) // Monday = 0
		months[i] = float64(t.Month())
	}
	f.AddColumn("cal_hour", hours)
	f.AddColumn("cal_dow", dows)
	f.AddColumn("cal_month", months)
}

func columnsWithSuffix(f *Frame, variable string) []string {
	var cols []string
	for _, name := range f.Columns() {
		if strings.HasSuffix(name, "__"+variable) && !strings.HasPrefix(name, "AGG__") {
			cols = append(cols, name)
		}
	}
	return cols
}

func rowValues(f *Frame, cols []string, i int) []float64 {
	vals := make([]float64, 0, len(cols))
	for _, c := range cols {
		if v := f.Value(i, c); !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	return vals
}

func meanOrNaN(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	return stat.Mean(vals, nil)
}

func medianOrNaN(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

// diff1 is the one-step difference; the first row and rows adjacent to a NaN
// become NaN.
func diff1(vals []float64) []float64 {
	out := make([]float64, len(vals))
	for i := range vals {
		if i == 0 || math.IsNaN(vals[i]) || math.IsNaN(vals[i-1]) {
			out[i] = math.NaN()
			continue
		}
		out[i] = vals[i] - vals[i-1]
	}
	return out
}

// rolling computes sample std and mean over a trailing window of w rows.
// A single observation yields a mean but no std.
func rolling(vals []float64, w int) (std, mean []float64) {
	std = make([]float64, len(vals))
	mean = make([]float64, len(vals))
	for i := range vals {
		lo := i - w + 1
		if lo < 0 {
			lo = 0
		}
		window := make([]float64, 0, w)
		for _, v := range vals[lo : i+1] {
			if !math.IsNaN(v) {
				window = append(window, v)
			}
		}
		switch {
		case len(window) == 0:
			std[i], mean[i] = math.NaN(), math.NaN()
		case len(window) == 1:
			std[i], mean[i] = math.NaN(), window[0]
		default:
			std[i] = stat.StdDev(window, nil)
			mean[i] = stat.Mean(window, nil)
		}
	}
	return std, mean
}
