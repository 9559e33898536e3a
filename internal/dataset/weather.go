package dataset

import (
	"fmt"
	"time"

	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/timeseries"
)

// forwardFillLimit caps how many consecutive hourly gaps are filled before a
// hole is left in the series.
const forwardFillLimit = 2

// BuildWeatherFeatures merges per-location hourly frames into one feature
// frame: outer join, hourly regularization with a bounded forward fill,
// optional interpolation down to step, then derived features.
func BuildWeatherFeatures(frames []*timeseries.Frame, step time.Duration, opts timeseries.FeatureOptions) (*timeseries.Frame, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("no weather frames to merge")
	}

	merged := frames[0]
	for _, f := range frames[1:] {
		merged = merged.OuterJoin(f)
	}
	if merged.Len() == 0 {
		return nil, fmt.Errorf("merged weather frame is empty")
	}

	merged = merged.AsFreq(time.Hour)
	merged.ForwardFill(forwardFillLimit)

	if step > 0 && step < time.Hour {
		merged = merged.ResampleInterpolate(step)
	}

	return timeseries.DeriveFeatures(merged, opts), nil
}
