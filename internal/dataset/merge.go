package dataset

import (
	"fmt"
	"time"

	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/model"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/timeseries"
)

// ResColumn is the renewable-generation column in merged datasets.
const ResColumn = "res_mwh"

// DefaultMergeTolerance bounds how far apart a weather row and a RES slot may
// be and still be paired. Half a quarter-hour plus a small slack.
const DefaultMergeTolerance = 8 * time.Minute

// ResFrame converts quarter-hour RES records to a frame with one res_mwh
// column.
func ResFrame(records []model.ResRecord) (*timeseries.Frame, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no RES records")
	}
	times := make([]time.Time, len(records))
	vals := make([]float64, len(records))
	for i, rec := range records {
		times[i] = rec.Timestamp
		vals[i] = rec.ResMWh
	}
	return timeseries.FromColumns(times, map[string][]float64{ResColumn: vals})
}

// MergeWeatherRes pairs each weather row with the nearest RES slot within
// tolerance and drops rows that found none. The weather frame is the spine.
func MergeWeatherRes(weather, res *timeseries.Frame, tolerance time.Duration) *timeseries.Frame {
	if tolerance <= 0 {
		tolerance = DefaultMergeTolerance
	}
	merged := timeseries.AsofJoin(weather, res, tolerance)
	return merged.DropNaN(ResColumn)
}
