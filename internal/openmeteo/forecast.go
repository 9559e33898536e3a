package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/timeseries"
)

// hourlyTimeLayout is the timestamp format Open-Meteo uses for hourly series.
const hourlyTimeLayout = "2006-01-02T15:04"

// HourlyRequest describes one hourly-series fetch.
type HourlyRequest struct {
	Latitude  float64
	Longitude float64
	Start     time.Time // First delivery date, inclusive
	End       time.Time // Last delivery date, inclusive
	Variables []string  // Hourly variable names (e.g. temperature_2m)
	Timezone  string    // IANA name, e.g. Europe/Athens
}

// Series holds the hourly values returned for one location.
type Series struct {
	Times  []time.Time
	Values map[string][]float64 // variable -> values aligned with Times
}

// FetchHourly fetches the requested hourly variables for one location.
// It fails when the response carries no hourly timestamps.
func (c *Client) FetchHourly(ctx context.Context, req HourlyRequest) (*Series, error) {
	if len(req.Variables) == 0 {
		return nil, fmt.Errorf("no hourly variables requested")
	}

	query := url.Values{}
	query.Set("latitude", strconv.FormatFloat(req.Latitude, 'f', -1, 64))
	query.Set("longitude", strconv.FormatFloat(req.Longitude, 'f', -1, 64))
	query.Set("hourly", strings.Join(req.Variables, ","))
	query.Set("start_date", req.Start.Format("2006-01-02"))
	query.Set("end_date", req.End.Format("2006-01-02"))
	if req.Timezone != "" {
		query.Set("timezone", req.Timezone)
	}

	body, err := c.doWithRetry(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("fetch hourly: %w", err)
	}

	var resp struct {
		Hourly map[string]json.RawMessage `json:"hourly"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	rawTimes, ok := resp.Hourly["time"]
	if !ok {
		return nil, fmt.Errorf("no hourly data returned for (%v,%v)", req.Latitude, req.Longitude)
	}
	var stamps []string
	if err := json.Unmarshal(rawTimes, &stamps); err != nil {
		return nil, fmt.Errorf("unmarshal hourly.time: %w", err)
	}
	if len(stamps) == 0 {
		return nil, fmt.Errorf("no hourly data returned for (%v,%v)", req.Latitude, req.Longitude)
	}

	loc := time.UTC
	if req.Timezone != "" {
		if parsed, err := time.LoadLocation(req.Timezone); err == nil {
			loc = parsed
		}
	}

	series := &Series{
		Times:  make([]time.Time, len(stamps)),
		Values: make(map[string][]float64, len(req.Variables)),
	}
	for i, s := range stamps {
		t, err := time.ParseInLocation(hourlyTimeLayout, s, loc)
		if err != nil {
			return nil, fmt.Errorf("parse hourly timestamp %q: %w", s, err)
		}
		series.Times[i] = t
	}

	for _, variable := range req.Variables {
		vals := nanSlice(len(stamps))
		if raw, ok := resp.Hourly[variable]; ok {
			var parsed []*float64
			if err := json.Unmarshal(raw, &parsed); err != nil {
				return nil, fmt.Errorf("unmarshal hourly.%s: %w", variable, err)
			}
			for i := 0; i < len(parsed) && i < len(vals); i++ {
				if parsed[i] != nil {
					vals[i] = *parsed[i]
				}
			}
		}
		series.Values[variable] = vals
	}

	return series, nil
}

// Frame converts the series to a timeseries frame with columns named
// "<prefix>__<variable>".
func (s *Series) Frame(prefix string) (*timeseries.Frame, error) {
	columns := make(map[string][]float64, len(s.Values))
	for variable, vals := range s.Values {
		columns[prefix+"__"+variable] = vals
	}
	return timeseries.FromColumns(s.Times, columns)
}

func nanSlice(n int) []float64 {
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = math.NaN()
	}
	return vals
}
