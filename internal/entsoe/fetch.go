package entsoe

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"sort"
	"time"

	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/timeseries"
)

// FetchTotalLoad returns the realized total load (A65) for a bidding zone as
// a frame with one column, load_mw. Chunks with no published data are skipped.
func (c *Client) FetchTotalLoad(ctx context.Context, zone string, from, to time.Time) (*timeseries.Frame, error) {
	var times []time.Time
	var values []float64

	for _, chunk := range TimeChunks(from, to, realizedChunkHours) {
		query := url.Values{}
		query.Set("documentType", docTotalLoad)
		query.Set("processType", procRealized)
		query.Set("outBiddingZone_Domain", zone)
		query.Set("periodStart", chunk.From.UTC().Format(periodLayout))
		query.Set("periodEnd", chunk.To.UTC().Format(periodLayout))

		series, err := c.fetchChunk(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("fetch total load: %w", err)
		}
		for _, s := range series {
			for _, p := range s.Points {
				times = append(times, p.Time)
				values = append(values, p.Quantity)
			}
		}
	}

	return timeseries.FromColumns(times, map[string][]float64{"load_mw": values})
}

// FetchGenerationPerType returns realized generation per type (A75) for the
// RES technologies, as a frame with columns wind_onshore, wind_offshore and
// solar. Several series for the same technology are summed per timestamp.
func (c *Client) FetchGenerationPerType(ctx context.Context, zone string, from, to time.Time) (*timeseries.Frame, error) {
	sums := make(map[string]map[int64]float64, len(psrTechNames))
	stamps := make(map[int64]time.Time)

	for _, chunk := range TimeChunks(from, to, realizedChunkHours) {
		query := url.Values{}
		query.Set("documentType", docGenPerType)
		query.Set("processType", procRealized)
		query.Set("in_Domain", zone)
		query.Set("periodStart", chunk.From.UTC().Format(periodLayout))
		query.Set("periodEnd", chunk.To.UTC().Format(periodLayout))

		series, err := c.fetchChunk(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("fetch generation per type: %w", err)
		}
		for _, s := range series {
			tech, ok := psrTechNames[s.PsrType]
			if !ok {
				continue
			}
			if sums[tech] == nil {
				sums[tech] = make(map[int64]float64)
			}
			for _, p := range s.Points {
				if math.IsNaN(p.Quantity) {
					continue
				}
				key := p.Time.Unix()
				sums[tech][key] += p.Quantity
				stamps[key] = p.Time
			}
		}
	}

	keys := make([]int64, 0, len(stamps))
	for key := range stamps {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	times := make([]time.Time, len(keys))
	for i, key := range keys {
		times[i] = stamps[key]
	}

	columns := make(map[string][]float64, len(sums))
	for tech, byTime := range sums {
		vals := make([]float64, len(keys))
		for i, key := range keys {
			if v, ok := byTime[key]; ok {
				vals[i] = v
			} else {
				vals[i] = math.NaN()
			}
		}
		columns[tech] = vals
	}

	return timeseries.FromColumns(times, columns)
}

// FetchDayAheadPrices returns day-ahead market prices (A44) as a frame with
// one column, dam_eur_mwh.
func (c *Client) FetchDayAheadPrices(ctx context.Context, zone string, from, to time.Time) (*timeseries.Frame, error) {
	var times []time.Time
	var values []float64

	for _, chunk := range TimeChunks(from, to, priceChunkHours) {
		query := url.Values{}
		query.Set("documentType", docDayAheadPrice)
		query.Set("processType", procDayAhead)
		query.Set("in_Domain", zone)
		query.Set("out_Domain", zone)
		query.Set("periodStart", chunk.From.UTC().Format(periodLayout))
		query.Set("periodEnd", chunk.To.UTC().Format(periodLayout))

		series, err := c.fetchChunk(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("fetch day-ahead prices: %w", err)
		}
		for _, s := range series {
			for _, p := range s.Points {
				times = append(times, p.Time)
				values = append(values, p.Price)
			}
		}
	}

	return timeseries.FromColumns(times, map[string][]float64{"dam_eur_mwh": values})
}

// fetchChunk performs one API call and parses the answer. An acknowledgement
// means the interval has no published data yet; it is logged and treated as
// an empty chunk so a long range survives gaps at its edges.
func (c *Client) fetchChunk(ctx context.Context, query url.Values) ([]Series, error) {
	body, err := c.doWithRetry(ctx, query)
	if err != nil {
		return nil, err
	}

	series, err := parseDocument(body)
	if err != nil {
		var ack *AckError
		if errors.As(err, &ack) {
			c.logger.Warn("no data for interval",
				"documentType", query.Get("documentType"),
				"periodStart", query.Get("periodStart"),
				"reason", ack.Error(),
			)
			return nil, nil
		}
		return nil, err
	}
	return series, nil
}
