package entsoe

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strings"
	"time"
)

// Generation psrType codes mapped to dataset column names.
var psrTechNames = map[string]string{
	"B11": "wind_onshore",
	"B12": "wind_offshore",
	"B16": "solar",
}

// Point is one expanded observation of a market document time series.
type Point struct {
	Time     time.Time
	Quantity float64 // NaN when the point carries no quantity
	Price    float64 // NaN when the point carries no price
}

// Series is one TimeSeries block with its points placed on the time axis.
type Series struct {
	PsrType string // e.g. B16, empty for load and price documents
	Points  []Point
}

// XML shapes shared by GL_ and Publication_ market documents. Tags match by
// local name only, so the document namespace does not matter.
type marketDocumentXML struct {
	TimeSeries []timeSeriesXML `xml:"TimeSeries"`
}

type timeSeriesXML struct {
	PsrType string      `xml:"MktPSRType>psrType"`
	Periods []periodXML `xml:"Period"`
}

type periodXML struct {
	Start      string     `xml:"timeInterval>start"`
	Resolution string     `xml:"resolution"`
	Points     []pointXML `xml:"Point"`
}

type pointXML struct {
	Position int      `xml:"position"`
	Quantity *float64 `xml:"quantity"`
	Price    *float64 `xml:"price.amount"`
}

type ackXML struct {
	Reasons []struct {
		Code string `xml:"code"`
		Text string `xml:"text"`
	} `xml:"Reason"`
}

// parseDocument dispatches on the document root: market documents become
// series, acknowledgements become an *AckError.
func parseDocument(body []byte) ([]Series, error) {
	root, err := rootElement(body)
	if err != nil {
		return nil, err
	}

	switch root {
	case "Acknowledgement_MarketDocument":
		var ack ackXML
		if err := xml.Unmarshal(body, &ack); err != nil {
			return nil, fmt.Errorf("parse acknowledgement: %w", err)
		}
		ackErr := &AckError{}
		for _, r := range ack.Reasons {
			ackErr.Reasons = append(ackErr.Reasons, AckReason{Code: r.Code, Text: r.Text})
		}
		return nil, ackErr

	case "GL_MarketDocument", "Publication_MarketDocument":
		var doc marketDocumentXML
		if err := xml.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("parse market document: %w", err)
		}
		return expandSeries(doc)

	default:
		return nil, fmt.Errorf("unexpected document root %q", root)
	}
}

// rootElement returns the local name of the first start element.
func rootElement(body []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(body))
	for {
		tok, err := decoder.Token()
		if err != nil {
			return "", fmt.Errorf("read document root: %w", err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Local, nil
		}
	}
}

// expandSeries places every point on the time axis using the period start and
// resolution: timestamp = start + (position-1) * step.
func expandSeries(doc marketDocumentXML) ([]Series, error) {
	var out []Series
	for _, ts := range doc.TimeSeries {
		series := Series{PsrType: ts.PsrType}
		for _, period := range ts.Periods {
			start, err := parseIntervalStart(period.Start)
			if err != nil {
				return nil, fmt.Errorf("parse period start %q: %w", period.Start, err)
			}
			step := resolutionStep(period.Resolution)
			for _, p := range period.Points {
				pt := Point{
					Time:     start.Add(time.Duration(p.Position-1) * step),
					Quantity: math.NaN(),
					Price:    math.NaN(),
				}
				if p.Quantity != nil {
					pt.Quantity = *p.Quantity
				}
				if p.Price != nil {
					pt.Price = *p.Price
				}
				series.Points = append(series.Points, pt)
			}
		}
		out = append(out, series)
	}
	return out, nil
}

var intervalLayouts = []string{
	"2006-01-02T15:04Z07:00",
	time.RFC3339,
}

func parseIntervalStart(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range intervalLayouts {
		t, err := time.Parse(layout, strings.TrimSpace(s))
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// resolutionStep maps an ISO 8601 duration to the point step, defaulting to
// hourly when the resolution is missing or unknown.
func resolutionStep(resolution string) time.Duration {
	switch {
	case strings.Contains(resolution, "PT15M"):
		return 15 * time.Minute
	case strings.Contains(resolution, "PT30M"):
		return 30 * time.Minute
	default:
		return time.Hour
	}
}
