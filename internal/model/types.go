package model

import (
	"time"

	"github.com/google/uuid"
)

// Location is a named weather fetch point, typically a RES hotspot.
type Location struct {
	Name string  // Column prefix in the weather frame (e.g. "thiva")
	Lat  float64 // Latitude, degrees
	Lon  float64 // Longitude, degrees
}

// ResRecord is one quarter-hour of renewable generation from the grid operator.
type ResRecord struct {
	Timestamp time.Time // Start of the 15-minute slot
	ResMWh    float64   // Injected RES energy, NaN when the source file had a gap
}

// Auction identifies an intraday auction session on the power exchange.
type Auction string

const (
	AuctionIDA1 Auction = "IDA1"
	AuctionIDA2 Auction = "IDA2"
	AuctionIDA3 Auction = "IDA3"
)

// Auctions lists the intraday sessions in publication order.
var Auctions = []Auction{AuctionIDA1, AuctionIDA2, AuctionIDA3}

// RemoteFile is a downloadable file announced by an upstream publisher.
type RemoteFile struct {
	Name string    // Filename as published
	URL  string    // Absolute download URL
	Date time.Time // Delivery date encoded in the filename, zero if unknown
}

// CollectionRun records one end-to-end collection cycle.
type CollectionRun struct {
	ID          uuid.UUID
	Source      string    // e.g. "weather+ipto"
	WindowStart time.Time // Inclusive
	WindowEnd   time.Time // Inclusive
	StartedAt   time.Time
	CompletedAt time.Time
	Rows        int    // Rows in the merged output
	Error       string // Empty on success
}
