// Package entsoe implements the ENTSO-E transparency platform client used to
// pull realized load, generation per type and day-ahead prices for a bidding
// zone. Long windows are split into the chunk sizes the API accepts, and XML
// market documents are expanded onto the time axis from each period's start
// and resolution.
package entsoe
