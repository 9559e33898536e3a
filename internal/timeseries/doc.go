// Package timeseries implements the small column-oriented frame the merge
// pipeline is built on: a sorted time index with float64 columns, outer and
// as-of joins, regular-grid resampling, and the derived weather features.
//
// Conventions:
//   - NaN marks a missing value everywhere
//   - indexes are always sorted ascending and hold unique timestamps
//   - weather columns are named "<location>__<variable>", derived aggregates
//     "AGG__<stat>__<variable>"
package timeseries
