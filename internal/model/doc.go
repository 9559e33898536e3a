// Package model defines shared data types used across the collection pipeline.
//
// Conventions:
//   - Timestamps: time.Time in the market timezone (Europe/Athens) unless a
//     source is explicitly UTC (ENTSO-E)
//   - Energy: MWh per quarter-hour slot, power: MW
//   - Missing numeric values: math.NaN()
package model
