// Package dataset assembles the processed outputs: weather feature frames,
// the weather+RES merge and the combined market dataset.
//
// The combined dataset uses the intraday auction rows as its spine. Day-ahead
// columns are averaged per delivery period and joined with a DAM_ prefix,
// weather features are resampled to hourly means, and intraday column names
// are kept exactly as published.
package dataset
