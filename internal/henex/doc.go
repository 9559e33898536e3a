// Package henex fetches and reads HEnEx (Hellenic Energy Exchange) result
// workbooks for the day-ahead market and the three intraday auctions.
//
// Workbooks are discovered two ways: scraping the public archive pages for
// direct .xlsx links, and walking the per-auction Atom feeds whose entries
// point at intermediate document pages. Column names inside the workbooks
// are preserved exactly as published.
package henex
