// Package collector runs the end-to-end collection cycle: hourly weather per
// location, the derived feature frame, the grid operator's quarter-hour RES
// workbooks, and the asof merge of the two, written to CSV and optionally to
// PostgreSQL. A cron scheduler repeats the cycle over a trailing window and a
// small HTTP endpoint reports the last run.
package collector
