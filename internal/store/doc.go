// Package store persists collection runs and merged observation frames in
// PostgreSQL. Frames are written in long format (run, timestamp, column,
// value) through the binary copy protocol, so arbitrary column sets fit one
// table.
package store
