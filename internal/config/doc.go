// Package config loads and validates the YAML configuration shared by the
// collection CLIs and the collector daemon.
//
// Loading is split into three steps so callers can pick how strict they need
// to be: Load (parse + ${VAR} expansion), LoadWithDefaults, LoadAndValidate.
package config
