// Package openmeteo implements the Open-Meteo forecast API client used to
// pull hourly weather series for the configured RES hotspots.
package openmeteo
