// Package ipto implements the client for the ADMIE (IPTO) operation-market
// file API and the parser for its RealTimeSCADARES workbooks.
//
// The file endpoints require cookies from the public landing page and start
// returning 403 when throttled, so the client bootstraps a session lazily
// and routes every call through a circuit breaker.
package ipto
