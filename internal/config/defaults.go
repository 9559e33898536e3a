package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"
	DefaultTimezone     = "Europe/Athens"
	DefaultFrequency    = 15 * time.Minute

	DefaultIPTOBaseURL = "https://www.admie.gr"
	DefaultCategory    = "RealTimeSCADARES"
	DefaultChunkDays   = 31

	DefaultEntsoeURL   = "https://web-api.tp.entsoe.eu/api"
	DefaultBiddingZone = "10YGR-HTSO-----Y" // Greek bidding zone EIC code

	DefaultHTTPTimeout  = 30 * time.Second
	DefaultMaxRetries   = 3
	DefaultRetryBackoff = 1 * time.Second
	DefaultRateLimit    = 2.0
	DefaultRateBurst    = 1

	DefaultRawDir       = "data/raw"
	DefaultProcessedDir = "data/processed"

	DefaultDBPort   = 5432
	DefaultDBSSL    = "prefer"
	DefaultMaxConns = 10
	DefaultMinConns = 2

	DefaultSchedule     = "30 5 * * *" // daily, after IPTO publishes the previous day
	DefaultLookbackDays = 2
	DefaultHealthPort   = 8080
)

// DefaultHourlyVariables are the Open-Meteo hourly series fetched per location.
var DefaultHourlyVariables = []string{
	"temperature_2m",
	"wind_speed_10m",
	"wind_gusts_10m",
	"shortwave_radiation",
	"cloud_cover",
	"precipitation",
	"is_day",
}

// DefaultHenexPages are the archive pages scanned for result workbooks.
var DefaultHenexPages = []string{
	"https://www.enexgroup.gr/el/dam-idm-archive",
	"https://www.enexgroup.gr/el/markets-publications-el-intraday-market",
}

// DefaultHenexFeeds are the per-session publication feeds (IDA1, IDA2, IDA3).
var DefaultHenexFeeds = []string{
	"https://www.enexgroup.gr/el/web/guest/markets-publications-el-intraday-market/-/asset_publisher/Ibj5yiegpvGr/rss",
	"https://www.enexgroup.gr/el/web/guest/markets-publications-el-intraday-market/-/asset_publisher/Y8yXgbTu2HIv/rss",
	"https://www.enexgroup.gr/el/web/guest/markets-publications-el-intraday-market/-/asset_publisher/h9LM4w9p33nM/rss",
}

func (c *Config) applyDefaults() {
	// Weather defaults
	if c.Weather.BaseURL == "" {
		c.Weather.BaseURL = DefaultOpenMeteoURL
	}
	if c.Weather.Timezone == "" {
		c.Weather.Timezone = DefaultTimezone
	}
	if len(c.Weather.Variables) == 0 {
		c.Weather.Variables = append([]string(nil), DefaultHourlyVariables...)
	}
	if c.Weather.Frequency == 0 {
		c.Weather.Frequency = DefaultFrequency
	}

	// IPTO defaults
	if c.IPTO.BaseURL == "" {
		c.IPTO.BaseURL = DefaultIPTOBaseURL
	}
	if c.IPTO.Category == "" {
		c.IPTO.Category = DefaultCategory
	}
	if c.IPTO.ChunkDays == 0 {
		c.IPTO.ChunkDays = DefaultChunkDays
	}

	// HEnEx defaults
	if len(c.Henex.Pages) == 0 {
		c.Henex.Pages = append([]string(nil), DefaultHenexPages...)
	}
	if len(c.Henex.RSSFeeds) == 0 {
		c.Henex.RSSFeeds = append([]string(nil), DefaultHenexFeeds...)
	}

	// ENTSO-E defaults
	if c.Entsoe.BaseURL == "" {
		c.Entsoe.BaseURL = DefaultEntsoeURL
	}
	if c.Entsoe.BiddingZone == "" {
		c.Entsoe.BiddingZone = DefaultBiddingZone
	}

	// HTTP defaults
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = DefaultHTTPTimeout
	}
	if c.HTTP.MaxRetries == 0 {
		c.HTTP.MaxRetries = DefaultMaxRetries
	}
	if c.HTTP.RetryBackoff == 0 {
		c.HTTP.RetryBackoff = DefaultRetryBackoff
	}
	if c.HTTP.RateLimit == 0 {
		c.HTTP.RateLimit = DefaultRateLimit
	}
	if c.HTTP.RateBurst == 0 {
		c.HTTP.RateBurst = DefaultRateBurst
	}

	// Output defaults
	if c.Output.RawDir == "" {
		c.Output.RawDir = DefaultRawDir
	}
	if c.Output.ProcessedDir == "" {
		c.Output.ProcessedDir = DefaultProcessedDir
	}

	// Database defaults
	applyDBDefaults(&c.Database.Postgres)

	// Collector defaults
	if c.Collector.Schedule == "" {
		c.Collector.Schedule = DefaultSchedule
	}
	if c.Collector.LookbackDays == 0 {
		c.Collector.LookbackDays = DefaultLookbackDays
	}
	if c.Collector.HealthPort == 0 {
		c.Collector.HealthPort = DefaultHealthPort
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSL
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
