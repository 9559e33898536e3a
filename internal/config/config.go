package config

import "time"

// Config is the root configuration for the data-collection tools.
type Config struct {
	Instance  InstanceConfig  `yaml:"instance"`
	Weather   WeatherConfig   `yaml:"weather"`
	IPTO      IPTOConfig      `yaml:"ipto"`
	Henex     HenexConfig     `yaml:"henex"`
	Entsoe    EntsoeConfig    `yaml:"entsoe"`
	HTTP      HTTPConfig      `yaml:"http"`
	Output    OutputConfig    `yaml:"output"`
	Database  DatabaseConfig  `yaml:"database"`
	Collector CollectorConfig `yaml:"collector"`
}

// InstanceConfig identifies this collector instance.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// LocationConfig is a named fetch point for weather data.
type LocationConfig struct {
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lon  float64 `yaml:"lon"`
}

// WeatherConfig holds Open-Meteo settings.
type WeatherConfig struct {
	BaseURL   string           `yaml:"base_url"`
	Timezone  string           `yaml:"timezone"`
	Variables []string         `yaml:"variables"`
	Frequency time.Duration    `yaml:"frequency"` // output grid step (e.g. 15m)
	Locations []LocationConfig `yaml:"locations"`
}

// IPTOConfig holds ADMIE file-download API settings.
type IPTOConfig struct {
	BaseURL   string `yaml:"base_url"`
	Category  string `yaml:"category"`   // e.g. RealTimeSCADARES
	ChunkDays int    `yaml:"chunk_days"` // days per list call
	UseRange  bool   `yaml:"use_range"`  // use the range endpoint
}

// HenexConfig holds HEnEx publication scraping settings.
type HenexConfig struct {
	Pages    []string `yaml:"pages"`     // archive pages to scan for links
	RSSFeeds []string `yaml:"rss_feeds"` // per-auction feeds
}

// EntsoeConfig holds ENTSO-E transparency API settings.
type EntsoeConfig struct {
	BaseURL     string `yaml:"base_url"`
	Token       string `yaml:"token"`
	BiddingZone string `yaml:"bidding_zone"`
}

// HTTPConfig holds shared client behaviour for all upstream APIs.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	RateLimit    float64       `yaml:"rate_limit"` // requests per second
	RateBurst    int           `yaml:"rate_burst"`
}

// OutputConfig holds the on-disk layout for raw and processed data.
type OutputConfig struct {
	RawDir       string `yaml:"raw_dir"`
	ProcessedDir string `yaml:"processed_dir"`
}

// DatabaseConfig holds the optional Postgres sink.
type DatabaseConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// CollectorConfig holds the scheduled-collection daemon settings.
type CollectorConfig struct {
	Schedule     string `yaml:"schedule"`      // cron expression, UTC
	LookbackDays int    `yaml:"lookback_days"` // window each cycle covers
	HealthPort   int    `yaml:"health_port"`
}
