package config

import "fmt"

// Validate checks that required fields are present and consistent.
// Defaults are expected to have been applied first.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return fmt.Errorf("instance.id is required")
	}

	if len(c.Weather.Locations) == 0 {
		return fmt.Errorf("weather.locations must not be empty")
	}
	for i, loc := range c.Weather.Locations {
		if loc.Name == "" {
			return fmt.Errorf("weather.locations[%d].name is required", i)
		}
		if loc.Lat < -90 || loc.Lat > 90 {
			return fmt.Errorf("weather.locations[%d].lat (%v) out of range", i, loc.Lat)
		}
		if loc.Lon < -180 || loc.Lon > 180 {
			return fmt.Errorf("weather.locations[%d].lon (%v) out of range", i, loc.Lon)
		}
	}

	if c.IPTO.ChunkDays < 1 {
		return fmt.Errorf("ipto.chunk_days must be at least 1")
	}

	if c.Database.Enabled {
		db := c.Database.Postgres
		if db.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if db.Name == "" {
			return fmt.Errorf("database.postgres.name is required")
		}
		if db.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
		if db.Password == "" {
			return fmt.Errorf("database.postgres.password is required")
		}
		if db.MinConns > db.MaxConns {
			return fmt.Errorf("database.postgres.min_conns (%d) cannot exceed max_conns (%d)", db.MinConns, db.MaxConns)
		}
	}

	if c.Collector.LookbackDays < 1 {
		return fmt.Errorf("collector.lookback_days must be at least 1")
	}

	return nil
}
