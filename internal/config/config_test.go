package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: test-collector
weather:
  base_url: https://api.open-meteo.test/v1/forecast
  locations:
    - name: thiva
      lat: 38.32
      lon: 23.32
ipto:
  category: RealTimeSCADARES
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "test-collector" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "test-collector")
	}
	if cfg.Weather.BaseURL != "https://api.open-meteo.test/v1/forecast" {
		t.Errorf("Weather.BaseURL = %q, want %q", cfg.Weather.BaseURL, "https://api.open-meteo.test/v1/forecast")
	}
	if len(cfg.Weather.Locations) != 1 || cfg.Weather.Locations[0].Name != "thiva" {
		t.Errorf("Weather.Locations = %+v, want single thiva entry", cfg.Weather.Locations)
	}
	if cfg.IPTO.Category != "RealTimeSCADARES" {
		t.Errorf("IPTO.Category = %q, want %q", cfg.IPTO.Category, "RealTimeSCADARES")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_ENTSOE_TOKEN", "secret123")

	yaml := `
instance:
  id: test-collector
entsoe:
  token: ${TEST_ENTSOE_TOKEN}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Entsoe.Token != "secret123" {
		t.Errorf("Entsoe.Token = %q, want %q", cfg.Entsoe.Token, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
instance:
  id: test-collector
weather:
  locations:
    - name: kozani
      lat: 40.30
      lon: 21.79
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Weather.BaseURL != DefaultOpenMeteoURL {
		t.Errorf("Weather.BaseURL = %q, want default %q", cfg.Weather.BaseURL, DefaultOpenMeteoURL)
	}
	if cfg.Weather.Timezone != DefaultTimezone {
		t.Errorf("Weather.Timezone = %q, want default %q", cfg.Weather.Timezone, DefaultTimezone)
	}
	if len(cfg.Weather.Variables) != len(DefaultHourlyVariables) {
		t.Errorf("Weather.Variables has %d entries, want %d", len(cfg.Weather.Variables), len(DefaultHourlyVariables))
	}
	if cfg.HTTP.Timeout != DefaultHTTPTimeout {
		t.Errorf("HTTP.Timeout = %v, want default %v", cfg.HTTP.Timeout, DefaultHTTPTimeout)
	}
	if cfg.IPTO.ChunkDays != DefaultChunkDays {
		t.Errorf("IPTO.ChunkDays = %d, want default %d", cfg.IPTO.ChunkDays, DefaultChunkDays)
	}
	if cfg.Database.Postgres.Port != DefaultDBPort {
		t.Errorf("Database.Postgres.Port = %d, want default %d", cfg.Database.Postgres.Port, DefaultDBPort)
	}
	if cfg.Collector.Schedule != DefaultSchedule {
		t.Errorf("Collector.Schedule = %q, want default %q", cfg.Collector.Schedule, DefaultSchedule)
	}
	if cfg.Weather.Frequency != 15*time.Minute {
		t.Errorf("Weather.Frequency = %v, want %v", cfg.Weather.Frequency, 15*time.Minute)
	}
}

func TestValidate(t *testing.T) {
	validLocations := []LocationConfig{{Name: "thiva", Lat: 38.32, Lon: 23.32}}

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "missing instance id",
			cfg:     Config{},
			wantErr: "instance.id is required",
		},
		{
			name: "no locations",
			cfg: Config{
				Instance: InstanceConfig{ID: "test"},
			},
			wantErr: "weather.locations must not be empty",
		},
		{
			name: "latitude out of range",
			cfg: Config{
				Instance: InstanceConfig{ID: "test"},
				Weather: WeatherConfig{
					Locations: []LocationConfig{{Name: "bad", Lat: 123, Lon: 0}},
				},
				IPTO:      IPTOConfig{ChunkDays: 31},
				Collector: CollectorConfig{LookbackDays: 2},
			},
			wantErr: "weather.locations[0].lat (123) out of range",
		},
		{
			name: "database enabled without password",
			cfg: Config{
				Instance: InstanceConfig{ID: "test"},
				Weather:  WeatherConfig{Locations: validLocations},
				IPTO:     IPTOConfig{ChunkDays: 31},
				Database: DatabaseConfig{
					Enabled:  true,
					Postgres: DBConfig{Host: "localhost", Name: "db", User: "user"},
				},
				Collector: CollectorConfig{LookbackDays: 2},
			},
			wantErr: "database.postgres.password is required",
		},
		{
			name: "min_conns exceeds max_conns",
			cfg: Config{
				Instance: InstanceConfig{ID: "test"},
				Weather:  WeatherConfig{Locations: validLocations},
				IPTO:     IPTOConfig{ChunkDays: 31},
				Database: DatabaseConfig{
					Enabled:  true,
					Postgres: DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 5, MinConns: 10},
				},
				Collector: CollectorConfig{LookbackDays: 2},
			},
			wantErr: "database.postgres.min_conns (10) cannot exceed max_conns (5)",
		},
		{
			name: "valid config",
			cfg: Config{
				Instance:  InstanceConfig{ID: "test"},
				Weather:   WeatherConfig{Locations: validLocations},
				IPTO:      IPTOConfig{ChunkDays: 31},
				Collector: CollectorConfig{LookbackDays: 2},
			},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load() expected error for missing file, got nil")
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}
