package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/config"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/dataset"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/openmeteo"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/timeseries"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/collector.yaml", "path to config file")
	startStr := flag.String("start", "", "first delivery date, YYYY-MM-DD (required)")
	endStr := flag.String("end", "", "last delivery date, YYYY-MM-DD (required)")
	outPath := flag.String("out", "", "output CSV path (default under processed dir)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting weather fetch", "version", version.Version, "config", *configPath)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	start, err := parseDate(*startStr)
	if err != nil {
		logger.Error("invalid -start", "error", err)
		os.Exit(1)
	}
	end, err := parseDate(*endStr)
	if err != nil {
		logger.Error("invalid -end", "error", err)
		os.Exit(1)
	}

	client := openmeteo.NewClient(cfg.Weather.BaseURL,
		openmeteo.WithLogger(logger),
		openmeteo.WithTimeout(cfg.HTTP.Timeout),
		openmeteo.WithRetries(cfg.HTTP.MaxRetries, cfg.HTTP.RetryBackoff),
		openmeteo.WithRateLimit(cfg.HTTP.RateLimit, cfg.HTTP.RateBurst),
	)

	ctx := context.Background()
	frames := make([]*timeseries.Frame, 0, len(cfg.Weather.Locations))
	for _, loc := range cfg.Weather.Locations {
		logger.Info("fetching location", "name", loc.Name, "lat", loc.Lat, "lon", loc.Lon)
		series, err := client.FetchHourly(ctx, openmeteo.HourlyRequest{
			Latitude:  loc.Lat,
			Longitude: loc.Lon,
			Start:     start,
			End:       end,
			Variables: cfg.Weather.Variables,
			Timezone:  cfg.Weather.Timezone,
		})
		if err != nil {
			logger.Error("fetch failed", "location", loc.Name, "error", err)
			os.Exit(1)
		}
		frame, err := series.Frame(loc.Name)
		if err != nil {
			logger.Error("frame conversion failed", "location", loc.Name, "error", err)
			os.Exit(1)
		}
		frames = append(frames, frame)
	}

	features, err := dataset.BuildWeatherFeatures(frames, cfg.Weather.Frequency, timeseries.DefaultFeatureOptions())
	if err != nil {
		logger.Error("feature derivation failed", "error", err)
		os.Exit(1)
	}

	out := *outPath
	if out == "" {
		out = filepath.Join(cfg.Output.ProcessedDir,
			fmt.Sprintf("weather_features_%s_%s.csv",
				start.Format("2006-01-02"), end.Format("2006-01-02")))
	}
	if err := timeseries.WriteFile(out, "time", features); err != nil {
		logger.Error("write failed", "path", out, "error", err)
		os.Exit(1)
	}

	logger.Info("weather features written", "path", out, "rows", features.Len(), "columns", len(features.Columns()))
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	return time.Parse("2006-01-02", s)
}
