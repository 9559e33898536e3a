package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/config"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/entsoe"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/timeseries"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/collector.yaml", "path to config file")
	startStr := flag.String("start", "", "window start, YYYY-MM-DD (required)")
	endStr := flag.String("end", "", "window end, YYYY-MM-DD exclusive (required)")
	outDir := flag.String("outdir", "", "output directory (default processed dir)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Token commonly lives in a local .env during development.
	_ = godotenv.Load()

	logger.Info("starting ENTSO-E fetch", "version", version.Version, "config", *configPath)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	token := cfg.Entsoe.Token
	if token == "" {
		token = os.Getenv("ENTSOE_TOKEN")
	}
	if token == "" {
		logger.Error("missing ENTSO-E security token (set entsoe.token or ENTSOE_TOKEN)")
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

	dir := *outDir
	if dir == "" {
		dir = cfg.Output.ProcessedDir
	}

	client := entsoe.NewClient(cfg.Entsoe.BaseURL, token,
		entsoe.WithLogger(logger),
		entsoe.WithTimeout(cfg.HTTP.Timeout),
		entsoe.WithRetries(cfg.HTTP.MaxRetries, cfg.HTTP.RetryBackoff),
	)

	ctx := context.Background()
	zone := cfg.Entsoe.BiddingZone

	logger.Info("fetching total load", "zone", zone)
	load, err := client.FetchTotalLoad(ctx, zone, start, end)
	if err != nil {
		logger.Error("total load fetch failed", "error", err)
		os.Exit(1)
	}
	writeOut(logger, filepath.Join(dir, "entsoe_total_load.csv"), load)

	logger.Info("fetching generation per type", "zone", zone)
	gen, err := client.FetchGenerationPerType(ctx, zone, start, end)
	if err != nil {
		logger.Error("generation fetch failed", "error", err)
		os.Exit(1)
	}
	writeOut(logger, filepath.Join(dir, "entsoe_generation_per_type.csv"), gen)

	logger.Info("fetching day-ahead prices", "zone", zone)
	prices, err := client.FetchDayAheadPrices(ctx, zone, start, end)
	if err != nil {
		logger.Error("price fetch failed", "error", err)
		os.Exit(1)
	}
	writeOut(logger, filepath.Join(dir, "entsoe_dam_prices.csv"), prices)
}

func writeOut(logger *slog.Logger, path string, frame *timeseries.Frame) {
	if frame.Len() == 0 {
		logger.Warn("no rows, skipping output", "path", path)
		return
	}
	if err := timeseries.WriteFile(path, "timestamp", frame); err != nil {
		logger.Error("write failed", "path", path, "error", err)
		os.Exit(1)
	}
	logger.Info("written", "path", path, "rows", frame.Len())
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	return time.Parse("2006-01-02", s)
}
