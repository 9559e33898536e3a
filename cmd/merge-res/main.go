package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/dataset"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/timeseries"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/version"
)

func main() {
	weatherPath := flag.String("weather", "", "weather features CSV (required)")
	iptoPath := flag.String("ipto", "", "quarter-hour RES CSV (required)")
	outPath := flag.String("out", "data/processed/dataset_weather_ipto.csv", "output CSV path")
	resColumn := flag.String("res-column", dataset.ResColumn, "name of the RES value column in the input CSV")
	tolerance := flag.Duration("tolerance", dataset.DefaultMergeTolerance, "max timestamp distance for a pair")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting merge", "version", version.Version)

	if *weatherPath == "" || *iptoPath == "" {
		logger.Error("-weather and -ipto are required")
		os.Exit(1)
	}

	_, weather, err := timeseries.ReadFile(*weatherPath, time.UTC)
	if err != nil {
		logger.Error("read weather CSV failed", "path", *weatherPath, "error", err)
		os.Exit(1)
	}
	logger.Info("weather loaded", "rows", weather.Len(), "columns", len(weather.Columns()))

	_, res, err := timeseries.ReadFile(*iptoPath, time.UTC)
	if err != nil {
		logger.Error("read RES CSV failed", "path", *iptoPath, "error", err)
		os.Exit(1)
	}
	logger.Info("RES loaded", "rows", res.Len())

	if !res.Has(*resColumn) {
		logger.Error("RES CSV has no value column", "column", *resColumn, "columns", res.Columns())
		os.Exit(1)
	}
	res.Rename(*resColumn, dataset.ResColumn)

	merged := dataset.MergeWeatherRes(weather, res, *tolerance)
	if merged.Len() == 0 {
		logger.Error("merge produced no rows")
		os.Exit(1)
	}

	if err := timeseries.WriteFile(*outPath, "timestamp", merged); err != nil {
		logger.Error("write failed", "path", *outPath, "error", err)
		os.Exit(1)
	}
	logger.Info("merged dataset written", "path", *outPath, "rows", merged.Len(), "columns", len(merged.Columns()))
}
