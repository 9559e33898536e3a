package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/dataset"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/version"
)

func main() {
	resultsRoot := flag.String("results-root", "", "directory with DAM/ and IDAs/IDA1..IDA3 workbooks (required)")
	weatherCSV := flag.String("weather", "", "weather features CSV")
	startStr := flag.String("start", "", "first delivery date, YYYY-MM-DD (required)")
	endStr := flag.String("end", "", "last delivery date, YYYY-MM-DD (required)")
	outPath := flag.String("out", "data/processed/idm_dataset.csv", "output CSV path")
	timezone := flag.String("timezone", "UTC", "timezone of workbook timestamps")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting dataset build", "version", version.Version)

	if *resultsRoot == "" {
		logger.Error("-results-root is required")
		os.Exit(1)
	}
	start, err := time.Parse("2006-01-02", *startStr)
	if err != nil {
		logger.Error("invalid -start", "error", err)
		os.Exit(1)
	}
	end, err := time.Parse("2006-01-02", *endStr)
	if err != nil {
		logger.Error("invalid -end", "error", err)
		os.Exit(1)
	}
	loc, err := time.LoadLocation(*timezone)
	if err != nil {
		logger.Error("invalid -timezone", "error", err)
		os.Exit(1)
	}

	builder := dataset.NewBuilder(dataset.WithLogger(logger))
	rows, err := builder.Build(dataset.BuildOptions{
		ResultsRoot: *resultsRoot,
		WeatherCSV:  *weatherCSV,
		Start:       start,
		End:         end,
		OutPath:     *outPath,
		Location:    loc,
	})
	if err != nil {
		logger.Error("build failed", "error", err)
		os.Exit(1)
	}
	logger.Info("dataset built", "path", *outPath, "rows", rows)
}
