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
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/ipto"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/model"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/timeseries"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/collector.yaml", "path to config file")
	startStr := flag.String("start", "", "first date, YYYY-MM-DD (required)")
	endStr := flag.String("end", "", "last date, YYYY-MM-DD (required)")
	outDir := flag.String("outdir", "", "download directory (default <raw>/ipto)")
	parse := flag.Bool("parse", false, "parse downloaded workbooks into a quarter-hour CSV")
	overwrite := flag.Bool("overwrite", false, "re-download files that already exist")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting IPTO fetch", "version", version.Version, "config", *configPath)

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

	dir := *outDir
	if dir == "" {
		dir = filepath.Join(cfg.Output.RawDir, "ipto")
	}

	client := ipto.NewClient(cfg.IPTO.BaseURL,
		ipto.WithLogger(logger),
		ipto.WithChunkDays(cfg.IPTO.ChunkDays),
		ipto.WithRangeEndpoint(cfg.IPTO.UseRange),
	)

	ctx := context.Background()
	files, err := client.ListFiles(ctx, cfg.IPTO.Category, start, end)
	if err != nil {
		logger.Error("list files failed", "error", err)
		os.Exit(1)
	}
	logger.Info("files listed", "category", cfg.IPTO.Category, "count", len(files))

	loc := time.UTC
	if parsed, err := time.LoadLocation(cfg.Weather.Timezone); err == nil {
		loc = parsed
	}

	var records []model.ResRecord
	for _, file := range files {
		path, err := client.Download(ctx, file, dir, *overwrite)
		if err != nil {
			logger.Error("download failed", "name", file.Name, "error", err)
			os.Exit(1)
		}
		if !*parse {
			continue
		}
		recs, err := ipto.ReadSCADAFile(path, loc)
		if err != nil {
			logger.Warn("unreadable workbook, skipping", "name", file.Name, "error", err)
			continue
		}
		records = append(records, recs...)
	}

	if !*parse {
		logger.Info("downloads complete", "dir", dir, "files", len(files))
		return
	}

	frame, err := dataset.ResFrame(records)
	if err != nil {
		logger.Error("no parseable records", "error", err)
		os.Exit(1)
	}
	out := filepath.Join(cfg.Output.ProcessedDir,
		fmt.Sprintf("ipto_15min_%s_%s.csv", start.Format("2006-01-02"), end.Format("2006-01-02")))
	if err := timeseries.WriteFile(out, "timestamp", frame); err != nil {
		logger.Error("write failed", "path", out, "error", err)
		os.Exit(1)
	}
	logger.Info("quarter-hour RES written", "path", out, "rows", frame.Len())
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	return time.Parse("2006-01-02", s)
}
