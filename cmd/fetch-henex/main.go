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
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/henex"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/model"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/collector.yaml", "path to config file")
	startStr := flag.String("start", "", "minimum delivery date, YYYY-MM-DD (empty = open)")
	endStr := flag.String("end", "", "maximum delivery date, YYYY-MM-DD (empty = open)")
	outDir := flag.String("outdir", "", "download directory (default <raw>/henex)")
	useFeeds := flag.Bool("feeds", false, "walk the publication feeds instead of scraping the archive pages")
	overwrite := flag.Bool("overwrite", false, "re-download files that already exist")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting HEnEx fetch", "version", version.Version, "config", *configPath)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	start, end, err := parseWindow(*startStr, *endStr)
	if err != nil {
		logger.Error("invalid date window", "error", err)
		os.Exit(1)
	}

	dir := *outDir
	if dir == "" {
		dir = filepath.Join(cfg.Output.RawDir, "henex")
	}

	client := henex.NewClient(
		henex.WithLogger(logger),
		henex.WithRateLimit(cfg.HTTP.RateLimit, cfg.HTTP.RateBurst),
	)

	ctx := context.Background()
	var files []model.RemoteFile
	if *useFeeds {
		files, err = listFromFeeds(ctx, client, cfg.Henex.RSSFeeds, logger)
	} else {
		files, err = listFromPages(ctx, client, cfg.Henex.Pages, logger)
	}
	if err != nil {
		logger.Error("listing failed", "error", err)
		os.Exit(1)
	}

	files = henex.FilterByDate(files, start, end)
	logger.Info("workbooks to download", "count", len(files))

	downloaded := 0
	for _, file := range files {
		if _, err := client.Download(ctx, file, dir, *overwrite); err != nil {
			logger.Error("download failed", "name", file.Name, "error", err)
			continue
		}
		downloaded++
	}
	logger.Info("downloads complete", "dir", dir, "downloaded", downloaded, "total", len(files))
}

// listFromPages scrapes the archive pages for direct workbook links.
func listFromPages(ctx context.Context, client *henex.Client, pages []string, logger *slog.Logger) ([]model.RemoteFile, error) {
	seen := make(map[string]struct{})
	var files []model.RemoteFile
	for _, page := range pages {
		found, err := client.ScrapePage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("scrape %s: %w", page, err)
		}
		logger.Info("page scraped", "url", page, "files", len(found))
		for _, f := range found {
			if _, ok := seen[f.URL]; ok {
				continue
			}
			seen[f.URL] = struct{}{}
			files = append(files, f)
		}
	}
	return files, nil
}

// listFromFeeds walks the publication feeds and resolves each entry's
// document page to the workbook URL.
func listFromFeeds(ctx context.Context, client *henex.Client, feeds []string, logger *slog.Logger) ([]model.RemoteFile, error) {
	var files []model.RemoteFile
	for _, feed := range feeds {
		entries, err := client.ListFeed(ctx, feed)
		if err != nil {
			return nil, fmt.Errorf("list feed %s: %w", feed, err)
		}
		logger.Info("feed listed", "url", feed, "entries", len(entries))
		for _, entry := range entries {
			resolved, err := client.ResolveDocument(ctx, entry.URL, entry.Name)
			if err != nil {
				logger.Warn("workbook not found on document page", "name", entry.Name, "error", err)
				continue
			}
			entry.URL = resolved
			files = append(files, entry)
		}
	}
	return files, nil
}

func parseWindow(startStr, endStr string) (start, end time.Time, err error) {
	if startStr != "" {
		start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return
		}
	}
	if endStr != "" {
		end, err = time.Parse("2006-01-02", endStr)
	}
	return
}
