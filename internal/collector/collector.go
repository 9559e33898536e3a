package collector

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/config"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/dataset"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/ipto"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/model"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/openmeteo"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/timeseries"
)

// RunSource tags collection runs produced by the weather+RES cycle.
const RunSource = "weather+ipto"

// WeatherFetcher provides hourly weather series.
type WeatherFetcher interface {
	FetchHourly(ctx context.Context, req openmeteo.HourlyRequest) (*openmeteo.Series, error)
}

// FileSource lists and downloads grid-operator files.
type FileSource interface {
	ListFiles(ctx context.Context, category string, from, to time.Time) ([]model.RemoteFile, error)
	Download(ctx context.Context, file model.RemoteFile, dir string, overwrite bool) (string, error)
}

// RunStore persists completed runs and their merged frames.
type RunStore interface {
	SaveRun(ctx context.Context, run model.CollectionRun) error
	SaveFrame(ctx context.Context, run model.CollectionRun, f *timeseries.Frame) (int64, error)
}

// Collector executes one end-to-end collection cycle: weather features, grid
// RES files, the asof merge and the output CSVs. Upstreams are called
// sequentially; none of the public sources tolerates bursts.
type Collector struct {
	cfg     *config.Config
	weather WeatherFetcher
	files   FileSource
	store   RunStore // nil when the database sink is disabled
	logger  *slog.Logger
	loc     *time.Location

	readSCADA func(path string, loc *time.Location) ([]model.ResRecord, error)
	onRun     func(model.CollectionRun)
}

// Option configures a Collector.
type Option func(*Collector)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) {
		c.logger = logger
	}
}

// WithSCADAReader replaces the workbook reader.
func WithSCADAReader(fn func(path string, loc *time.Location) ([]model.ResRecord, error)) Option {
	return func(c *Collector) {
		c.readSCADA = fn
	}
}

// WithRunCallback registers a hook invoked with every completed run, failed
// ones included.
func WithRunCallback(fn func(model.CollectionRun)) Option {
	return func(c *Collector) {
		c.onRun = fn
	}
}

// New creates a Collector. store may be nil.
func New(cfg *config.Config, weather WeatherFetcher, files FileSource, store RunStore, opts ...Option) *Collector {
	loc := time.UTC
	if parsed, err := time.LoadLocation(cfg.Weather.Timezone); err == nil {
		loc = parsed
	}

	c := &Collector{
		cfg:       cfg,
		weather:   weather,
		files:     files,
		store:     store,
		logger:    slog.Default(),
		loc:       loc,
		readSCADA: ipto.ReadSCADAFile,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes one collection cycle over the inclusive date window and
// returns the recorded run. The run is persisted even when the cycle fails
// partway, with its error noted.
func (c *Collector) Run(ctx context.Context, from, to time.Time) (model.CollectionRun, error) {
	run := model.CollectionRun{
		ID:          uuid.New(),
		Source:      RunSource,
		WindowStart: from,
		WindowEnd:   to,
		StartedAt:   time.Now().UTC(),
	}
	c.logger.Info("collection cycle started",
		"run", run.ID,
		"from", from.Format("2006-01-02"),
		"to", to.Format("2006-01-02"),
	)

	merged, err := c.collect(ctx, from, to)
	run.CompletedAt = time.Now().UTC()
	if err != nil {
		run.Error = err.Error()
	} else {
		run.Rows = merged.Len()
	}

	if c.store != nil {
		if saveErr := c.store.SaveRun(ctx, run); saveErr != nil {
			c.logger.Error("save run failed", "run", run.ID, "error", saveErr)
		} else if err == nil && merged.Len() > 0 {
			if _, saveErr := c.store.SaveFrame(ctx, run, merged); saveErr != nil {
				c.logger.Error("save frame failed", "run", run.ID, "error", saveErr)
			}
		}
	}

	if c.onRun != nil {
		c.onRun(run)
	}

	if err != nil {
		c.logger.Error("collection cycle failed", "run", run.ID, "error", err)
		return run, err
	}

	c.logger.Info("collection cycle completed",
		"run", run.ID,
		"rows", run.Rows,
		"duration", run.CompletedAt.Sub(run.StartedAt),
	)
	return run, nil
}

func (c *Collector) collect(ctx context.Context, from, to time.Time) (*timeseries.Frame, error) {
	features, err := c.fetchWeatherFeatures(ctx, from, to)
	if err != nil {
		return nil, err
	}

	weatherPath := filepath.Join(c.cfg.Output.ProcessedDir,
		fmt.Sprintf("weather_features_%s_%s.csv", from.Format("2006-01-02"), to.Format("2006-01-02")))
	if err := timeseries.WriteFile(weatherPath, "time", features); err != nil {
		return nil, fmt.Errorf("write weather features: %w", err)
	}
	c.logger.Info("weather features written", "path", weatherPath, "rows", features.Len())

	records, err := c.fetchResRecords(ctx, from, to)
	if err != nil {
		return nil, err
	}
	res, err := dataset.ResFrame(records)
	if err != nil {
		return nil, fmt.Errorf("build RES frame: %w", err)
	}

	merged := dataset.MergeWeatherRes(features, res, dataset.DefaultMergeTolerance)
	if merged.Len() == 0 {
		return nil, fmt.Errorf("merge produced no rows for %s..%s",
			from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	mergedPath := filepath.Join(c.cfg.Output.ProcessedDir,
		fmt.Sprintf("dataset_weather_ipto_%s_%s.csv", from.Format("2006-01-02"), to.Format("2006-01-02")))
	if err := timeseries.WriteFile(mergedPath, "timestamp", merged); err != nil {
		return nil, fmt.Errorf("write merged dataset: %w", err)
	}
	c.logger.Info("merged dataset written", "path", mergedPath, "rows", merged.Len())

	return merged, nil
}

// fetchWeatherFeatures pulls the hourly series for every configured location
// and derives the feature frame on the configured grid.
func (c *Collector) fetchWeatherFeatures(ctx context.Context, from, to time.Time) (*timeseries.Frame, error) {
	if len(c.cfg.Weather.Locations) == 0 {
		return nil, fmt.Errorf("no weather locations configured")
	}

	frames := make([]*timeseries.Frame, 0, len(c.cfg.Weather.Locations))
	for _, loc := range c.cfg.Weather.Locations {
		series, err := c.weather.FetchHourly(ctx, openmeteo.HourlyRequest{
			Latitude:  loc.Lat,
			Longitude: loc.Lon,
			Start:     from,
			End:       to,
			Variables: c.cfg.Weather.Variables,
			Timezone:  c.cfg.Weather.Timezone,
		})
		if err != nil {
			return nil, fmt.Errorf("fetch weather for %s: %w", loc.Name, err)
		}
		frame, err := series.Frame(loc.Name)
		if err != nil {
			return nil, fmt.Errorf("frame weather for %s: %w", loc.Name, err)
		}
		frames = append(frames, frame)
		c.logger.Debug("weather fetched", "location", loc.Name, "rows", frame.Len())
	}

	return dataset.BuildWeatherFeatures(frames, c.cfg.Weather.Frequency, timeseries.DefaultFeatureOptions())
}

// fetchResRecords downloads the SCADA RES workbooks for the window and
// parses them into quarter-hour records. Unreadable workbooks are skipped.
func (c *Collector) fetchResRecords(ctx context.Context, from, to time.Time) ([]model.ResRecord, error) {
	files, err := c.files.ListFiles(ctx, c.cfg.IPTO.Category, from, to)
	if err != nil {
		return nil, fmt.Errorf("list RES files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no RES files published for %s..%s",
			from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	rawDir := filepath.Join(c.cfg.Output.RawDir, "ipto")
	var records []model.ResRecord
	for _, file := range files {
		path, err := c.files.Download(ctx, file, rawDir, false)
		if err != nil {
			return nil, fmt.Errorf("download %s: %w", file.Name, err)
		}
		recs, err := c.readSCADA(path, c.loc)
		if err != nil {
			c.logger.Warn("unreadable workbook, skipping", "name", file.Name, "error", err)
			continue
		}
		records = append(records, recs...)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no readable RES workbooks in window")
	}
	return records, nil
}
