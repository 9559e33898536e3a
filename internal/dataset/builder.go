package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/henex"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/model"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/timeseries"
)

// AuctionColumn marks which intraday session a row came from.
const AuctionColumn = "AUCTION"

// damPrefix is prepended to day-ahead columns so they never collide with the
// intraday columns of the same workbook layout.
const damPrefix = "DAM_"

// BuildOptions configures one combined-dataset build.
type BuildOptions struct {
	ResultsRoot string    // directory holding DAM/ and IDAs/IDA1..IDA3
	WeatherCSV  string    // weather feature CSV, first column is the timestamp
	Start       time.Time // inclusive delivery bound, zero means open
	End         time.Time // inclusive delivery bound, zero means open
	OutPath     string
	Location    *time.Location // timezone for workbook timestamps, UTC when nil
}

// Builder assembles the combined market dataset: intraday auction rows as the
// spine, day-ahead columns and weather features left-joined on the delivery
// period.
type Builder struct {
	logger *slog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// NewBuilder creates a dataset builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		b.logger = logger
	}
}

// damData holds per-delivery-period means of the numeric day-ahead columns.
type damData struct {
	columns []string
	rows    map[int64][]float64 // delivery period -> means aligned with columns
}

// idaRow is one intraday auction result row. Cells keep the published column
// names untouched.
type idaRow struct {
	mtu     time.Time
	auction model.Auction
	cells   map[string]string
}

// Build reads the workbooks and the weather CSV and writes the combined CSV.
// It returns the number of rows written.
func (b *Builder) Build(opts BuildOptions) (int, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	dam, err := b.loadDAMDir(filepath.Join(opts.ResultsRoot, "DAM"), opts.Start, opts.End, loc)
	if err != nil {
		return 0, fmt.Errorf("load day-ahead results: %w", err)
	}

	idaColumns, idaRows, err := b.loadIDADirs(filepath.Join(opts.ResultsRoot, "IDAs"), opts.Start, opts.End, loc)
	if err != nil {
		return 0, fmt.Errorf("load intraday results: %w", err)
	}
	if len(idaRows) == 0 {
		return 0, fmt.Errorf("no intraday rows in %s", opts.ResultsRoot)
	}

	weather, weatherIndex, err := b.loadWeatherHourly(opts.WeatherCSV, loc)
	if err != nil {
		return 0, fmt.Errorf("load weather features: %w", err)
	}

	rows, err := b.writeCSV(opts.OutPath, idaColumns, idaRows, dam, weather, weatherIndex)
	if err != nil {
		return 0, err
	}

	b.logger.Info("built combined dataset",
		"out", opts.OutPath,
		"rows", rows,
		"ida_columns", len(idaColumns),
		"dam_columns", len(dam.columns),
	)
	return rows, nil
}

// loadDAMDir reads every day-ahead workbook in dir, filters rows to the
// delivery window and averages the numeric columns per delivery period.
// Duplicate periods across publication versions collapse into one mean.
func (b *Builder) loadDAMDir(dir string, start, end time.Time, loc *time.Location) (*damData, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		b.logger.Warn("no day-ahead directory, continuing without DAM columns", "dir", dir)
		return &damData{rows: make(map[int64][]float64)}, nil
	}
	if err != nil {
		return nil, err
	}

	var colOrder []string
	sums := make(map[string]map[int64]float64)
	counts := make(map[string]map[int64]int)
	periods := make(map[int64]struct{})

	for _, entry := range entries {
		info, ok := henex.ParseFilename(entry.Name())
		if !ok || info.Market != "DAM" {
			continue
		}
		if !inWindow(info.Date, start, end) {
			continue
		}

		table, err := henex.ReadResultsFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		mtuIdx := table.ColumnIndex(henex.MTUColumn)
		if mtuIdx < 0 {
			b.logger.Warn("workbook without delivery period column, skipping", "name", entry.Name())
			continue
		}

		for _, row := range table.Rows {
			mtu, err := henex.ParseMTU(row[mtuIdx], loc)
			if err != nil {
				continue
			}
			if !inWindow(mtu, start, end) {
				continue
			}
			key := mtu.Unix()
			periods[key] = struct{}{}

			for i, col := range table.Columns {
				if i == mtuIdx || col == "" {
					continue
				}
				v, ok := henex.ParseNumber(row[i])
				if !ok {
					continue
				}
				name := damPrefix + col
				if sums[name] == nil {
					sums[name] = make(map[int64]float64)
					counts[name] = make(map[int64]int)
					colOrder = append(colOrder, name)
				}
				sums[name][key] += v
				counts[name][key]++
			}
		}
	}

	data := &damData{columns: colOrder, rows: make(map[int64][]float64, len(periods))}
	for key := range periods {
		means := make([]float64, len(colOrder))
		for i, name := range colOrder {
			if n := counts[name][key]; n > 0 {
				means[i] = sums[name][key] / float64(n)
			} else {
				means[i] = math.NaN()
			}
		}
		data.rows[key] = means
	}
	return data, nil
}

// loadIDADirs reads the workbooks of every intraday session under root and
// concatenates their rows, keeping the published column names and order of
// first appearance.
func (b *Builder) loadIDADirs(root string, start, end time.Time, loc *time.Location) ([]string, []idaRow, error) {
	var columns []string
	seen := make(map[string]struct{})
	var rows []idaRow

	for _, auction := range model.Auctions {
		dir := filepath.Join(root, string(auction))
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			b.logger.Warn("no workbooks for session", "auction", auction, "dir", dir)
			continue
		}
		if err != nil {
			return nil, nil, err
		}

		for _, entry := range entries {
			info, ok := henex.ParseFilename(entry.Name())
			if !ok {
				continue
			}
			if !inWindow(info.Date, start, end) {
				continue
			}

			table, err := henex.ReadResultsFile(filepath.Join(dir, entry.Name()))
			if err != nil {
				return nil, nil, err
			}
			mtuIdx := table.ColumnIndex(henex.MTUColumn)
			if mtuIdx < 0 {
				b.logger.Warn("workbook without delivery period column, skipping", "name", entry.Name())
				continue
			}

			for _, col := range table.Columns {
				if col == "" {
					continue
				}
				if _, ok := seen[col]; !ok {
					seen[col] = struct{}{}
					columns = append(columns, col)
				}
			}

			for _, row := range table.Rows {
				mtu, err := henex.ParseMTU(row[mtuIdx], loc)
				if err != nil {
					continue
				}
				if !inWindow(mtu, start, end) {
					continue
				}
				cells := make(map[string]string, len(table.Columns))
				for i, col := range table.Columns {
					if col == "" {
						continue
					}
					cells[col] = row[i]
				}
				rows = append(rows, idaRow{mtu: mtu, auction: auction, cells: cells})
			}
		}
	}

	return columns, rows, nil
}

// loadWeatherHourly reads the weather feature CSV, resamples it to hourly
// means and indexes rows by timestamp.
func (b *Builder) loadWeatherHourly(path string, loc *time.Location) (*timeseries.Frame, map[int64]int, error) {
	if path == "" {
		b.logger.Warn("no weather CSV, continuing without weather columns")
		return nil, nil, nil
	}

	_, frame, err := timeseries.ReadFile(path, loc)
	if err != nil {
		return nil, nil, err
	}
	hourly := frame.ResampleMean(time.Hour)

	index := make(map[int64]int, hourly.Len())
	for i, t := range hourly.Times() {
		index[t.Unix()] = i
	}
	return hourly, index, nil
}

func (b *Builder) writeCSV(path string, idaColumns []string, idaRows []idaRow, dam *damData, weather *timeseries.Frame, weatherIndex map[int64]int) (int, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create output dir: %w", err)
		}
	}
	out, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	defer out.Close()

	w := csv.NewWriter(out)

	var weatherColumns []string
	if weather != nil {
		weatherColumns = weather.Columns()
	}

	header := make([]string, 0, len(idaColumns)+1+len(dam.columns)+len(weatherColumns))
	header = append(header, idaColumns...)
	header = append(header, AuctionColumn)
	header = append(header, dam.columns...)
	header = append(header, weatherColumns...)
	if err := w.Write(header); err != nil {
		return 0, err
	}

	for _, row := range idaRows {
		record := make([]string, 0, len(header))
		for _, col := range idaColumns {
			if col == henex.MTUColumn {
				record = append(record, row.mtu.Format(timeseries.TimeLayout))
				continue
			}
			record = append(record, row.cells[col])
		}
		record = append(record, string(row.auction))

		key := row.mtu.Unix()
		if means, ok := dam.rows[key]; ok {
			for _, v := range means {
				record = append(record, formatValue(v))
			}
		} else {
			for range dam.columns {
				record = append(record, "")
			}
		}

		if weather != nil {
			if i, ok := weatherIndex[key]; ok {
				for _, col := range weatherColumns {
					record = append(record, formatValue(weather.Value(i, col)))
				}
			} else {
				for range weatherColumns {
					record = append(record, "")
				}
			}
		}

		if err := w.Write(record); err != nil {
			return 0, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return 0, err
	}
	return len(idaRows), nil
}

// inWindow reports whether t falls inside the inclusive delivery-date window.
// Dates compare by calendar day in each value's own location, so a bound
// parsed in UTC still matches local-midnight rows. Zero bounds are open.
func inWindow(t, start, end time.Time) bool {
	if !start.IsZero() && dateOrdinal(t) < dateOrdinal(start) {
		return false
	}
	if !end.IsZero() && dateOrdinal(t) > dateOrdinal(end) {
		return false
	}
	return true
}

func dateOrdinal(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
