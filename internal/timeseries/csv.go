package timeseries

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// TimeLayout is the timestamp format used in all emitted CSV files.
const TimeLayout = "2006-01-02 15:04:05"

var readLayouts = []string{
	TimeLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// WriteCSV writes the frame with a leading time column. NaN becomes an empty
// cell.
func WriteCSV(w io.Writer, timeCol string, f *Frame) error {
	cw := csv.NewWriter(w)

	header := append([]string{timeCol}, f.Columns()...)
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for i, t := range f.Times() {
		row[0] = t.Format(TimeLayout)
		for j, name := range f.Columns() {
			v := f.Value(i, name)
			if math.IsNaN(v) {
				row[j+1] = ""
			} else {
				row[j+1] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes the frame to path, creating parent directories.
func WriteFile(path, timeCol string, f *Frame) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	if err := WriteCSV(file, timeCol, f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadCSV parses a frame written by WriteCSV. The first column is the time
// index; empty or non-numeric cells become NaN. It returns the time column
// name along with the frame.
func ReadCSV(r io.Reader, loc *time.Location) (string, *Frame, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return "", nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) < 1 {
		return "", nil, fmt.Errorf("csv has no columns")
	}

	var times []time.Time
	columns := make(map[string][]float64, len(header)-1)
	for _, name := range header[1:] {
		columns[name] = nil
	}

	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		t, err := ParseTime(record[0], loc)
		if err != nil {
			return "", nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		times = append(times, t)

		for i, name := range header[1:] {
			v := math.NaN()
			if i+1 < len(record) && record[i+1] != "" {
				if parsed, err := strconv.ParseFloat(record[i+1], 64); err == nil {
					v = parsed
				}
			}
			columns[name] = append(columns[name], v)
		}
	}

	f, err := FromColumns(times, columns)
	if err != nil {
		return "", nil, err
	}
	// FromColumns sorts column names; restore the file order.
	f.cols = f.cols[:0]
	f.cols = append(f.cols, header[1:]...)
	return header[0], f, nil
}

// ReadFile reads a CSV frame from path.
func ReadFile(path string, loc *time.Location) (string, *Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	return ReadCSV(file, loc)
}

// ParseTime parses a timestamp cell using the known layouts.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range readLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
