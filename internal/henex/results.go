package henex

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// MTUColumn is the delivery-period column every result workbook must carry;
// it is the join key for the combined dataset.
const MTUColumn = "DELIVERY_MTU"

// Table is a result workbook sheet as published: a header row and string
// cells. Column names are kept exactly as HEnEx publishes them.
type Table struct {
	Columns []string
	Rows    [][]string
}

// ColumnIndex returns the position of name in the header, -1 when absent.
func (t *Table) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// ReadResultsFile reads the first sheet of a result workbook. The first
// non-empty row is the header; shorter data rows are padded with empty cells.
func ReadResultsFile(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: workbook has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	table, err := parseResultRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// parseResultRows splits raw sheet rows into header and data rows.
func parseResultRows(rows [][]string) (*Table, error) {
	hdr := -1
	for i, row := range rows {
		if rowHasContent(row) {
			hdr = i
			break
		}
	}
	if hdr < 0 {
		return nil, fmt.Errorf("sheet is empty")
	}

	columns := make([]string, len(rows[hdr]))
	for i, cell := range rows[hdr] {
		columns[i] = strings.TrimSpace(cell)
	}

	var data [][]string
	for _, row := range rows[hdr+1:] {
		if !rowHasContent(row) {
			continue
		}
		cells := make([]string, len(columns))
		for i := range cells {
			if i < len(row) {
				cells[i] = strings.TrimSpace(row[i])
			}
		}
		data = append(data, cells)
	}

	return &Table{Columns: columns, Rows: data}, nil
}

func rowHasContent(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return true
		}
	}
	return false
}

var mtuLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02-01-06 15:04",
	"2006-01-02",
}

// ParseMTU parses a delivery-period cell. Workbook cells arrive formatted by
// the sheet's number format, so several layouts and the raw Excel serial are
// accepted.
func ParseMTU(cell string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := strings.TrimSpace(cell)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty cell")
	}
	for _, layout := range mtuLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		epoch := time.Date(1899, 12, 30, 0, 0, 0, 0, loc)
		days := math.Floor(serial)
		frac := serial - days
		t := epoch.AddDate(0, 0, int(days)).
			Add(time.Duration(math.Round(frac * 24 * float64(time.Hour))))
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unsupported delivery period format %q", cell)
}

// ParseNumber parses a numeric cell, accepting a comma decimal separator.
// It reports false for blank or non-numeric cells.
func ParseNumber(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}
	if v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); err == nil {
		return v, true
	}
	return 0, false
}
