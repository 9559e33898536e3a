package ipto

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"

	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/model"
)

// slotsPerDay is the number of quarter-hour slots in a SCADA RES day file.
const slotsPerDay = 96

// ReadSCADAFile parses a RealTimeSCADARES workbook (legacy .xls) into 96
// quarter-hour records. Timestamps are placed in loc.
func ReadSCADAFile(path string, loc *time.Location) ([]model.ResRecord, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("%s: workbook has no sheets", path)
	}

	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := 0; j < row.LastCol(); j++ {
			cells[j] = row.Col(j)
		}
		rows = append(rows, cells)
	}

	records, err := parseSCADARows(rows, loc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// parseSCADARows extracts the quarter-hour grid from a sheet laid out as a
// "Date" header row with slot columns labelled 1..96 and the daily values on
// the following row.
func parseSCADARows(rows [][]string, loc *time.Location) ([]model.ResRecord, error) {
	if loc == nil {
		loc = time.UTC
	}

	hdr := findHeaderRow(rows)
	if hdr < 0 {
		return nil, fmt.Errorf("no 'Date' header row found")
	}
	if hdr+1 >= len(rows) {
		return nil, fmt.Errorf("no data row below header")
	}

	// Map slot number -> column index from the header labels.
	slotCols := make(map[int]int)
	for j, label := range rows[hdr] {
		if j == 0 {
			continue
		}
		if slot, ok := parseSlotLabel(label); ok {
			slotCols[slot] = j
		}
	}
	if len(slotCols) == 0 {
		return nil, fmt.Errorf("no slot columns 1..96 in header")
	}

	dataRow := rows[hdr+1]
	if len(dataRow) == 0 {
		return nil, fmt.Errorf("empty data row below header")
	}

	day, err := parseDateCell(dataRow[0], loc)
	if err != nil {
		return nil, fmt.Errorf("unreadable date cell %q: %w", dataRow[0], err)
	}

	records := make([]model.ResRecord, slotsPerDay)
	for slot := 1; slot <= slotsPerDay; slot++ {
		value := math.NaN()
		if col, ok := slotCols[slot]; ok && col < len(dataRow) {
			if v, err := parseNumberCell(dataRow[col]); err == nil {
				value = v
			}
		}
		records[slot-1] = model.ResRecord{
			Timestamp: day.Add(time.Duration(slot-1) * 15 * time.Minute),
			ResMWh:    value,
		}
	}
	return records, nil
}

// findHeaderRow returns the index of the row containing "Date", preferring a
// match in the first column.
func findHeaderRow(rows [][]string) int {
	for i, row := range rows {
		if len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "date") {
			return i
		}
	}
	for i, row := range rows {
		for _, cell := range row {
			if strings.EqualFold(strings.TrimSpace(cell), "date") {
				return i
			}
		}
	}
	return -1
}

// parseSlotLabel accepts "7", " 7 ", or "7.0" style labels in 1..96.
func parseSlotLabel(label string) (int, bool) {
	s := strings.TrimSpace(label)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= slotsPerDay {
			return n, true
		}
		return 0, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) {
		n := int(f)
		if n >= 1 && n <= slotsPerDay {
			return n, true
		}
	}
	return 0, false
}

var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"2006-01-02 15:04:05",
}

// parseDateCell parses the date cell, trying day-first layouts before falling
// back to Excel serial numbers (days since 1899-12-30).
func parseDateCell(cell string, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(cell)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		epoch := time.Date(1899, 12, 30, 0, 0, 0, 0, loc)
		t := epoch.AddDate(0, 0, int(serial))
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unsupported date format")
}

// parseNumberCell parses a numeric cell, accepting a comma decimal separator.
func parseNumberCell(cell string) (float64, error) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, fmt.Errorf("empty cell")
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
}
