package henex

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row %d: %v", i, err)
		}
	}
	path := filepath.Join(t.TempDir(), "results.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

func TestReadResultsFile(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"DELIVERY_MTU", "MCP", "VOLUME"},
		{"2024-06-16 10:00:00", 85.4, 120.0},
		{"2024-06-16 11:00:00", 90.1, 131.5},
	})

	table, err := ReadResultsFile(path)
	if err != nil {
		t.Fatalf("ReadResultsFile: %v", err)
	}

	if len(table.Columns) != 3 || table.Columns[0] != MTUColumn {
		t.Fatalf("Columns = %v", table.Columns)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(table.Rows))
	}
	if table.ColumnIndex("MCP") != 1 {
		t.Errorf("ColumnIndex(MCP) = %d, want 1", table.ColumnIndex("MCP"))
	}
	if table.ColumnIndex("missing") != -1 {
		t.Errorf("ColumnIndex(missing) = %d, want -1", table.ColumnIndex("missing"))
	}

	mtu, err := ParseMTU(table.Rows[0][0], time.UTC)
	if err != nil {
		t.Fatalf("ParseMTU(%q): %v", table.Rows[0][0], err)
	}
	want := time.Date(2024, 6, 16, 10, 0, 0, 0, time.UTC)
	if !mtu.Equal(want) {
		t.Errorf("mtu = %v, want %v", mtu, want)
	}
}

func TestParseResultRowsSkipsLeadingBlankRows(t *testing.T) {
	table, err := parseResultRows([][]string{
		{"", ""},
		{"DELIVERY_MTU", "MCP"},
		{"2024-06-16 00:00", "80"},
		{"", ""},
		{"2024-06-16 01:00"}, // short row
	})
	if err != nil {
		t.Fatalf("parseResultRows: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("got %d rows, want 2 (blank row dropped)", len(table.Rows))
	}
	if table.Rows[1][1] != "" {
		t.Errorf("short row not padded: %v", table.Rows[1])
	}
}

func TestParseResultRowsEmptySheet(t *testing.T) {
	if _, err := parseResultRows(nil); err == nil {
		t.Fatal("expected error for empty sheet")
	}
}

func TestParseMTU(t *testing.T) {
	want := time.Date(2024, 6, 16, 10, 30, 0, 0, time.UTC)
	tests := []string{
		"2024-06-16 10:30:00",
		"2024-06-16 10:30",
		"2024-06-16T10:30:00",
		"16/06/2024 10:30",
		"16-06-24 10:30",
		"45459.4375", // Excel serial for 2024-06-16 10:30
	}
	for _, in := range tests {
		got, err := ParseMTU(in, time.UTC)
		if err != nil {
			t.Errorf("ParseMTU(%q): %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseMTU(%q) = %v, want %v", in, got, want)
		}
	}

	// Two-digit-year cells are day-first like the rest of the sheet.
	got, err := ParseMTU("05-06-24 10:30", time.UTC)
	if err != nil {
		t.Fatalf("ParseMTU(day-first): %v", err)
	}
	if dayFirst := time.Date(2024, 6, 5, 10, 30, 0, 0, time.UTC); !got.Equal(dayFirst) {
		t.Errorf("ParseMTU(%q) = %v, want %v", "05-06-24 10:30", got, dayFirst)
	}

	if _, err := ParseMTU("not a time", time.UTC); err == nil {
		t.Error("expected error for garbage cell")
	}
	if _, err := ParseMTU("", time.UTC); err == nil {
		t.Error("expected error for empty cell")
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"85.4", 85.4, true},
		{"85,4", 85.4, true},
		{" 12 ", 12, true},
		{"", 0, false},
		{"n/a", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		if ok != tt.ok || (ok && math.Abs(got-tt.want) > 1e-9) {
			t.Errorf("ParseNumber(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
