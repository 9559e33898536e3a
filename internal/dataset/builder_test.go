package dataset

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/timeseries"
)

func writeWorkbook(t *testing.T, path string, rows [][]interface{}) {
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
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
}

func TestBuild(t *testing.T) {
	root := t.TempDir()

	// Two DAM rows share a delivery period, so DAM_MCP becomes their mean.
	// The SIDE column is textual and must not survive as a DAM column.
	writeWorkbook(t, filepath.Join(root, "results", "DAM", "20240616_EL-DAM_Results_EN_v01.xlsx"), [][]interface{}{
		{"DELIVERY_MTU", "MCP", "SIDE"},
		{"2024-06-16 10:00:00", 80.0, "Buy"},
		{"2024-06-16 10:00:00", 100.0, "Sell"},
		{"2024-06-16 11:00:00", 70.0, "Buy"},
	})
	writeWorkbook(t, filepath.Join(root, "results", "IDAs", "IDA1", "20240616_EL-IDA1_Results_EN_v01.xlsx"), [][]interface{}{
		{"DELIVERY_MTU", "PRICE"},
		{"2024-06-16 10:00:00", 50.5},
		{"2024-06-16 11:00:00", 60.0},
	})

	weather, err := timeseries.FromColumns(
		[]time.Time{hour(10), hour(11)},
		map[string][]float64{"thiva__wind_speed_10m": {4, 6}},
	)
	if err != nil {
		t.Fatalf("FromColumns: %v", err)
	}
	weatherCSV := filepath.Join(root, "weather.csv")
	if err := timeseries.WriteFile(weatherCSV, "time", weather); err != nil {
		t.Fatalf("write weather csv: %v", err)
	}

	outPath := filepath.Join(root, "out", "idm_dataset.csv")
	b := NewBuilder()
	rows, err := b.Build(BuildOptions{
		ResultsRoot: filepath.Join(root, "results"),
		WeatherCSV:  weatherCSV,
		Start:       time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC),
		OutPath:     outPath,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if rows != 2 {
		t.Fatalf("rows = %d, want 2", rows)
	}

	out, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer out.Close()

	records, err := csv.NewReader(out).ReadAll()
	if err != nil {
		t.Fatalf("read output: %v", err)
	}

	wantHeader := []string{"DELIVERY_MTU", "PRICE", "AUCTION", "DAM_MCP", "thiva__wind_speed_10m"}
	if len(records[0]) != len(wantHeader) {
		t.Fatalf("header = %v, want %v", records[0], wantHeader)
	}
	for i, col := range wantHeader {
		if records[0][i] != col {
			t.Fatalf("header[%d] = %q, want %q", i, records[0][i], col)
		}
	}

	first := records[1]
	if first[0] != "2024-06-16 10:00:00" {
		t.Errorf("DELIVERY_MTU = %q", first[0])
	}
	if first[1] != "50.5" {
		t.Errorf("PRICE = %q, want 50.5", first[1])
	}
	if first[2] != "IDA1" {
		t.Errorf("AUCTION = %q", first[2])
	}
	if first[3] != "90" {
		t.Errorf("DAM_MCP = %q, want mean 90", first[3])
	}
	if first[4] != "4" {
		t.Errorf("weather cell = %q, want 4", first[4])
	}
}

func TestBuildWindowFilter(t *testing.T) {
	root := t.TempDir()

	writeWorkbook(t, filepath.Join(root, "IDAs", "IDA1", "20240616_EL-IDA1_Results_EN_v01.xlsx"), [][]interface{}{
		{"DELIVERY_MTU", "PRICE"},
		{"2024-06-16 10:00:00", 50.0},
	})
	// Outside the window by filename date.
	writeWorkbook(t, filepath.Join(root, "IDAs", "IDA1", "20240701_EL-IDA1_Results_EN_v01.xlsx"), [][]interface{}{
		{"DELIVERY_MTU", "PRICE"},
		{"2024-07-01 10:00:00", 99.0},
	})

	outPath := filepath.Join(root, "out.csv")
	rows, err := NewBuilder().Build(BuildOptions{
		ResultsRoot: root,
		Start:       time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		OutPath:     outPath,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if rows != 1 {
		t.Errorf("rows = %d, want 1 (July file filtered out)", rows)
	}
}

func TestInWindowAcrossTimezones(t *testing.T) {
	athens, err := time.LoadLocation("Europe/Athens")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	utcDay := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name       string
		at         time.Time
		start, end time.Time
		want       bool
	}{
		// Local midnight of the start date is 21:00 UTC the previous day;
		// it still belongs to the window's first delivery date.
		{"local midnight on the start date", time.Date(2024, 6, 16, 0, 0, 0, 0, athens), utcDay(2024, 6, 16), utcDay(2024, 12, 31), true},
		{"local evening on the end date", time.Date(2024, 12, 31, 23, 0, 0, 0, athens), utcDay(2024, 6, 16), utcDay(2024, 12, 31), true},
		{"day before the window", time.Date(2024, 6, 15, 23, 0, 0, 0, athens), utcDay(2024, 6, 16), utcDay(2024, 12, 31), false},
		{"day after the window", time.Date(2025, 1, 1, 0, 30, 0, 0, athens), utcDay(2024, 6, 16), utcDay(2024, 12, 31), false},
		{"zero bounds are open", time.Date(2020, 1, 1, 0, 0, 0, 0, athens), time.Time{}, time.Time{}, true},
	}
	for _, tt := range tests {
		if got := inWindow(tt.at, tt.start, tt.end); got != tt.want {
			t.Errorf("%s: inWindow(%v, %v, %v) = %v, want %v",
				tt.name, tt.at, tt.start, tt.end, got, tt.want)
		}
	}
}

func TestBuildNoIntradayRows(t *testing.T) {
	root := t.TempDir()
	if _, err := NewBuilder().Build(BuildOptions{
		ResultsRoot: root,
		OutPath:     filepath.Join(root, "out.csv"),
	}); err == nil {
		t.Fatal("expected error when no intraday workbooks exist")
	}
}
