package collector

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/config"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/model"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/openmeteo"
	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/timeseries"
)

type fakeWeather struct {
	calls int
}

func (f *fakeWeather) FetchHourly(ctx context.Context, req openmeteo.HourlyRequest) (*openmeteo.Series, error) {
	f.calls++
	base := time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)
	return &openmeteo.Series{
		Times: []time.Time{base, base.Add(time.Hour), base.Add(2 * time.Hour)},
		Values: map[string][]float64{
			"wind_speed_10m": {4, 6, 8},
		},
	}, nil
}

type fakeFiles struct {
	files     []model.RemoteFile
	downloads int
}

func (f *fakeFiles) ListFiles(ctx context.Context, category string, from, to time.Time) ([]model.RemoteFile, error) {
	return f.files, nil
}

func (f *fakeFiles) Download(ctx context.Context, file model.RemoteFile, dir string, overwrite bool) (string, error) {
	f.downloads++
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, file.Name)
	if err := os.WriteFile(path, []byte("xls"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

type fakeStore struct {
	runs   []model.CollectionRun
	frames int
}

func (f *fakeStore) SaveRun(ctx context.Context, run model.CollectionRun) error {
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeStore) SaveFrame(ctx context.Context, run model.CollectionRun, frame *timeseries.Frame) (int64, error) {
	f.frames++
	return int64(frame.Len()), nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Weather: config.WeatherConfig{
			Variables: []string{"wind_speed_10m"},
			Frequency: 15 * time.Minute,
			Locations: []config.LocationConfig{{Name: "thiva", Lat: 38.32, Lon: 23.32}},
		},
		IPTO: config.IPTOConfig{Category: "RealTimeSCADARES"},
		Output: config.OutputConfig{
			RawDir:       filepath.Join(dir, "raw"),
			ProcessedDir: filepath.Join(dir, "processed"),
		},
	}
}

func fakeSCADAReader(path string, loc *time.Location) ([]model.ResRecord, error) {
	base := time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)
	records := make([]model.ResRecord, 9)
	for i := range records {
		records[i] = model.ResRecord{
			Timestamp: base.Add(time.Duration(i) * 15 * time.Minute),
			ResMWh:    1000 + float64(i),
		}
	}
	return records, nil
}

func TestRun(t *testing.T) {
	cfg := testConfig(t)
	weather := &fakeWeather{}
	files := &fakeFiles{files: []model.RemoteFile{{Name: "res.xls", URL: "https://x.test/res.xls"}}}
	store := &fakeStore{}

	var seen []model.CollectionRun
	c := New(cfg, weather, files, store,
		WithSCADAReader(fakeSCADAReader),
		WithRunCallback(func(run model.CollectionRun) { seen = append(seen, run) }),
	)

	from := time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)
	run, err := c.Run(context.Background(), from, from)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if run.ID == uuid.Nil {
		t.Error("run has no ID")
	}
	if run.Error != "" {
		t.Errorf("run.Error = %q", run.Error)
	}
	if run.Rows != 9 {
		t.Errorf("run.Rows = %d, want 9", run.Rows)
	}
	if weather.calls != 1 {
		t.Errorf("weather calls = %d, want 1", weather.calls)
	}
	if files.downloads != 1 {
		t.Errorf("downloads = %d, want 1", files.downloads)
	}
	if len(store.runs) != 1 || store.frames != 1 {
		t.Errorf("store: runs=%d frames=%d, want 1/1", len(store.runs), store.frames)
	}
	if len(seen) != 1 {
		t.Errorf("run callback fired %d times, want 1", len(seen))
	}

	entries, err := os.ReadDir(cfg.Output.ProcessedDir)
	if err != nil {
		t.Fatalf("read processed dir: %v", err)
	}
	var haveWeather, haveMerged bool
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "weather_features_") {
			haveWeather = true
		}
		if strings.HasPrefix(e.Name(), "dataset_weather_ipto_") {
			haveMerged = true
		}
	}
	if !haveWeather || !haveMerged {
		t.Errorf("missing outputs: weather=%v merged=%v", haveWeather, haveMerged)
	}
}

func TestRunNoFilesRecordsError(t *testing.T) {
	cfg := testConfig(t)
	store := &fakeStore{}

	c := New(cfg, &fakeWeather{}, &fakeFiles{}, store, WithSCADAReader(fakeSCADAReader))

	from := time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)
	run, err := c.Run(context.Background(), from, from)
	if err == nil {
		t.Fatal("expected error when no files are published")
	}
	if run.Error == "" {
		t.Error("run.Error not recorded")
	}
	if len(store.runs) != 1 {
		t.Errorf("failed run not persisted: %d", len(store.runs))
	}
	if store.frames != 0 {
		t.Errorf("frame saved for failed run")
	}
}

func TestHealthHandler(t *testing.T) {
	h := NewHealth("collector-1", nil)

	server := httptest.NewServer(h.Handler())
	defer server.Close()

	get := func() healthResponse {
		resp, err := server.Client().Get(server.URL + "/healthz")
		if err != nil {
			t.Fatalf("GET /healthz: %v", err)
		}
		defer resp.Body.Close()
		var out healthResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return out
	}

	if got := get(); got.Status != "ok" || got.LastRun != nil {
		t.Errorf("initial health = %+v", got)
	}

	h.Record(model.CollectionRun{ID: uuid.New(), Rows: 42})
	if got := get(); got.LastRun == nil || got.LastRun.Rows != 42 {
		t.Errorf("health after run = %+v", got)
	}

	h.Record(model.CollectionRun{ID: uuid.New(), Error: "list RES files: boom"})
	if got := get(); got.Status != "degraded" {
		t.Errorf("status = %q, want degraded", got.Status)
	}
}
