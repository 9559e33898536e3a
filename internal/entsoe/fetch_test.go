package entsoe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestTimeChunks(t *testing.T) {
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	chunks := TimeChunks(from, from.Add(400*time.Hour), 168)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if !chunks[0].To.Equal(from.Add(168 * time.Hour)) {
		t.Errorf("chunks[0].To = %v", chunks[0].To)
	}
	if !chunks[2].To.Equal(from.Add(400 * time.Hour)) {
		t.Errorf("chunks[2].To = %v, want the range end", chunks[2].To)
	}

	if got := TimeChunks(from, from, 168); got != nil {
		t.Errorf("empty range produced %v", got)
	}
}

func TestFetchTotalLoad(t *testing.T) {
	var gotToken, gotDomain atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken.Store(r.URL.Query().Get("securityToken"))
		gotDomain.Store(r.URL.Query().Get("outBiddingZone_Domain"))
		w.Write([]byte(loadDocument))
	}))
	defer server.Close()

	c := NewClient(server.URL, "secret")
	from := time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)
	frame, err := c.FetchTotalLoad(context.Background(), DefaultBiddingZone, from, from.Add(time.Hour))
	if err != nil {
		t.Fatalf("FetchTotalLoad: %v", err)
	}

	if gotToken.Load().(string) != "secret" {
		t.Errorf("securityToken = %q", gotToken.Load())
	}
	if gotDomain.Load().(string) != DefaultBiddingZone {
		t.Errorf("outBiddingZone_Domain = %q", gotDomain.Load())
	}
	if frame.Len() != 3 {
		t.Fatalf("frame.Len() = %d, want 3", frame.Len())
	}
	if got := frame.Value(0, "load_mw"); got != 5100.0 {
		t.Errorf("load_mw[0] = %v, want 5100", got)
	}
}

func TestFetchGenerationPerType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(genDocument))
	}))
	defer server.Close()

	c := NewClient(server.URL, "secret")
	from := time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)
	frame, err := c.FetchGenerationPerType(context.Background(), DefaultBiddingZone, from, from.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("FetchGenerationPerType: %v", err)
	}

	if !frame.Has("solar") || !frame.Has("wind_onshore") {
		t.Fatalf("columns = %v", frame.Columns())
	}
	if got := frame.Value(0, "solar"); got != 800.0 {
		t.Errorf("solar[0] = %v, want 800", got)
	}
	if got := frame.Value(0, "wind_onshore"); got != 400.0 {
		t.Errorf("wind_onshore[0] = %v, want 400", got)
	}
}

func TestFetchDayAheadPrices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(priceDocument))
	}))
	defer server.Close()

	c := NewClient(server.URL, "secret")
	from := time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)
	frame, err := c.FetchDayAheadPrices(context.Background(), DefaultBiddingZone, from, from.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("FetchDayAheadPrices: %v", err)
	}
	if got := frame.Value(1, "dam_eur_mwh"); got != 79.10 {
		t.Errorf("dam_eur_mwh[1] = %v, want 79.10", got)
	}
}

func TestFetchSkipsAcknowledgedChunks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(ackDocument))
	}))
	defer server.Close()

	c := NewClient(server.URL, "secret")
	from := time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)
	frame, err := c.FetchTotalLoad(context.Background(), DefaultBiddingZone, from, from.Add(time.Hour))
	if err != nil {
		t.Fatalf("acknowledgement must not fail the fetch: %v", err)
	}
	if frame.Len() != 0 {
		t.Errorf("frame.Len() = %d, want 0", frame.Len())
	}
}

func TestFetchServerErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := NewClient(server.URL, "bad-token")
	from := time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)
	if _, err := c.FetchTotalLoad(context.Background(), DefaultBiddingZone, from, from.Add(time.Hour)); err == nil {
		t.Fatal("expected error for 401")
	}
}
