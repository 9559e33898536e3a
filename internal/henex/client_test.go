package henex

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/model"
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestScrapePage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<a href="/docs/20240616_EL-IDA1_Results_EN_v01.xlsx">IDA1</a>
			<a href="/docs/20240616_EL-IDA1_Results_EN_v01.xlsx">duplicate</a>
			<a href="/docs/20240617_EL-DAM_Results_EN_v01.xlsx?download=true">DAM</a>
			<a href="/docs/press-release.pdf">not a workbook</a>
			<a href="/docs/other.xlsx">xlsx without the naming scheme</a>
			<a href="https://cdn.example.test/20240618_EL-IDA2_Results_EN_v03.xlsx">absolute</a>
		</body></html>`)
	}))
	defer server.Close()

	c := NewClient()
	files, err := c.ScrapePage(context.Background(), server.URL+"/el/dam-idm-archive")
	if err != nil {
		t.Fatalf("ScrapePage: %v", err)
	}

	if len(files) != 3 {
		t.Fatalf("got %d files, want 3: %+v", len(files), files)
	}
	// Sorted by name.
	if files[0].Name != "20240616_EL-IDA1_Results_EN_v01.xlsx" {
		t.Errorf("files[0].Name = %q", files[0].Name)
	}
	if files[0].URL != server.URL+"/docs/20240616_EL-IDA1_Results_EN_v01.xlsx" {
		t.Errorf("relative link not resolved: %q", files[0].URL)
	}
	if !files[0].Date.Equal(day(2024, 6, 16)) {
		t.Errorf("files[0].Date = %v", files[0].Date)
	}
	if files[2].URL != "https://cdn.example.test/20240618_EL-IDA2_Results_EN_v03.xlsx" {
		t.Errorf("absolute link mangled: %q", files[2].URL)
	}
}

func TestListFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>EL-IDA1 Results</title>
  <entry>
    <title>20240616_EL-IDA1_Results_EN_v01.xlsx</title>
    <link href="https://www.enexgroup.gr/el/web/guest/document/abc123"/>
  </entry>
  <entry>
    <title>Market announcement</title>
    <link href="https://www.enexgroup.gr/el/web/guest/document/def456"/>
  </entry>
  <entry>
    <title>20240617_EL-IDA1_Results_EN_v01.xlsx</title>
    <link href="https://www.enexgroup.gr/other/page"/>
  </entry>
</feed>`)
	}))
	defer server.Close()

	c := NewClient()
	files, err := c.ListFeed(context.Background(), server.URL+"/rss")
	if err != nil {
		t.Fatalf("ListFeed: %v", err)
	}

	// The announcement has no workbook title; the third entry has no
	// document link. Only the first survives.
	if len(files) != 1 {
		t.Fatalf("got %d files, want 1: %+v", len(files), files)
	}
	if files[0].Name != "20240616_EL-IDA1_Results_EN_v01.xlsx" {
		t.Errorf("Name = %q", files[0].Name)
	}
	if files[0].URL != "https://www.enexgroup.gr/el/web/guest/document/abc123" {
		t.Errorf("URL = %q, want document page link", files[0].URL)
	}
}

func TestResolveDocument(t *testing.T) {
	const name = "20240616_EL-IDA1_Results_EN_v01.xlsx"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body>
			<a href="/docs/unrelated.xlsx">other</a>
			<a href="/docs/%s">download</a>
		</body></html>`, name)
	}))
	defer server.Close()

	c := NewClient()
	got, err := c.ResolveDocument(context.Background(), server.URL+"/document/abc", name)
	if err != nil {
		t.Fatalf("ResolveDocument: %v", err)
	}
	if got != server.URL+"/docs/"+name {
		t.Errorf("got %q, want exact-name link", got)
	}
}

func TestResolveDocumentFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><a href="/docs/renamed.xlsx">download</a></body></html>`)
	}))
	defer server.Close()

	c := NewClient()
	got, err := c.ResolveDocument(context.Background(), server.URL+"/document/abc", "20240616_EL-IDA1_Results_EN_v01.xlsx")
	if err != nil {
		t.Fatalf("ResolveDocument: %v", err)
	}
	if got != server.URL+"/docs/renamed.xlsx" {
		t.Errorf("got %q, want fallback .xlsx link", got)
	}
}

func TestResolveDocumentNoWorkbook(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>nothing here</p></body></html>`)
	}))
	defer server.Close()

	c := NewClient()
	if _, err := c.ResolveDocument(context.Background(), server.URL+"/document/abc", "x.xlsx"); err == nil {
		t.Fatal("expected error when the page has no workbook link")
	}
}

func TestFilterByDate(t *testing.T) {
	files := []model.RemoteFile{
		{Name: "a", Date: day(2024, 6, 15)},
		{Name: "b", Date: day(2024, 6, 16)},
		{Name: "c", Date: day(2024, 6, 17)},
		{Name: "d"}, // unknown date
	}

	got := FilterByDate(files, day(2024, 6, 16), day(2024, 6, 16))
	if len(got) != 1 || got[0].Name != "b" {
		t.Errorf("FilterByDate = %+v, want only b", got)
	}

	open := FilterByDate(files, time.Time{}, time.Time{})
	if len(open) != 3 {
		t.Errorf("open bounds kept %d files, want 3 (unknown date dropped)", len(open))
	}
}

func TestDownloadSkipsExisting(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("workbook"))
	}))
	defer server.Close()

	dir := t.TempDir()
	file := model.RemoteFile{Name: "20240616_EL-IDA1_Results_EN_v01.xlsx", URL: server.URL + "/f.xlsx"}

	c := NewClient()
	path, err := c.Download(context.Background(), file, dir, false)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if got, _ := os.ReadFile(path); string(got) != "workbook" {
		t.Errorf("content = %q", got)
	}

	if _, err := c.Download(context.Background(), file, dir, false); err != nil {
		t.Fatalf("second Download: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("server hits = %d, want 1 (existing file skipped)", hits.Load())
	}
}
