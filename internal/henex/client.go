package henex

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/model"
)

// defaultUserAgent mimics a browser; enexgroup.gr serves a block page to
// obvious bots.
const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36"

const defaultReferer = "https://www.enexgroup.gr/"

// Client fetches HEnEx result workbooks from the exchange's archive pages and
// publication feeds.
type Client struct {
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
	limiter    *rate.Limiter
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new HEnEx client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     slog.Default(),
		limiter:    rate.NewLimiter(rate.Limit(2), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit caps outgoing requests at rps requests per second.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

func (c *Client) get(ctx context.Context, rawURL, accept string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Referer", defaultReferer)
	req.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: status %d", rawURL, resp.StatusCode)
	}
	return resp, nil
}

// ScrapePage scans one archive page for result workbook links. Only links
// whose basename follows the published naming scheme are returned, sorted by
// name.
func (c *Client) ScrapePage(ctx context.Context, pageURL string) ([]model.RemoteFile, error) {
	resp, err := c.get(ctx, pageURL, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", pageURL, err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	seen := make(map[string]model.RemoteFile)
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if !strings.Contains(href, ".xlsx") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		full := base.ResolveReference(ref).String()
		info, ok := ParseFilename(filenameFromURL(full))
		if !ok {
			return
		}
		seen[full] = model.RemoteFile{Name: info.Name, URL: full, Date: info.Date}
	})

	files := make([]model.RemoteFile, 0, len(seen))
	for _, f := range seen {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	c.logger.Debug("scraped archive page", "url", pageURL, "files", len(files))
	return files, nil
}

// Atom feed shapes for the publication feeds.
type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title string     `xml:"title"`
	Links []atomLink `xml:"link"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
}

// docURL returns the entry link pointing at a document page, empty when the
// entry carries none.
func (e atomEntry) docURL() string {
	for _, l := range e.Links {
		if strings.Contains(l.Href, "document") {
			return l.Href
		}
	}
	return ""
}

// ListFeed reads one publication feed and returns the announced workbooks.
// The URL of each returned file points at the feed's document page, not the
// workbook itself; resolve it with ResolveDocument before downloading.
func (c *Client) ListFeed(ctx context.Context, feedURL string) ([]model.RemoteFile, error) {
	resp, err := c.get(ctx, feedURL, "application/atom+xml,application/xml;q=0.9,*/*;q=0.8")
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	var feed atomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	var files []model.RemoteFile
	for _, entry := range feed.Entries {
		title := strings.TrimSpace(entry.Title)
		info, ok := ParseFilename(title)
		if !ok {
			continue
		}
		doc := entry.docURL()
		if doc == "" {
			c.logger.Warn("feed entry without document link", "title", title)
			continue
		}
		files = append(files, model.RemoteFile{Name: info.Name, URL: doc, Date: info.Date})
	}

	c.logger.Debug("listed publication feed", "url", feedURL, "files", len(files))
	return files, nil
}

// ResolveDocument loads a feed entry's document page and returns the direct
// workbook URL. It prefers a link containing the expected filename and falls
// back to the first .xlsx link on the page.
func (c *Client) ResolveDocument(ctx context.Context, docURL, expectedName string) (string, error) {
	resp, err := c.get(ctx, docURL, "text/html,application/xhtml+xml,*/*;q=0.8")
	if err != nil {
		return "", fmt.Errorf("fetch document page: %w", err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse document page %s: %w", docURL, err)
	}

	base, err := url.Parse(docURL)
	if err != nil {
		return "", fmt.Errorf("parse document url: %w", err)
	}

	var exact, fallback string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if !strings.Contains(href, ".xlsx") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		full := base.ResolveReference(ref).String()
		if strings.Contains(href, expectedName) && exact == "" {
			exact = full
		}
		if fallback == "" {
			fallback = full
		}
	})

	if exact != "" {
		return exact, nil
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", fmt.Errorf("no workbook link on document page %s", docURL)
}

// FilterByDate keeps files whose delivery date falls inside [from, to]. Zero
// bounds are open.
func FilterByDate(files []model.RemoteFile, from, to time.Time) []model.RemoteFile {
	var out []model.RemoteFile
	for _, f := range files {
		if f.Date.IsZero() {
			continue
		}
		if !from.IsZero() && f.Date.Before(from) {
			continue
		}
		if !to.IsZero() && f.Date.After(to) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Download streams a workbook into dir, skipping files that already exist
// unless overwrite is set. It returns the local path.
func (c *Client) Download(ctx context.Context, file model.RemoteFile, dir string, overwrite bool) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	name := file.Name
	if name == "" {
		name = filenameFromURL(file.URL)
	}
	path := filepath.Join(dir, name)

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			c.logger.Debug("file exists, skipping", "name", name)
			return path, nil
		}
	}

	resp, err := c.get(ctx, file.URL, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet,application/octet-stream,*/*")
	if err != nil {
		return "", fmt.Errorf("download %s: %w", name, err)
	}
	defer resp.Body.Close()

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(path)
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}

	c.logger.Info("downloaded", "name", name, "path", path)
	return path, nil
}
