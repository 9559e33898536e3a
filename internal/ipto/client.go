package ipto

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/MichaelangeloVelalopoulos/diploma-energy-market/internal/model"
)

// DefaultBaseURL is the ADMIE (IPTO) site root.
const DefaultBaseURL = "https://www.admie.gr"

const (
	landingPath     = "/agora/statistika-agoras/synolika-dedomena"
	opFilePath      = "/getOperationMarketFile"
	opFileRangePath = "/getOperationMarketFileRange"
)

// defaultUserAgent mimics a browser; the file endpoints reject obvious bots.
const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// ErrForbidden is returned when the endpoint answers 403, which usually means
// the session was throttled and a fresh browser visit to the landing page is
// needed before retrying.
var ErrForbidden = fmt.Errorf("ipto: 403 forbidden (session throttled)")

// Client provides access to the IPTO operation-market file API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
	breaker    *gobreaker.CircuitBreaker

	chunkDays int
	useRange  bool

	bootstrapOnce sync.Once
	bootstrapErr  error
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new IPTO client. The client keeps a cookie jar because
// the file endpoints only answer requests carrying the landing-page session.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	jar, _ := cookiejar.New(nil)
	c := &Client{
		baseURL:   baseURL,
		userAgent: defaultUserAgent,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
			Jar:     jar,
		},
		logger:    slog.Default(),
		chunkDays: 31,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "ipto",
		Timeout: time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithHTTPClient sets a custom HTTP client. A cookie jar is attached when the
// given client has none.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc.Jar == nil {
			hc.Jar, _ = cookiejar.New(nil)
		}
		c.httpClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithChunkDays sets how many days each list call covers.
func WithChunkDays(days int) ClientOption {
	return func(c *Client) {
		if days > 0 {
			c.chunkDays = days
		}
	}
}

// WithRangeEndpoint switches listing to getOperationMarketFileRange.
func WithRangeEndpoint(useRange bool) ClientOption {
	return func(c *Client) {
		c.useRange = useRange
	}
}

// bootstrap visits the landing page once to collect session cookies.
func (c *Client) bootstrap(ctx context.Context) error {
	c.bootstrapOnce.Do(func() {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+landingPath, nil)
		if err != nil {
			c.bootstrapErr = fmt.Errorf("create landing request: %w", err)
			return
		}
		c.setHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.bootstrapErr = fmt.Errorf("visit landing page: %w", err)
			return
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		if resp.StatusCode >= 400 {
			c.bootstrapErr = fmt.Errorf("landing page status %d", resp.StatusCode)
			return
		}
		c.logger.Debug("ipto session established")
	})
	return c.bootstrapErr
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Referer", c.baseURL+landingPath)
}

// fileEntry tolerates the key spellings the endpoint has used over time.
type fileEntry struct {
	FileURL  string `json:"FileUrl"`
	URL      string `json:"url"`
	Link     string `json:"Link"`
	FileName string `json:"FileName"`
}

func (e fileEntry) downloadURL() string {
	switch {
	case e.FileURL != "":
		return e.FileURL
	case e.URL != "":
		return e.URL
	default:
		return e.Link
	}
}

// ListFiles returns the downloadable files for a category over [from, to],
// splitting the window into chunks so the endpoint never sees a range it
// refuses.
func (c *Client) ListFiles(ctx context.Context, category string, from, to time.Time) ([]model.RemoteFile, error) {
	if err := c.bootstrap(ctx); err != nil {
		return nil, err
	}

	var files []model.RemoteFile
	for _, chunk := range DateChunks(from, to, c.chunkDays) {
		entries, err := c.listChunk(ctx, category, chunk.From, chunk.To)
		if err != nil {
			return nil, fmt.Errorf("list %s %s..%s: %w",
				category, chunk.From.Format("2006-01-02"), chunk.To.Format("2006-01-02"), err)
		}
		for _, e := range entries {
			u := e.downloadURL()
			if u == "" {
				c.logger.Warn("skipping entry without url", "category", category, "name", e.FileName)
				continue
			}
			name := e.FileName
			if name == "" {
				name = filenameFromURL(u)
			}
			files = append(files, model.RemoteFile{Name: name, URL: u})
		}
	}
	return files, nil
}

func (c *Client) listChunk(ctx context.Context, category string, from, to time.Time) ([]fileEntry, error) {
	path := opFilePath
	if c.useRange {
		path = opFileRangePath
	}

	query := url.Values{}
	query.Set("dateStart", from.Format("2006-01-02"))
	query.Set("dateEnd", to.Format("2006-01-02"))
	query.Set("FileCategory", category)

	body, err := c.doJSON(ctx, path+"?"+query.Encode())
	if err != nil {
		return nil, err
	}

	// The endpoint answers either a bare array or a {"data": [...]} envelope.
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	raw := body
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 {
		raw = envelope.Data
	}

	var entries []fileEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse file list: %w", err)
	}
	return entries, nil
}

// doJSON performs a GET through the circuit breaker and returns the body.
func (c *Client) doJSON(ctx context.Context, path string) ([]byte, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		c.setHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("do request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusForbidden {
			return nil, ErrForbidden
		}
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("status %d", resp.StatusCode)
		}

		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// Download streams a remote file into dir, skipping files that already exist
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

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.URL, nil)
	if err != nil {
		return "", fmt.Errorf("create download request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("download %s: status %d", name, resp.StatusCode)
	}

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

// DateChunk is an inclusive date window.
type DateChunk struct {
	From, To time.Time
}

// DateChunks splits [from, to] into windows of at most days days.
func DateChunks(from, to time.Time, days int) []DateChunk {
	if days < 1 || to.Before(from) {
		return nil
	}
	var chunks []DateChunk
	for cur := from; !cur.After(to); {
		end := cur.AddDate(0, 0, days-1)
		if end.After(to) {
			end = to
		}
		chunks = append(chunks, DateChunk{From: cur, To: end})
		cur = end.AddDate(0, 0, 1)
	}
	return chunks
}

func filenameFromURL(u string) string {
	trimmed := u
	if i := strings.IndexByte(trimmed, '?'); i >= 0 {
		trimmed = trimmed[:i]
	}
	if i := strings.LastIndexByte(trimmed, '/'); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	if trimmed == "" {
		return "file.bin"
	}
	return trimmed
}
