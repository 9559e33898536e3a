package entsoe

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the ENTSO-E transparency platform API endpoint.
const DefaultBaseURL = "https://web-api.tp.entsoe.eu/api"

// DefaultBiddingZone is the Greek bidding zone EIC code.
const DefaultBiddingZone = "10YGR-HTSO-----Y"

// Document and process types used by the transparency API.
const (
	docTotalLoad     = "A65"
	docGenPerType    = "A75"
	docDayAheadPrice = "A44"
	procRealized     = "A16"
	procDayAhead     = "A01"
)

// Chunk sizes per document type. The API refuses long realized windows but
// allows a month of day-ahead prices per call.
const (
	realizedChunkHours = 168
	priceChunkHours    = 744
)

const periodLayout = "200601021504"

// Client provides access to the ENTSO-E transparency API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries   int
	retryBackoff time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new ENTSO-E client. The security token is required for
// every call.
func NewClient(baseURL, token string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger:       slog.Default(),
		maxRetries:   3,
		retryBackoff: time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// APIError represents an HTTP-level error from the transparency API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("entsoe api error %d: %s", e.StatusCode, e.Body)
}

// IsRetryable returns true if the error should trigger a retry.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// AckError is an Acknowledgement_MarketDocument answer, typically "no data
// for this interval". It is not retryable.
type AckError struct {
	Reasons []AckReason
}

// AckReason is one reason block of an acknowledgement.
type AckReason struct {
	Code string
	Text string
}

func (e *AckError) Error() string {
	if len(e.Reasons) == 0 {
		return "entsoe acknowledgement: no data returned"
	}
	parts := make([]string, 0, len(e.Reasons))
	for _, r := range e.Reasons {
		parts = append(parts, fmt.Sprintf("[%s] %s", r.Code, r.Text))
	}
	return "entsoe acknowledgement: " + strings.Join(parts, "; ")
}

// doRequest performs a single GET and returns the XML body.
func (c *Client) doRequest(ctx context.Context, query url.Values) ([]byte, error) {
	q := url.Values{}
	for k, vs := range query {
		q[k] = vs
	}
	q.Set("securityToken", c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return body, nil
}

// doWithRetry performs a request with jittered exponential backoff.
func (c *Client) doWithRetry(ctx context.Context, query url.Values) ([]byte, error) {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			jitter := backoff/2 + time.Duration(rand.Int63n(int64(backoff)))
			c.logger.Debug("retrying request",
				"attempt", attempt,
				"backoff", jitter,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(jitter):
			}

			backoff *= 2
		}

		body, err := c.doRequest(ctx, query)
		if err == nil {
			return body, nil
		}

		lastErr = err

		apiErr, ok := err.(*APIError)
		if !ok || !apiErr.IsRetryable() {
			return nil, err
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// TimeChunk is a half-open UTC window.
type TimeChunk struct {
	From, To time.Time
}

// TimeChunks splits [from, to) into windows of at most hours hours.
func TimeChunks(from, to time.Time, hours int) []TimeChunk {
	if hours < 1 || !to.After(from) {
		return nil
	}
	var chunks []TimeChunk
	step := time.Duration(hours) * time.Hour
	for cur := from; cur.Before(to); {
		end := cur.Add(step)
		if end.After(to) {
			end = to
		}
		chunks = append(chunks, TimeChunk{From: cur, To: end})
		cur = end
	}
	return chunks
}
