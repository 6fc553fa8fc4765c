// Package client provides a Go client for the reductiond HTTP API.
//
// Every request carries the configured API key in both the x-api-key and
// Authorization: Bearer headers, so it works with either header check.
//
// Example:
//
//	c := client.New("http://localhost:8080", client.WithAPIKey(key))
//	res, err := c.Compress(ctx, "the quick brown fox", client.AlgorithmSemantic)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Comp, res.Metrics.SavedChars)
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultURL is the address of a locally running reductiond.
const DefaultURL = "http://localhost:8080"

// Algorithm names accepted by the compression endpoints.
const (
	AlgorithmSemantic   = "semantic"
	AlgorithmSyntactic  = "syntactic"
	AlgorithmAggressive = "aggressive"
)

// Client talks to a reductiond server.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey attaches key to every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the default http.Client. The supplied client is
// used as is; a nil client keeps the default.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the request timeout of the default http.Client. It has no
// effect when WithHTTPClient supplies a client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a client for the server at baseURL. An empty baseURL selects
// DefaultURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	return c
}

// BaseURL returns the server address used by the client.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Metrics describes the savings of one reduction.
type Metrics struct {
	SavedChars int     `json:"saved"`
	Ratio      float64 `json:"ratio"`
	Pct        float64 `json:"pct"`
	LatencyMs  float64 `json:"latency"`
}

// Result is one reduced text.
type Result struct {
	Comp    string  `json:"comp"`
	Metrics Metrics `json:"metrics"`
	Hash    string  `json:"hash"`
}

// BatchResult is the outcome of a batch reduction.
type BatchResult struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
}

// Recommendation names the algorithm with the highest savings.
type Recommendation struct {
	Algorithm string `json:"algo"`
	Savings   string `json:"save"`
	Latency   string `json:"lat"`
}

// Analysis holds the metrics of every algorithm for one text.
type Analysis struct {
	Metrics        map[string]Metrics `json:"analysis"`
	Recommendation Recommendation     `json:"rec"`
}

// Stats is the server's cumulative statistics.
type Stats struct {
	Total       int64   `json:"total"`
	Saved       int64   `json:"saved"`
	Latency     float64 `json:"latency"`
	LastLatency float64 `json:"lastLatency"`
	AvgRatio    string  `json:"avgRatio"`
	TotalPct    string  `json:"totalPct"`
	Lat         string  `json:"lat"`
	AvgLat      string  `json:"avgLat"`
}

// Health is the body of GET /health.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// SystemHealth is the deployment information reported by the server.
type SystemHealth struct {
	Version       string `json:"version"`
	Mode          string `json:"mode"`
	Port          int    `json:"port"`
	VecDim        int    `json:"vec_dim"`
	CacheSegments int    `json:"cache_segments"`
	MaxActive     int    `json:"max_active"`
}

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Code       string `json:"error"`
	Message    string `json:"message,omitempty"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned status %d: %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Code)
}

// IsRateLimited reports whether err is a 429 from the server.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

type compressRequest struct {
	Text      string `json:"text"`
	Algorithm string `json:"algorithm,omitempty"`
}

type batchRequest struct {
	Texts     []string `json:"texts"`
	Algorithm string   `json:"algorithm,omitempty"`
}

type analyzeRequest struct {
	Text string `json:"text"`
}

// Compress reduces text with algorithm. An empty algorithm lets the server
// pick its default.
func (c *Client) Compress(ctx context.Context, text, algorithm string) (*Result, error) {
	var out Result
	if err := c.do(ctx, http.MethodPost, "/api/compression/compress", compressRequest{Text: text, Algorithm: algorithm}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Batch reduces every text with algorithm.
func (c *Client) Batch(ctx context.Context, texts []string, algorithm string) (*BatchResult, error) {
	if texts == nil {
		texts = []string{}
	}
	var out BatchResult
	if err := c.do(ctx, http.MethodPost, "/api/compression/batch", batchRequest{Texts: texts, Algorithm: algorithm}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Analyze compares all algorithms on text without touching statistics.
func (c *Client) Analyze(ctx context.Context, text string) (*Analysis, error) {
	var out Analysis
	if err := c.do(ctx, http.MethodPost, "/api/compression/analyze", analyzeRequest{Text: text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats returns the cumulative statistics.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var out struct {
		Stats Stats `json:"stats"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/compression/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out.Stats, nil
}

// Reset zeroes the statistics and returns the server's confirmation.
func (c *Client) Reset(ctx context.Context) (string, error) {
	var out struct {
		Msg string `json:"msg"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/compression/reset", nil, &out); err != nil {
		return "", err
	}
	return out.Msg, nil
}

// Health checks the liveness endpoint.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SystemHealth returns the server's deployment settings.
func (c *Client) SystemHealth(ctx context.Context) (*SystemHealth, error) {
	var out SystemHealth
	if err := c.do(ctx, http.MethodGet, "/api/system/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		if readErr != nil {
			return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		if json.Unmarshal(raw, apiErr) != nil || apiErr.Code == "" {
			apiErr.Code = strings.TrimSpace(string(raw))
		}
		if apiErr.Code == "" {
			apiErr.Code = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
