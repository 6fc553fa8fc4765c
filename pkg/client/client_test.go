package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fyrsmithlabs/reductiond/internal/config"
	reductionhttp "github.com/fyrsmithlabs/reductiond/internal/http"
	"github.com/fyrsmithlabs/reductiond/internal/reduction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, apiKey string) *httptest.Server {
	t.Helper()

	engine, err := reduction.NewEngine()
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Auth.APIKey = config.Secret(apiKey)

	srv, err := reductionhttp.NewServer(engine, nil, zap.NewNop(), cfg, reductionhttp.WithVersion("1.2.3"))
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestNew(t *testing.T) {
	assert.Equal(t, DefaultURL, New("").BaseURL())
	assert.Equal(t, "http://example.com", New("http://example.com/").BaseURL())

	c := New("", WithTimeout(time.Second))
	assert.Equal(t, time.Second, c.http.Timeout)

	assert.Equal(t, 30*time.Second, New("").http.Timeout)

	hc := &http.Client{}
	assert.Same(t, hc, New("", WithHTTPClient(hc)).http)
}

func TestNew_CustomHTTPClientNotMutated(t *testing.T) {
	hc := &http.Client{Timeout: 5 * time.Second}

	c := New("", WithHTTPClient(hc), WithTimeout(time.Second))
	assert.Same(t, hc, c.http)
	assert.Equal(t, 5*time.Second, hc.Timeout)

	c = New("", WithTimeout(time.Second), WithHTTPClient(hc))
	assert.Same(t, hc, c.http)
	assert.Equal(t, 5*time.Second, hc.Timeout)
}

func TestNew_NilHTTPClient(t *testing.T) {
	var c *Client
	require.NotPanics(t, func() {
		c = New("", WithHTTPClient(nil), WithTimeout(2*time.Second))
	})
	require.NotNil(t, c.http)
	assert.Equal(t, 2*time.Second, c.http.Timeout)
}

func TestClient_RoundTrip(t *testing.T) {
	ts := newTestServer(t, "")
	c := New(ts.URL)
	ctx := context.Background()

	health, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)

	sys, err := c.SystemHealth(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", sys.Version)
	assert.Equal(t, "standard", sys.Mode)
	assert.Equal(t, 1536, sys.VecDim)

	res, err := c.Compress(ctx, "the quick brown fox", "")
	require.NoError(t, err)
	assert.Equal(t, "quick brown fox", res.Comp)
	assert.Equal(t, 4, res.Metrics.SavedChars)
	assert.Equal(t, "3be79472", res.Hash)

	batch, err := c.Batch(ctx, []string{"Hello, World!", "a b"}, AlgorithmSyntactic)
	require.NoError(t, err)
	require.Equal(t, 2, batch.Total)
	assert.Equal(t, "Hello World", batch.Results[0].Comp)

	analysis, err := c.Analyze(ctx, "Hello, World!!")
	require.NoError(t, err)
	assert.Equal(t, AlgorithmSyntactic, analysis.Recommendation.Algorithm)
	assert.Equal(t, "21.43%", analysis.Recommendation.Savings)
	assert.Len(t, analysis.Metrics, 3)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(19+13+3), stats.Total)

	msg, err := c.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, "reset done", msg)

	stats, err = c.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Equal(t, "0%", stats.TotalPct)
}

func TestClient_EmptyBatch(t *testing.T) {
	ts := newTestServer(t, "")

	batch, err := New(ts.URL).Batch(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Zero(t, batch.Total)
	assert.Empty(t, batch.Results)
}

func TestClient_APIKey(t *testing.T) {
	ts := newTestServer(t, "secret-key")
	ctx := context.Background()

	_, err := New(ts.URL).Stats(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "authentication_required", apiErr.Code)
	assert.Equal(t, "API key required", apiErr.Message)

	_, err = New(ts.URL, WithAPIKey("wrong")).Stats(ctx)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)

	_, err = New(ts.URL, WithAPIKey("secret-key")).Stats(ctx)
	assert.NoError(t, err)
}

func TestClient_SendsHeaders(t *testing.T) {
	var got http.Header
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"comp":"x","metrics":{},"hash":"0"}`))
	}))
	defer ts.Close()

	_, err := New(ts.URL, WithAPIKey("k")).Compress(context.Background(), "x", "")
	require.NoError(t, err)
	assert.Equal(t, "k", got.Get("x-api-key"))
	assert.Equal(t, "Bearer k", got.Get("Authorization"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantCode   string
		rateLimit  bool
		retryAfter int
	}{
		{"validation", http.StatusBadRequest, `{"error":"text required"}`, "text required", false, 0},
		{"rate limited", http.StatusTooManyRequests, `{"error":"rate_limit_exceeded","retry_after":12}`, "rate_limit_exceeded", true, 12},
		{"plain text body", http.StatusBadGateway, "upstream down", "upstream down", false, 0},
		{"empty body", http.StatusServiceUnavailable, "", "Service Unavailable", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			_, err := New(ts.URL).Compress(context.Background(), "", "")
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.retryAfter, apiErr.RetryAfter)
			assert.Equal(t, tt.rateLimit, IsRateLimited(err))
			assert.Contains(t, err.Error(), tt.wantCode)
		})
	}
}

func TestClient_DecodeError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer ts.Close()

	_, err := New(ts.URL).Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
	var syntaxErr *json.SyntaxError
	assert.ErrorAs(t, err, &syntaxErr)
}

func TestClient_ConnectionError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := New(url).Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send request")
}
