package http

import (
	"encoding/json"

	"github.com/fyrsmithlabs/reductiond/internal/reduction"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message,omitempty"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

// CompressRequest is the body of POST /api/compression/compress.
// Text stays raw so a non-string value can be told apart from a missing one.
type CompressRequest struct {
	Text      json.RawMessage `json:"text"`
	Algorithm string          `json:"algorithm"`
}

// CompressResponse is the body returned by POST /api/compression/compress.
type CompressResponse struct {
	OK bool `json:"ok"`
	reduction.Result
}

// BatchRequest is the body of POST /api/compression/batch.
type BatchRequest struct {
	Texts     json.RawMessage `json:"texts"`
	Algorithm string          `json:"algorithm"`
}

// BatchResponse is the body returned by POST /api/compression/batch.
type BatchResponse struct {
	OK      bool               `json:"ok"`
	Results []reduction.Result `json:"results"`
	Total   int                `json:"total"`
}

// AnalyzeRequest is the body of POST /api/compression/analyze.
type AnalyzeRequest struct {
	Text json.RawMessage `json:"text"`
}

// AnalyzeResponse is the body returned by POST /api/compression/analyze.
type AnalyzeResponse struct {
	OK             bool                                      `json:"ok"`
	Analysis       map[reduction.Algorithm]reduction.Metrics `json:"analysis"`
	Recommendation Recommendation                            `json:"rec"`
}

// Recommendation names the algorithm with the highest savings.
// Latency is the last recorded reduce latency, not a property of the
// analyzed text.
type Recommendation struct {
	Algorithm reduction.Algorithm `json:"algo"`
	Savings   string              `json:"save"`
	Latency   string              `json:"lat"`
}

// StatsResponse is the body returned by GET /api/compression/stats.
type StatsResponse struct {
	OK    bool      `json:"ok"`
	Stats StatsBody `json:"stats"`
}

// StatsBody carries the raw counters plus formatted summaries.
type StatsBody struct {
	Total       int64   `json:"total"`
	Saved       int64   `json:"saved"`
	Latency     float64 `json:"latency"`
	LastLatency float64 `json:"lastLatency"`
	AvgRatio    string  `json:"avgRatio"`
	TotalPct    string  `json:"totalPct"`
	Lat         string  `json:"lat"`
	AvgLat      string  `json:"avgLat"`
}

// ResetResponse is the body returned by POST /api/compression/reset.
type ResetResponse struct {
	OK  bool   `json:"ok"`
	Msg string `json:"msg"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// SystemHealthResponse is the body returned by GET /api/system/health.
type SystemHealthResponse struct {
	OK            bool   `json:"ok"`
	Version       string `json:"version"`
	Mode          string `json:"mode"`
	Port          int    `json:"port"`
	VecDim        int    `json:"vec_dim"`
	CacheSegments int    `json:"cache_segments"`
	MaxActive     int    `json:"max_active"`
}
