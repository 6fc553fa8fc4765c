package http

import (
	"context"
	"net/http"
	"testing"

	"github.com/fyrsmithlabs/reductiond/internal/reduction"
	"github.com/fyrsmithlabs/reductiond/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestHTTPMetrics_MetricsMiddleware(t *testing.T) {
	tel := telemetry.NewTestTelemetry()
	server, _, _ := setupTestServer(t, nil, WithMeterProvider(tel.MeterProvider()))

	doJSON(t, server, http.MethodGet, "/health", "")
	doJSON(t, server, http.MethodPost, "/api/compression/compress", `{"text":"hello world"}`)
	doJSON(t, server, http.MethodPost, "/api/compression/compress", `{}`)

	ctx := context.Background()
	requests, ok := tel.Metric(ctx, "reductiond.http.requests_total")
	require.True(t, ok, "requests counter not recorded")

	sum, ok := requests.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	byStatus := map[int64]int64{}
	for _, dp := range sum.DataPoints {
		status, _ := dp.Attributes.Value("status")
		endpoint, _ := dp.Attributes.Value("endpoint")
		if endpoint.AsString() == "/api/compression/compress" {
			byStatus[status.AsInt64()] += dp.Value
		}
	}
	assert.Equal(t, int64(1), byStatus[http.StatusOK])
	assert.Equal(t, int64(1), byStatus[http.StatusBadRequest])

	for _, name := range []string{
		"reductiond.http.request_duration_seconds",
		"reductiond.http.response_size_bytes",
		"reductiond.http.active_requests",
	} {
		_, ok := tel.Metric(ctx, name)
		assert.True(t, ok, "missing %s", name)
	}
}

func TestTracingMiddleware_ParentsEngineSpans(t *testing.T) {
	tel := telemetry.NewTestTelemetry()

	engine, err := reduction.NewEngine(reduction.WithTracerProvider(tel.TracerProvider()))
	require.NoError(t, err)
	server, err := NewServer(engine, nil, zapNop(), nil, WithTracerProvider(tel.TracerProvider()))
	require.NoError(t, err)

	doJSON(t, server, http.MethodPost, "/api/compression/compress", `{"text":"hello world"}`,
		"traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")

	tel.AssertSpanExists(t, "POST /api/compression/compress")
	tel.AssertSpanAttribute(t, "POST /api/compression/compress", "http.response.status_code", int64(200))

	httpSpan := tel.SpanByName("POST /api/compression/compress")
	engineSpan := tel.SpanByName("reduction.reduce")
	require.NotNil(t, engineSpan)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", httpSpan.SpanContext().TraceID().String())
	assert.Equal(t, httpSpan.SpanContext().TraceID(), engineSpan.SpanContext().TraceID())
	assert.Equal(t, httpSpan.SpanContext().SpanID(), engineSpan.Parent().SpanID())
}

func TestMetricsEndpoint(t *testing.T) {
	engine, err := reduction.NewEngine()
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	reg.MustRegister(reduction.NewCollector(engine))

	server, err := NewServer(engine, nil, zapNop(), nil,
		WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	require.NoError(t, err)

	doJSON(t, server, http.MethodPost, "/api/compression/compress", `{"text":"the quick brown fox"}`)

	rec := doJSON(t, server, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "reductiond_stats_chars_processed 19")
	assert.Contains(t, rec.Body.String(), "reductiond_stats_chars_saved 4")
}
