package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fyrsmithlabs/reductiond/internal/events"
	"github.com/fyrsmithlabs/reductiond/internal/logging"
	"github.com/fyrsmithlabs/reductiond/internal/reduction"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Validation messages returned in ErrorResponse.Error.
const (
	errInvalidBody      = "invalid request body"
	errTextRequired     = "text required"
	errTextsArray       = "texts must be array"
	errTextsStrings     = "texts must contain only strings"
	errInvalidAlgorithm = "invalid algorithm"
)

func badRequest(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}

// decodeText returns the non-empty string in raw, or errTextRequired.
func decodeText(raw json.RawMessage) (string, error) {
	var text string
	if len(raw) == 0 || json.Unmarshal(raw, &text) != nil || text == "" {
		return "", badRequest(errTextRequired)
	}
	return text, nil
}

// decodeTexts returns the string array in raw. A missing or non-array
// value and non-string elements are rejected.
func decodeTexts(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, badRequest(errTextsArray)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, badRequest(errTextsArray)
	}
	texts := make([]string, len(items))
	for i, item := range items {
		if err := json.Unmarshal(item, &texts[i]); err != nil || bytes.Equal(bytes.TrimSpace(item), []byte("null")) {
			return nil, badRequest(errTextsStrings)
		}
	}
	return texts, nil
}

func parseAlgorithm(name string) (reduction.Algorithm, error) {
	algo, err := reduction.ParseAlgorithm(name)
	if err != nil {
		return "", badRequest(errInvalidAlgorithm)
	}
	return algo, nil
}

// recommend picks the algorithm with the strictly highest Pct, walking
// algorithms in declaration order and starting from the default.
func recommend(analysis map[reduction.Algorithm]reduction.Metrics) reduction.Algorithm {
	best := reduction.DefaultAlgorithm
	max := 0.0
	for _, algo := range reduction.Algorithms {
		if pct := analysis[algo].Pct; pct > max {
			max = pct
			best = algo
		}
	}
	return best
}

// fixed formats v with two decimals, the way every summary string is
// rendered.
func fixed(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func (s *Server) handleCompress(c echo.Context) error {
	var req CompressRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(errInvalidBody)
	}
	text, err := decodeText(req.Text)
	if err != nil {
		return err
	}
	algo, err := parseAlgorithm(req.Algorithm)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	result := s.engine.Reduce(ctx, text, algo)

	s.publish(c, events.Event{
		Type:          events.TypeReductionCompleted,
		Algorithm:     string(algo),
		Count:         1,
		OriginalChars: reduction.Len(text),
		SavedChars:    result.Metrics.SavedChars,
		LatencyMs:     result.Metrics.LatencyMs,
		Digest:        result.Digest,
	})

	return c.JSON(http.StatusOK, CompressResponse{OK: true, Result: result})
}

func (s *Server) handleBatch(c echo.Context) error {
	var req BatchRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(errInvalidBody)
	}
	texts, err := decodeTexts(req.Texts)
	if err != nil {
		return err
	}
	algo, err := parseAlgorithm(req.Algorithm)
	if err != nil {
		return err
	}

	results := s.engine.ReduceBatch(c.Request().Context(), texts, algo)

	ev := events.Event{
		Type:      events.TypeBatchCompleted,
		Algorithm: string(algo),
		Count:     len(results),
	}
	total := 0
	for i, r := range results {
		total += r.Metrics.SavedChars
		ev.OriginalChars += reduction.Len(texts[i])
		ev.LatencyMs += r.Metrics.LatencyMs
	}
	ev.SavedChars = total
	s.publish(c, ev)

	return c.JSON(http.StatusOK, BatchResponse{OK: true, Results: results, Total: total})
}

func (s *Server) handleAnalyze(c echo.Context) error {
	var req AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(errInvalidBody)
	}
	text, err := decodeText(req.Text)
	if err != nil {
		return err
	}

	analysis := s.engine.Analyze(c.Request().Context(), text)
	best := recommend(analysis)

	return c.JSON(http.StatusOK, AnalyzeResponse{
		OK:       true,
		Analysis: analysis,
		Recommendation: Recommendation{
			Algorithm: best,
			Savings:   fixed(analysis[best].Pct*100) + "%",
			Latency:   fixed(s.engine.Stats().LastLatencyMs) + "ms",
		},
	})
}

func (s *Server) handleStats(c echo.Context) error {
	st := s.engine.Stats()

	body := StatsBody{
		Total:       st.TotalChars,
		Saved:       st.SavedChars,
		Latency:     st.CumulativeLatencyMs,
		LastLatency: st.LastLatencyMs,
		AvgRatio:    fixed(st.AvgRatio()*100) + "%",
		TotalPct:    "0%",
		Lat:         fixed(st.LastLatencyMs) + "ms",
		AvgLat:      "0ms",
	}
	if st.TotalChars > 0 {
		body.TotalPct = fixed(st.AvgRatio()*100) + "%"
		body.AvgLat = fixed(st.AvgLatencyPerChar()) + "ms"
	}

	return c.JSON(http.StatusOK, StatsResponse{OK: true, Stats: body})
}

func (s *Server) handleReset(c echo.Context) error {
	s.engine.Reset()
	s.publish(c, events.Event{Type: events.TypeStatsReset})
	return c.JSON(http.StatusOK, ResetResponse{OK: true, Msg: "reset done"})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Service: "reductiond"})
}

func (s *Server) handleSystemHealth(c echo.Context) error {
	sys := s.config.System
	return c.JSON(http.StatusOK, SystemHealthResponse{
		OK:            true,
		Version:       s.version,
		Mode:          sys.Mode,
		Port:          s.config.Server.Port,
		VecDim:        sys.VecDim,
		CacheSegments: sys.CacheSegments,
		MaxActive:     sys.MaxActive,
	})
}

// publish sends ev and logs failures. A failed publish never fails the
// request.
func (s *Server) publish(c echo.Context, ev events.Event) {
	ctx := c.Request().Context()
	ev.RequestID = logging.RequestIDFromContext(ctx)
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("failed to publish event",
			append(logging.ContextFields(ctx), zap.String("type", string(ev.Type)), zap.Error(err))...)
	}
}
