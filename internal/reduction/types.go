package reduction

import "fmt"

// Algorithm selects the strategy used to reduce text.
type Algorithm string

const (
	// AlgorithmSemantic removes stop words and keeps every other token.
	AlgorithmSemantic Algorithm = "semantic"
	// AlgorithmSyntactic removes punctuation and normalizes whitespace.
	AlgorithmSyntactic Algorithm = "syntactic"
	// AlgorithmAggressive normalizes whitespace and truncates long text.
	AlgorithmAggressive Algorithm = "aggressive"
)

// DefaultAlgorithm is used when a caller does not name one.
const DefaultAlgorithm = AlgorithmSemantic

// Algorithms lists every algorithm in recommendation order.
var Algorithms = []Algorithm{AlgorithmSemantic, AlgorithmSyntactic, AlgorithmAggressive}

// ParseAlgorithm resolves a wire name to an Algorithm.
// The empty string resolves to DefaultAlgorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	if name == "" {
		return DefaultAlgorithm, nil
	}
	a := Algorithm(name)
	if !a.Valid() {
		return "", fmt.Errorf("unknown algorithm %q", name)
	}
	return a, nil
}

// Valid reports whether a is one of the known algorithms.
func (a Algorithm) Valid() bool {
	switch a {
	case AlgorithmSemantic, AlgorithmSyntactic, AlgorithmAggressive:
		return true
	}
	return false
}

// OrDefault returns a, or DefaultAlgorithm when a is not a known algorithm.
func (a Algorithm) OrDefault() Algorithm {
	if a.Valid() {
		return a
	}
	return DefaultAlgorithm
}

// Metrics describes the savings of one reduction.
type Metrics struct {
	// SavedChars is max(0, len(original) - len(compressed)).
	SavedChars int `json:"saved"`
	// Ratio is SavedChars relative to the compressed length.
	Ratio float64 `json:"ratio"`
	// Pct is SavedChars relative to the original length, in [0, 1].
	Pct float64 `json:"pct"`
	// LatencyMs is the time spent in the strategy, zero for Analyze.
	LatencyMs float64 `json:"latency"`
}

// Result is the outcome of a single Reduce call.
type Result struct {
	CompressedText string  `json:"comp"`
	Metrics        Metrics `json:"metrics"`
	Digest         string  `json:"hash"`
}

// Statistics is a snapshot of the cumulative counters.
type Statistics struct {
	TotalChars          int64   `json:"total"`
	SavedChars          int64   `json:"saved"`
	CumulativeLatencyMs float64 `json:"latency"`
	LastLatencyMs       float64 `json:"lastLatency"`
}

// AvgRatio returns SavedChars/TotalChars, or 0 before any input was seen.
func (s Statistics) AvgRatio() float64 {
	if s.TotalChars <= 0 {
		return 0
	}
	return float64(s.SavedChars) / float64(s.TotalChars)
}

// AvgLatencyPerChar returns the cumulative latency divided by TotalChars.
func (s Statistics) AvgLatencyPerChar() float64 {
	if s.TotalChars <= 0 {
		return 0
	}
	return s.CumulativeLatencyMs / float64(s.TotalChars)
}
