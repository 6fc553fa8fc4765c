package reduction

import "sync"

// Stats owns the cumulative counters shared by every Reduce call.
//
// All four fields change together under mu; readers always see a state
// produced by a complete Record or Reset.
type Stats struct {
	mu    sync.Mutex
	state Statistics
}

// NewStats returns a zeroed Stats.
func NewStats() *Stats {
	return &Stats{}
}

// Record folds one reduction into the counters.
func (s *Stats) Record(originalLen int, m Metrics) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.TotalChars += int64(originalLen)
	s.state.SavedChars += int64(m.SavedChars)
	s.state.CumulativeLatencyMs += m.LatencyMs
	s.state.LastLatencyMs = m.LatencyMs
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Reset zeroes every counter.
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Statistics{}
}
