package monitor

import (
	"context"

	"github.com/fyrsmithlabs/reductiond/pkg/client"
)

// StatsSource supplies the statistics polled by the dashboard.
// *client.Client satisfies it.
type StatsSource interface {
	Stats(ctx context.Context) (*client.Stats, error)
	BaseURL() string
}

// Snapshot is one poll of the server statistics plus derived values.
type Snapshot struct {
	TotalChars    int64
	SavedChars    int64
	LastLatencyMs float64
	AvgLatencyMs  float64 // per processed character

	// Throughput is processed characters per second since the previous
	// poll. Zero on the first poll and after a reset.
	Throughput float64

	// Histories for sparklines (last historySize polls).
	SavingsHistory    []float64
	LatencyHistory    []float64
	ThroughputHistory []float64

	ThroughputPeak float64
}

// SavedRatio returns SavedChars/TotalChars in [0, 1].
func (s Snapshot) SavedRatio() float64 {
	if s.TotalChars <= 0 {
		return 0
	}
	return float64(s.SavedChars) / float64(s.TotalChars)
}

// snapshotFromStats converts the wire statistics into a Snapshot without
// history.
func snapshotFromStats(st *client.Stats) Snapshot {
	snap := Snapshot{
		TotalChars:    st.Total,
		SavedChars:    st.Saved,
		LastLatencyMs: st.LastLatency,
	}
	if st.Total > 0 {
		snap.AvgLatencyMs = st.Latency / float64(st.Total)
	}
	return snap
}
