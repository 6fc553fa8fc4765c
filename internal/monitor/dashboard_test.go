package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/reductiond/pkg/client"
)

type fakeSource struct {
	stats *client.Stats
	err   error
}

func (f *fakeSource) Stats(context.Context) (*client.Stats, error) {
	return f.stats, f.err
}

func (f *fakeSource) BaseURL() string { return "http://localhost:8080" }

func TestNewModel(t *testing.T) {
	model := NewModel(&fakeSource{}, 5*time.Second)
	assert.Equal(t, 5*time.Second, model.interval)
	assert.False(t, model.quitting)
	assert.False(t, model.polled)
}

func TestModel_Init(t *testing.T) {
	model := NewModel(&fakeSource{}, 5*time.Second)
	assert.NotNil(t, model.Init())
}

func TestModel_Update_Keys(t *testing.T) {
	model := NewModel(&fakeSource{}, 5*time.Second)

	updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	assert.False(t, updated.(Model).quitting)
	assert.NotNil(t, cmd)

	updated, cmd = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	assert.True(t, updated.(Model).quitting)
	assert.NotNil(t, cmd)
	assert.Empty(t, updated.(Model).View())
}

func TestModel_Update_TickMsg(t *testing.T) {
	model := NewModel(&fakeSource{}, 5*time.Second)
	_, cmd := model.Update(tickMsg(time.Now()))
	assert.NotNil(t, cmd)
}

func TestFetchStats(t *testing.T) {
	src := &fakeSource{stats: &client.Stats{Total: 10}}
	msg := fetchStats(src)()
	sm, ok := msg.(statsMsg)
	require.True(t, ok)
	assert.Equal(t, int64(10), sm.stats.Total)

	src.err = errors.New("connection refused")
	_, ok = fetchStats(src)().(errMsg)
	assert.True(t, ok)
}

func TestModel_Update_StatsMsg(t *testing.T) {
	model := NewModel(&fakeSource{}, time.Second)
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	updated, cmd := model.Update(statsMsg{
		stats: &client.Stats{Total: 100, Saved: 25, Latency: 2, LastLatency: 0.5},
		at:    start,
	})
	assert.Nil(t, cmd)
	m := updated.(Model)
	assert.Equal(t, int64(100), m.snapshot.TotalChars)
	assert.InDelta(t, 0.25, m.snapshot.SavedRatio(), 1e-9)
	assert.InDelta(t, 0.02, m.snapshot.AvgLatencyMs, 1e-9)
	assert.Zero(t, m.snapshot.Throughput)
	assert.Equal(t, []float64{25}, m.snapshot.SavingsHistory)

	updated, _ = m.Update(statsMsg{
		stats: &client.Stats{Total: 300, Saved: 50, Latency: 3, LastLatency: 0.25},
		at:    start.Add(2 * time.Second),
	})
	m = updated.(Model)
	assert.InDelta(t, 100, m.snapshot.Throughput, 1e-9)
	assert.InDelta(t, 100, m.snapshot.ThroughputPeak, 1e-9)
	assert.Len(t, m.snapshot.LatencyHistory, 2)

	// A reset drops the totals; throughput must not go negative.
	updated, _ = m.Update(statsMsg{stats: &client.Stats{}, at: start.Add(3 * time.Second)})
	m = updated.(Model)
	assert.Zero(t, m.snapshot.Throughput)
	assert.InDelta(t, 100, m.snapshot.ThroughputPeak, 1e-9)
	assert.Zero(t, m.snapshot.SavedRatio())
}

func TestModel_Update_ErrMsgClearedByStats(t *testing.T) {
	model := NewModel(&fakeSource{}, time.Second)

	updated, _ := model.Update(errMsg(errors.New("connection refused")))
	m := updated.(Model)
	require.Error(t, m.err)

	updated, _ = m.Update(statsMsg{stats: &client.Stats{}, at: time.Now()})
	assert.NoError(t, updated.(Model).err)
}

func TestAppendToHistory(t *testing.T) {
	var h []float64
	for i := 0; i < historySize+5; i++ {
		h = appendToHistory(h, float64(i))
	}
	assert.Len(t, h, historySize)
	assert.Equal(t, float64(5), h[0])
}

func TestModel_View_WithStats(t *testing.T) {
	model := NewModel(&fakeSource{}, 5*time.Second)
	updated, _ := model.Update(statsMsg{
		stats: &client.Stats{Total: 1500, Saved: 300, Latency: 3, LastLatency: 12.345},
		at:    time.Date(2024, 1, 1, 12, 34, 56, 0, time.UTC),
	})

	view := updated.(Model).View()
	assert.Contains(t, view, "reductiond Monitor")
	assert.Contains(t, view, "12:34:56")
	assert.Contains(t, view, "Savings")
	assert.Contains(t, view, "1.5K")
	assert.Contains(t, view, "20.0%")
	assert.Contains(t, view, "12.35ms")
	assert.Contains(t, view, "[q]")
	assert.Contains(t, view, "[r]")
}

func TestModel_View_WithError(t *testing.T) {
	model := NewModel(&fakeSource{}, 5*time.Second)
	model.err = errors.New("connection refused")

	view := model.View()
	assert.Contains(t, view, "Cannot reach reductiond")
	assert.Contains(t, view, "connection refused")
	assert.Contains(t, view, "http://localhost:8080")
	assert.Contains(t, view, "[r] retry")
}

func TestModel_View_NoData(t *testing.T) {
	view := NewModel(&fakeSource{}, 5*time.Second).View()
	assert.Contains(t, view, "reductiond Monitor")
	assert.Contains(t, view, "Never")
	assert.Contains(t, view, "no data")
}

func TestClientSatisfiesStatsSource(t *testing.T) {
	var _ StatsSource = client.New("")
}
