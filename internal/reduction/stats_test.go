package reduction

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStats_Record(t *testing.T) {
	s := NewStats()

	s.Record(10, Metrics{SavedChars: 2, LatencyMs: 1.25})
	s.Record(20, Metrics{SavedChars: 5, LatencyMs: 0.5})

	snap := s.Snapshot()
	assert.Equal(t, int64(30), snap.TotalChars)
	assert.Equal(t, int64(7), snap.SavedChars)
	assert.InDelta(t, 1.75, snap.CumulativeLatencyMs, 1e-12)
	assert.Equal(t, 0.5, snap.LastLatencyMs)
	assert.InDelta(t, 7.0/30.0, snap.AvgRatio(), 1e-12)
	assert.InDelta(t, 1.75/30.0, snap.AvgLatencyPerChar(), 1e-12)
}

func TestStats_Reset(t *testing.T) {
	s := NewStats()
	s.Record(10, Metrics{SavedChars: 2, LatencyMs: 3})

	s.Reset()

	assert.Equal(t, Statistics{}, s.Snapshot())
	assert.Zero(t, s.Snapshot().AvgRatio())
	assert.Zero(t, s.Snapshot().AvgLatencyPerChar())
}

func TestStats_ConcurrentRecord(t *testing.T) {
	s := NewStats()

	const workers = 16
	const perWorker = 500

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				s.Record(3, Metrics{SavedChars: 1, LatencyMs: 1})
				snap := s.Snapshot()
				assert.GreaterOrEqual(t, snap.TotalChars, snap.SavedChars)
			}
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	assert.Equal(t, int64(workers*perWorker*3), snap.TotalChars)
	assert.Equal(t, int64(workers*perWorker), snap.SavedChars)
	assert.Equal(t, float64(workers*perWorker), snap.CumulativeLatencyMs)
}

func TestStats_ResetDuringRecord(t *testing.T) {
	s := NewStats()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			s.Record(4, Metrics{SavedChars: 4, LatencyMs: 2})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			s.Reset()
		}
	}()
	wg.Wait()

	// every record saves all of its input, so any consistent state has
	// equal totals and a latency sum of half the char count
	snap := s.Snapshot()
	assert.Equal(t, snap.TotalChars, snap.SavedChars)
	assert.Equal(t, float64(snap.TotalChars)/2, snap.CumulativeLatencyMs)
}
