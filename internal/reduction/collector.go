package reduction

import "github.com/prometheus/client_golang/prometheus"

// StatsSource supplies statistics snapshots.
type StatsSource interface {
	Stats() Statistics
}

// Collector exposes the cumulative statistics as Prometheus gauges.
//
// Values are read from the source on every scrape, so a Reset shows up as
// a drop to zero rather than a counter reset.
type Collector struct {
	source StatsSource

	totalChars    *prometheus.Desc
	savedChars    *prometheus.Desc
	latencyTotal  *prometheus.Desc
	latencyLast   *prometheus.Desc
	averageSaving *prometheus.Desc
}

// NewCollector creates a Collector reading from source.
func NewCollector(source StatsSource) *Collector {
	return &Collector{
		source: source,
		totalChars: prometheus.NewDesc(
			"reductiond_stats_chars_processed",
			"Characters received by reductions since start or last reset",
			nil, nil,
		),
		savedChars: prometheus.NewDesc(
			"reductiond_stats_chars_saved",
			"Characters removed by reductions since start or last reset",
			nil, nil,
		),
		latencyTotal: prometheus.NewDesc(
			"reductiond_stats_latency_cumulative_ms",
			"Sum of strategy latencies in milliseconds",
			nil, nil,
		),
		latencyLast: prometheus.NewDesc(
			"reductiond_stats_latency_last_ms",
			"Strategy latency of the most recent reduction in milliseconds",
			nil, nil,
		),
		averageSaving: prometheus.NewDesc(
			"reductiond_stats_savings_ratio",
			"Saved characters divided by processed characters",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalChars
	ch <- c.savedChars
	ch <- c.latencyTotal
	ch <- c.latencyLast
	ch <- c.averageSaving
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stats()

	ch <- prometheus.MustNewConstMetric(c.totalChars, prometheus.GaugeValue, float64(s.TotalChars))
	ch <- prometheus.MustNewConstMetric(c.savedChars, prometheus.GaugeValue, float64(s.SavedChars))
	ch <- prometheus.MustNewConstMetric(c.latencyTotal, prometheus.GaugeValue, s.CumulativeLatencyMs)
	ch <- prometheus.MustNewConstMetric(c.latencyLast, prometheus.GaugeValue, s.LastLatencyMs)
	ch <- prometheus.MustNewConstMetric(c.averageSaving, prometheus.GaugeValue, s.AvgRatio())
}
