package reduction

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/fyrsmithlabs/reductiond/internal/reduction"

// Engine runs reductions and keeps the process-wide statistics.
type Engine struct {
	stats *Stats

	tracer trace.Tracer
	meter  metric.Meter

	operations metric.Int64Counter
	duration   metric.Float64Histogram
	savedChars metric.Int64Counter
	savingsPct metric.Float64Histogram
}

// Option configures an Engine.
type Option func(*Engine)

// WithMeterProvider records engine instruments on mp instead of the global
// provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(e *Engine) {
		e.meter = mp.Meter(instrumentationName)
	}
}

// WithTracerProvider records spans on tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		e.tracer = tp.Tracer(instrumentationName)
	}
}

// NewEngine creates an Engine with zeroed statistics.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		stats:  NewStats(),
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	return e, nil
}

// Reduce shortens text with algorithm, records the savings in the
// statistics and returns the result. An empty algorithm selects
// DefaultAlgorithm.
func (e *Engine) Reduce(ctx context.Context, text string, algorithm Algorithm) Result {
	algorithm = algorithm.OrDefault()

	ctx, span := e.tracer.Start(ctx, "reduction.reduce",
		trace.WithAttributes(
			attribute.String("algorithm", string(algorithm)),
			attribute.Int("original_length", Len(text)),
		),
	)
	defer span.End()

	start := time.Now()
	compressed := Apply(algorithm, text)
	elapsed := float64(time.Since(start)) / float64(time.Millisecond)

	m := ComputeMetrics(text, compressed, elapsed)
	res := Result{
		CompressedText: compressed,
		Metrics:        m,
		Digest:         Digest(compressed),
	}

	e.stats.Record(Len(text), m)
	e.recordMetrics(ctx, algorithm, m)

	span.SetAttributes(
		attribute.Int("saved_chars", m.SavedChars),
		attribute.Float64("savings_pct", m.Pct),
		attribute.String("digest", res.Digest),
	)

	return res
}

// ReduceBatch reduces each text in order. Each element updates the
// statistics exactly as a separate Reduce call would.
func (e *Engine) ReduceBatch(ctx context.Context, texts []string, algorithm Algorithm) []Result {
	ctx, span := e.tracer.Start(ctx, "reduction.reduce_batch",
		trace.WithAttributes(attribute.Int("batch_size", len(texts))),
	)
	defer span.End()

	results := make([]Result, len(texts))
	for i, text := range texts {
		results[i] = e.Reduce(ctx, text, algorithm)
	}
	return results
}

// Analyze reports the metrics every algorithm would achieve on text.
// Latency is not measured and the statistics are not touched.
func (e *Engine) Analyze(ctx context.Context, text string) map[Algorithm]Metrics {
	_, span := e.tracer.Start(ctx, "reduction.analyze",
		trace.WithAttributes(attribute.Int("original_length", Len(text))),
	)
	defer span.End()

	analysis := make(map[Algorithm]Metrics, len(Algorithms))
	for _, a := range Algorithms {
		analysis[a] = ComputeMetrics(text, Apply(a, text), 0)
	}
	return analysis
}

// Stats returns a snapshot of the cumulative statistics.
func (e *Engine) Stats() Statistics {
	return e.stats.Snapshot()
}

// Reset zeroes the cumulative statistics.
func (e *Engine) Reset() {
	e.stats.Reset()
}

func (e *Engine) recordMetrics(ctx context.Context, algorithm Algorithm, m Metrics) {
	attrs := metric.WithAttributes(attribute.String("algorithm", string(algorithm)))

	e.operations.Add(ctx, 1, attrs)
	e.duration.Record(ctx, m.LatencyMs/1000.0, attrs)
	e.savedChars.Add(ctx, int64(m.SavedChars), attrs)
	e.savingsPct.Record(ctx, m.Pct, attrs)
}

func (e *Engine) initMetrics() error {
	var err error

	e.operations, err = e.meter.Int64Counter(
		"reductiond.reduction.operations_total",
		metric.WithDescription("Total number of reductions, labeled by algorithm"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create operations counter: %w", err)
	}

	e.duration, err = e.meter.Float64Histogram(
		"reductiond.reduction.duration_seconds",
		metric.WithDescription("Time spent inside a reduction strategy"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.00001, 0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5),
	)
	if err != nil {
		return fmt.Errorf("failed to create duration histogram: %w", err)
	}

	e.savedChars, err = e.meter.Int64Counter(
		"reductiond.reduction.saved_chars_total",
		metric.WithDescription("Characters removed by reductions"),
		metric.WithUnit("{char}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create saved chars counter: %w", err)
	}

	e.savingsPct, err = e.meter.Float64Histogram(
		"reductiond.reduction.savings_ratio",
		metric.WithDescription("Fraction of the original text removed per reduction"),
		metric.WithUnit("1"),
		metric.WithExplicitBucketBoundaries(0.0, 0.1, 0.2, 0.3, 0.5, 0.7, 0.9, 1.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create savings histogram: %w", err)
	}

	return nil
}
