package analyze

import (
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"schemadrift/internal/observability"
	"schemadrift/internal/profile"
)

// Config holds analysis settings.
type Config struct {
	// SampleRows is the number of rows kept per category for reporting.
	SampleRows int
	// BatchCandidates is the number of categories used for the batch-fetch consistency check.
	BatchCandidates int
	// Workers bounds concurrent category analysis. 1 means sequential.
	Workers int
	// WellKnown lists categories fetched even when the source does not list them.
	WellKnown []string
	// IncludeTicks enables tick-schema sampling on sources that support it.
	IncludeTicks bool
	// TickFieldSample is the number of catalog fields sampled for ticks.
	TickFieldSample int
	// ToolVersion is recorded in snapshot metadata.
	ToolVersion string
	// Profile configures field descriptors.
	Profile profile.Options
}

// DefaultConfig returns the default analysis configuration.
func DefaultConfig() Config {
	return Config{
		SampleRows:      3,
		BatchCandidates: 5,
		Workers:         1,
		TickFieldSample: 5,
		Profile:         profile.DefaultOptions(),
	}
}

// Option customises an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Analyzer) { a.logger = logger }
}

// WithTracerProvider sets the tracer provider used for spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(a *Analyzer) { a.tracer = observability.Tracer(tp) }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

// WithClock overrides the clock used for metadata timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// WithRunID overrides run id generation.
func WithRunID(newID func() string) Option {
	return func(a *Analyzer) { a.newID = newID }
}

func defaultRunID() string {
	return uuid.NewString()
}
