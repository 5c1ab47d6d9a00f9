package drift

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"schemadrift/internal/analyze"
	"schemadrift/internal/artifact"
	"schemadrift/internal/gen"
	"schemadrift/internal/observability"
	"schemadrift/internal/snapshot"
	"schemadrift/internal/source"
)

// Check result names.
const (
	CheckHeader      = "header"
	CheckCategories  = "categories"
	CheckFields      = "fields"
	CheckRecords     = "records"
	CheckConsistency = "consistency"
	CheckBlobs       = "blobs"
	CheckTicks       = "ticks"

	// SchemaCheckPrefix prefixes the per-category schema results.
	SchemaCheckPrefix = "schema/"
)

// Config holds validation settings.
type Config struct {
	// CoverageThreshold is the minimum field-catalog coverage, in percent.
	CoverageThreshold float64
	// CategoryEnum and FieldEnum name the generated enum types.
	CategoryEnum string
	FieldEnum    string
	// DottedHeaderKeys are header keys expected to hold '.'-separated text.
	DottedHeaderKeys []string
	// StrictSchemas is used when schemas are rebuilt from a prior snapshot.
	StrictSchemas bool
	// SchemaRowLimit caps the rows validated per category; negative means all.
	SchemaRowLimit int
	// Suggestions is the number of "did you mean" candidates per issue.
	Suggestions int
}

// DefaultConfig returns the default validation configuration.
func DefaultConfig() Config {
	def := gen.DefaultGeneratorConfig()

	return Config{
		CoverageThreshold: 80,
		CategoryEnum:      def.CategoryEnum,
		FieldEnum:         def.FieldEnum,
		DottedHeaderKeys:  def.DottedHeaderKeys,
		StrictSchemas:     def.StrictSchemas,
		SchemaRowLimit:    -1,
		Suggestions:       1,
	}
}

// Option customises a Validator.
type Option func(*Validator)

// WithAnalyzer sets the analyzer used for the fresh snapshot.
func WithAnalyzer(a *analyze.Analyzer) Option {
	return func(v *Validator) { v.analyzer = a }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(v *Validator) { v.logger = logger }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) Option {
	return func(v *Validator) { v.metrics = m }
}

// WithTracerProvider sets the tracer provider used for spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(v *Validator) { v.tracer = observability.Tracer(tp) }
}

// Validator compares a fresh sample of a source with earlier outputs.
type Validator struct {
	cfg      Config
	analyzer *analyze.Analyzer
	logger   *zap.Logger
	metrics  *observability.Metrics
	tracer   trace.Tracer
}

// NewValidator creates a new Validator.
func NewValidator(cfg Config, opts ...Option) *Validator {
	def := DefaultConfig()
	if cfg.CategoryEnum == "" {
		cfg.CategoryEnum = def.CategoryEnum
	}

	if cfg.FieldEnum == "" {
		cfg.FieldEnum = def.FieldEnum
	}

	v := &Validator{
		cfg:    cfg,
		logger: zap.NewNop(),
		tracer: observability.Tracer(nil),
	}

	for _, opt := range opts {
		opt(v)
	}

	if v.analyzer == nil {
		v.analyzer = analyze.NewAnalyzer(analyze.DefaultConfig(), analyze.WithLogger(v.logger))
	}

	return v
}

// input is what every check reads.
type input struct {
	src       source.Adapter
	fresh     *snapshot.Snapshot
	prior     *snapshot.Snapshot
	artifacts *artifact.Set
}

type checkFunc func(ctx context.Context, in *input) (Status, []string, error)

// Validate analyzes src afresh and runs every check against prior and
// artifacts, either of which may be nil. Only an unopenable source is
// returned as an error; everything else ends up in the report.
func (v *Validator) Validate(ctx context.Context, src source.Adapter, prior *snapshot.Snapshot, artifacts *artifact.Set) (*Report, error) {
	ctx, span := v.tracer.Start(ctx, "schemadrift.validate")
	defer span.End()

	fresh, err := v.analyzer.Analyze(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("analyzing source: %w", err)
	}

	return v.Compare(ctx, src, fresh, prior, artifacts), nil
}

// Compare runs every check for an already analyzed fresh snapshot.
func (v *Validator) Compare(ctx context.Context, src source.Adapter, fresh, prior *snapshot.Snapshot, artifacts *artifact.Set) *Report {
	in := &input{src: src, fresh: fresh, prior: prior, artifacts: artifacts}
	report := NewReport()

	checks := []struct {
		name string
		fn   checkFunc
	}{
		{CheckHeader, v.checkHeader},
		{CheckCategories, v.checkCategories},
		{CheckFields, v.checkFields},
		{CheckRecords, v.checkRecords},
	}

	for _, c := range checks {
		v.run(ctx, report, c.name, in, c.fn)
	}

	v.runSchemaChecks(ctx, report, in)

	v.run(ctx, report, CheckConsistency, in, v.checkConsistency)
	v.run(ctx, report, CheckBlobs, in, v.checkBlobs)
	v.run(ctx, report, CheckTicks, in, v.checkTicks)

	trace.SpanFromContext(ctx).SetAttributes(attribute.Bool("schemadrift.passed", report.Passed()))

	v.logger.Info("validation finished",
		zap.Bool("passed", report.Passed()),
		zap.Int("checks", len(report.order)))

	return report
}

// run executes one check in isolation and records its outcome under name.
func (v *Validator) run(ctx context.Context, report *Report, name string, in *input, fn checkFunc) {
	report.Start(name)

	status, issues := v.guard(ctx, name, in, fn)
	if err := report.Set(name, status, issues...); err != nil {
		v.logger.Error("check result rejected", zap.String("check", name), zap.Error(err))
	}

	v.metrics.CheckCompleted(string(status))
	v.logger.Debug("check finished", zap.String("check", name), zap.String("status", string(status)))
}

func (v *Validator) guard(ctx context.Context, name string, in *input, fn checkFunc) (status Status, issues []string) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error("check panicked",
				zap.String("check", name),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))

			status, issues = StatusError, []string{fmt.Sprint(r)}
		}
	}()

	status, issues, err := fn(ctx, in)
	if err != nil {
		return StatusError, []string{err.Error()}
	}

	if !status.Terminal() {
		return StatusError, append(issues, "check finished without a result")
	}

	return status, issues
}
