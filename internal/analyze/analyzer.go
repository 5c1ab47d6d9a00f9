package analyze

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"schemadrift/internal/common"
	"schemadrift/internal/observability"
	"schemadrift/internal/profile"
	"schemadrift/internal/snapshot"
	"schemadrift/internal/source"
)

// Analyzer builds snapshots from sources.
type Analyzer struct {
	cfg     Config
	builder *profile.Builder
	logger  *zap.Logger
	tracer  trace.Tracer
	metrics *observability.Metrics
	now     func() time.Time
	newID   func() string
}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer(cfg Config, opts ...Option) *Analyzer {
	def := DefaultConfig()
	if cfg.SampleRows < 0 {
		cfg.SampleRows = def.SampleRows
	}

	if cfg.BatchCandidates < 0 {
		cfg.BatchCandidates = def.BatchCandidates
	}

	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	if cfg.TickFieldSample <= 0 {
		cfg.TickFieldSample = def.TickFieldSample
	}

	a := &Analyzer{
		cfg:     cfg,
		builder: profile.NewBuilder(cfg.Profile),
		logger:  zap.NewNop(),
		tracer:  observability.Tracer(nil),
		now:     time.Now,
		newID:   defaultRunID,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// target is one category to analyze.
type target struct {
	name      string
	wellKnown bool
}

// Analyze runs a full discovery pass over src. It fails only when the source
// cannot be listed; every other problem is recorded in the snapshot.
func (a *Analyzer) Analyze(ctx context.Context, src source.Adapter) (*snapshot.Snapshot, error) {
	ctx, span := a.tracer.Start(ctx, "schemadrift.analyze")
	defer span.End()

	meta := a.metadata(src)

	names, err := listCategories(ctx, src)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list categories")

		if errors.Is(err, source.ErrSourceUnopenable) {
			return nil, err
		}

		return nil, source.Unopenable(meta.Source, err)
	}

	snap := &snapshot.Snapshot{Metadata: meta}

	targets, dupes := a.targets(names)
	for _, d := range dupes {
		snap.Notes = append(snap.Notes, fmt.Sprintf("category %q listed more than once", d))
	}

	span.SetAttributes(attribute.Int("analysis.categories", len(targets)))

	snap.Categories = a.analyzeCategories(ctx, src, targets)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap.Notes = append(snap.Notes, a.checkBatchConsistency(ctx, src, snap)...)
	snap.Header, snap.Notes = a.header(ctx, src, snap.Notes)
	snap.FieldCatalog, snap.Notes = a.fieldCatalog(ctx, src, snap.Notes)
	snap.Blobs, snap.Notes = a.blobs(ctx, src, snap.Notes)

	if a.cfg.IncludeTicks {
		snap.Ticks, snap.Notes = a.ticks(ctx, src, snap.FieldCatalog, snap.Notes)
	}

	snap.Summarize()

	a.logger.Info("analysis complete",
		zap.String("source", meta.Source),
		zap.Int("categories", snap.Summary.TotalCategories),
		zap.Int("failed", snap.Summary.FailedCategories),
		zap.Int("fields", snap.Summary.FieldCatalogSize),
		zap.Int("notes", len(snap.Notes)))

	return snap, nil
}

func (a *Analyzer) metadata(src source.Adapter) snapshot.Metadata {
	meta := snapshot.Metadata{
		RunID:       a.newID(),
		Source:      common.UnknownStr,
		AnalyzedAt:  a.now().UTC(),
		ToolVersion: a.cfg.ToolVersion,
	}

	if d, ok := src.(source.Describer); ok {
		desc := d.Describe()
		if desc.ID != "" {
			meta.Source = desc.ID
		}

		meta.SizeBytes = desc.SizeBytes
		if desc.SizeBytes > 0 {
			meta.Size = humanize.Bytes(uint64(desc.SizeBytes))
		}
	}

	return meta
}

// targets returns listed categories in order followed by well-known
// categories the source did not list. Repeated listings are dropped.
func (a *Analyzer) targets(names []string) ([]target, []string) {
	seen := make(map[string]struct{}, len(names))
	out := make([]target, 0, len(names)+len(a.cfg.WellKnown))

	var dupes []string

	for _, n := range names {
		if _, ok := seen[n]; ok {
			dupes = append(dupes, n)
			continue
		}

		seen[n] = struct{}{}
		out = append(out, target{name: n})
	}

	for _, n := range a.cfg.WellKnown {
		if _, ok := seen[n]; ok {
			continue
		}

		seen[n] = struct{}{}
		out = append(out, target{name: n, wellKnown: true})
	}

	return out, dupes
}

// analyzeCategories profiles every target. Results keep target order
// whatever the worker count.
func (a *Analyzer) analyzeCategories(ctx context.Context, src source.Adapter, targets []target) []*snapshot.Category {
	results := make([]*snapshot.Category, len(targets))

	if a.cfg.Workers <= 1 {
		for i, t := range targets {
			results[i] = a.analyzeCategory(ctx, src, t)
		}

		return results
	}

	var g errgroup.Group
	g.SetLimit(a.cfg.Workers)

	for i, t := range targets {
		g.Go(func() error {
			results[i] = a.analyzeCategory(ctx, src, t)
			return nil
		})
	}

	_ = g.Wait()

	return results
}

func (a *Analyzer) analyzeCategory(ctx context.Context, src source.Adapter, t target) (cat *snapshot.Category) {
	ctx, span := a.tracer.Start(ctx, "schemadrift.analyze.category",
		trace.WithAttributes(attribute.String("category", t.name)))
	defer span.End()

	cat = &snapshot.Category{Name: t.name, WellKnown: t.wellKnown, Fields: []snapshot.Field{}}

	defer func() {
		if r := recover(); r != nil {
			cat = a.failCategory(span, t, fmt.Errorf("panic while analyzing: %v", r))
		}
	}()

	batch, err := src.FetchBatch(ctx, t.name)
	if err == nil && batch == nil {
		err = errors.New("source returned no batch")
	}

	if err == nil {
		err = batch.Validate()
	}

	if err != nil {
		return a.failCategory(span, t, err)
	}

	cat.Fields = a.builder.BuildBatch(batch)
	cat.RowCount = batch.Rows()

	if a.cfg.SampleRows > 0 {
		for _, row := range batch.Records(a.cfg.SampleRows) {
			for k, v := range row {
				row[k] = snapshot.SanitizeValue(v)
			}

			cat.Sample = append(cat.Sample, row)
		}
	}

	for _, f := range cat.Fields {
		if f.Error != "" {
			a.logger.Warn("field profiling problem",
				zap.String("category", t.name), zap.String("field", f.Name), zap.String("error", f.Error))
		}
	}

	a.metrics.CategoryAnalyzed("ok")
	a.metrics.FieldsProfiled(len(cat.Fields))
	a.logger.Debug("category analyzed",
		zap.String("category", t.name), zap.Int("rows", cat.RowCount), zap.Int("fields", len(cat.Fields)))

	return cat
}

func (a *Analyzer) failCategory(span trace.Span, t target, err error) *snapshot.Category {
	span.RecordError(err)
	span.SetStatus(codes.Error, "category failed")
	a.metrics.CategoryAnalyzed("failed")
	a.logger.Warn("category unavailable", zap.String("category", t.name), zap.Error(err))

	return &snapshot.Category{
		Name:      t.name,
		WellKnown: t.wellKnown,
		Fields:    []snapshot.Field{},
		Error:     err.Error(),
	}
}

func listCategories(ctx context.Context, src source.Adapter) (names []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while listing categories: %v", r)
		}
	}()

	return src.ListCategories(ctx)
}

// guard runs fn and converts a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return fn()
}

func (a *Analyzer) header(ctx context.Context, src source.Adapter, notes []string) ([]snapshot.HeaderEntry, []string) {
	var h *source.Header

	err := guard(func() error {
		var err error
		h, err = src.FetchHeader(ctx)

		return err
	})
	if err != nil {
		a.logger.Warn("header unavailable", zap.Error(err))
		return []snapshot.HeaderEntry{}, append(notes, "header unavailable: "+err.Error())
	}

	return a.builder.BuildHeader(h), notes
}

func (a *Analyzer) fieldCatalog(ctx context.Context, src source.Adapter, notes []string) ([]string, []string) {
	var fields []string

	err := guard(func() error {
		var err error
		fields, err = src.ListPrimitiveFields(ctx)

		return err
	})
	if err != nil {
		a.logger.Warn("field catalog unavailable", zap.Error(err))
		return []string{}, append(notes, "field catalog unavailable: "+err.Error())
	}

	fields = slices.Clone(fields)
	slices.Sort(fields)

	return slices.Compact(fields), notes
}

// sampleKeys is the number of keys kept per blob collection summary.
const sampleKeys = 5

func (a *Analyzer) blobs(ctx context.Context, src source.Adapter, notes []string) ([]snapshot.BlobCollection, []string) {
	bs, ok := src.(source.BlobSource)
	if !ok {
		return nil, notes
	}

	var names []string

	err := guard(func() error {
		var err error
		names, err = bs.BlobCollections(ctx)

		return err
	})
	if err != nil {
		return nil, append(notes, "blob collections unavailable: "+err.Error())
	}

	names = slices.Clone(names)
	slices.Sort(names)

	out := make([]snapshot.BlobCollection, 0, len(names))

	for _, name := range names {
		var entries map[string][]byte

		err := guard(func() error {
			var err error
			entries, err = bs.FetchBlobCollection(ctx, name)

			return err
		})
		if err != nil {
			notes = append(notes, fmt.Sprintf("blob collection %q unavailable: %v", name, err))
			continue
		}

		coll := snapshot.BlobCollection{Name: name, Count: len(entries)}
		for _, data := range entries {
			coll.TotalBytes += int64(len(data))
		}

		keys := common.SortedKeys(entries)
		coll.SampleKeys = keys[:min(sampleKeys, len(keys))]
		out = append(out, coll)
	}

	return out, notes
}

func (a *Analyzer) ticks(ctx context.Context, src source.Adapter, catalog []string, notes []string) (*snapshot.Category, []string) {
	ts, ok := src.(source.TickSource)
	if !ok {
		return nil, append(notes, "tick sampling not supported by source")
	}

	fields := catalog[:min(a.cfg.TickFieldSample, len(catalog))]
	if len(fields) == 0 {
		return nil, append(notes, "tick sampling skipped: empty field catalog")
	}

	cat := &snapshot.Category{Name: "ticks", Fields: []snapshot.Field{}}

	var batch *source.Batch

	err := guard(func() error {
		var err error
		batch, err = ts.FetchTicks(ctx, fields)

		return err
	})
	if err == nil && batch != nil {
		err = batch.Validate()
	}

	if err != nil {
		cat.Error = err.Error()
		return cat, append(notes, "tick sampling failed: "+err.Error())
	}

	cat.Fields = a.builder.BuildBatch(batch)
	cat.RowCount = batch.Rows()

	return cat, notes
}
