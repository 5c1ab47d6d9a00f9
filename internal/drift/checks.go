package drift

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"schemadrift/internal/common"
	"schemadrift/internal/gen"
	"schemadrift/internal/ident"
	"schemadrift/internal/snapshot"
	"schemadrift/internal/source"
)

// maxSchemaIssues caps the violations listed per schema result.
const maxSchemaIssues = 10

// Coverage returns the share of fresh names present in known, in percent.
// An empty fresh set is fully covered.
func Coverage(fresh, known []string) float64 {
	names := dedupe(fresh)
	if len(names) == 0 {
		return 100
	}

	covered := len(names) - len(common.Difference(names, known))

	return float64(covered) / float64(len(names)) * 100
}

func dedupe(names []string) []string {
	out := slices.Clone(names)
	slices.Sort(out)

	return slices.Compact(out)
}

// suggest appends a "did you mean" hint to msg when candidates look like name.
func (v *Validator) suggest(msg, name string, candidates []string) string {
	if v.cfg.Suggestions <= 0 {
		return msg
	}

	similar := ident.Similar(name, candidates, v.cfg.Suggestions)
	if len(similar) == 0 {
		return msg
	}

	quoted := make([]string, len(similar))
	for i, s := range similar {
		quoted[i] = fmt.Sprintf("%q", s)
	}

	return msg + " (did you mean " + strings.Join(quoted, ", ") + "?)"
}

func (v *Validator) checkHeader(_ context.Context, in *input) (Status, []string, error) {
	var expected []string

	switch {
	case in.artifacts.Has(gen.RecordsFile) && in.artifacts.Header != nil:
		expected = in.artifacts.Header.JSONNames
	case in.prior != nil:
		expected = in.prior.HeaderKeys()
	default:
		return StatusNotAvailable, []string{"no header record or prior snapshot to compare with"}, nil
	}

	actual := in.fresh.HeaderKeys()
	if len(actual) == 0 {
		return StatusNoData, []string{"source header is empty"}, nil
	}

	var issues []string

	status := StatusPassed

	if missing := common.Difference(actual, expected); len(missing) > 0 {
		status = StatusFailed
		issues = append(issues, fmt.Sprintf("Missing fields in Header record: %s", strings.Join(missing, ", ")))
	}

	if extra := common.Difference(expected, actual); len(extra) > 0 {
		if status == StatusPassed {
			status = StatusWarning
		}

		issues = append(issues, fmt.Sprintf("Header record fields not in source header: %s", strings.Join(extra, ", ")))
	}

	for _, key := range v.cfg.DottedHeaderKeys {
		entry, ok := in.fresh.HeaderEntry(key)
		if ok && entry.Kind != snapshot.KindText && entry.Kind != snapshot.KindUnknown {
			if status == StatusPassed {
				status = StatusWarning
			}

			issues = append(issues, fmt.Sprintf("%s is %s, expected dot-separated text", key, entry.Kind))
		}
	}

	return status, issues, nil
}

func (v *Validator) checkCategories(_ context.Context, in *input) (Status, []string, error) {
	var enum []string

	if values, ok := in.artifacts.EnumValues(v.cfg.CategoryEnum); ok {
		enum = values
	} else if in.prior != nil {
		enum = in.prior.ListedCategoryNames()
	} else {
		return StatusNotAvailable, []string{"no category enum or prior snapshot to compare with"}, nil
	}

	fresh := in.fresh.ListedCategoryNames()
	status := StatusPassed

	var issues []string

	for _, name := range common.Difference(fresh, enum) {
		status = StatusFailed
		issues = append(issues, v.suggest(fmt.Sprintf("%q missing from enum", name), name, enum))
	}

	if extra := common.Difference(enum, fresh); len(extra) > 0 {
		issues = append(issues, fmt.Sprintf("%d enum values not seen in source: %s", len(extra), strings.Join(extra, ", ")))
	}

	return status, issues, nil
}

func (v *Validator) checkFields(_ context.Context, in *input) (Status, []string, error) {
	var enum []string

	if values, ok := in.artifacts.EnumValues(v.cfg.FieldEnum); ok {
		enum = values
	} else if in.prior != nil {
		enum = in.prior.FieldCatalog
	} else {
		return StatusNotAvailable, []string{"no field enum or prior snapshot to compare with"}, nil
	}

	coverage := Coverage(in.fresh.FieldCatalog, enum)
	summary := fmt.Sprintf("field enum covers %.1f%% of %d source fields", coverage, len(dedupe(in.fresh.FieldCatalog)))

	issues := []string{summary}
	if missing := common.Difference(dedupe(in.fresh.FieldCatalog), enum); len(missing) > 0 {
		issues = append(issues, fmt.Sprintf("%d fields missing from enum: %s", len(missing), strings.Join(missing, ", ")))
	}

	if coverage < v.cfg.CoverageThreshold {
		issues[0] = fmt.Sprintf("%s, below the %.0f%% threshold", summary, v.cfg.CoverageThreshold)
		return StatusWarning, issues, nil
	}

	return StatusPassed, issues, nil
}

func (v *Validator) checkRecords(ctx context.Context, in *input) (Status, []string, error) {
	if !in.artifacts.Has(gen.RecordsFile) {
		return StatusNotAvailable, []string{"no records artifact"}, nil
	}

	status := StatusPassed

	var issues []string

	for _, rec := range in.artifacts.Records {
		if rec.Fields == 0 {
			status = StatusFailed
			issues = append(issues, fmt.Sprintf("%s has no fields", rec.Name))
		}
	}

	// Construction failures only mean a type has no usable zero value.
	for _, ctor := range in.artifacts.Constructors {
		if err := in.artifacts.Construct(ctx, ctor); err != nil {
			v.logger.Debug("smoke construction failed", zap.String("constructor", ctor), zap.Error(err))
		}
	}

	return status, issues, nil
}

// schemaDocs returns the schemas to validate against, preferring the
// emitted artifact over a rebuild from the prior snapshot.
func (v *Validator) schemaDocs(in *input) (map[string]string, error) {
	if in.artifacts.Has(gen.SchemasFile) {
		return in.artifacts.Schemas, nil
	}

	if in.prior != nil {
		return gen.BuildSchemas(in.prior, v.cfg.StrictSchemas)
	}

	return nil, nil
}

func (v *Validator) runSchemaChecks(ctx context.Context, report *Report, in *input) {
	docs, err := v.schemaDocs(in)
	if err != nil || docs == nil {
		v.run(ctx, report, SchemaCheckPrefix+"*", in, func(context.Context, *input) (Status, []string, error) {
			if err != nil {
				return StatusError, nil, err
			}

			return StatusNotAvailable, []string{"no schemas artifact or prior snapshot"}, nil
		})

		return
	}

	names := common.SortedKeys(docs)
	for _, c := range in.fresh.Categories {
		if !slices.Contains(names, c.Name) {
			names = append(names, c.Name)
		}
	}

	slices.Sort(names)

	for _, name := range names {
		v.run(ctx, report, SchemaCheckPrefix+name, in, func(ctx context.Context, in *input) (Status, []string, error) {
			return v.checkSchema(ctx, in, name, docs[name])
		})
	}
}

func (v *Validator) checkSchema(ctx context.Context, in *input, name, doc string) (Status, []string, error) {
	if doc == "" {
		return StatusWarning, []string{fmt.Sprintf("no schema for %q", name)}, nil
	}

	if _, live := in.fresh.Category(name); !live {
		return StatusWarning, []string{fmt.Sprintf("schema for %q has no live category", name)}, nil
	}

	batch, err := in.src.FetchBatch(ctx, name)

	switch {
	case errors.Is(err, source.ErrCategoryUnavailable):
		return StatusWarning, []string{err.Error()}, nil
	case err != nil:
		return StatusError, nil, fmt.Errorf("fetching %s: %w", name, err)
	}

	rows := batch.Records(v.cfg.SchemaRowLimit)
	if len(rows) == 0 {
		return StatusNoData, []string{fmt.Sprintf("%q returned no rows", name)}, nil
	}

	for _, row := range rows {
		for k, val := range row {
			row[k] = jsonSafe(val)
		}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(doc), gojsonschema.NewGoLoader(rows))
	if err != nil {
		return StatusError, nil, fmt.Errorf("validating %s: %w", name, err)
	}

	if result.Valid() {
		return StatusPassed, nil, nil
	}

	var issues []string

	for i, e := range result.Errors() {
		if i == maxSchemaIssues {
			issues = append(issues, fmt.Sprintf("... and %d more violations", len(result.Errors())-maxSchemaIssues))
			break
		}

		issues = append(issues, e.String())
	}

	return StatusFailed, issues, nil
}

// jsonSafe replaces values encoding/json rejects.
func jsonSafe(v any) any {
	switch n := v.(type) {
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	}

	return v
}

func finite(f float64) any {
	switch {
	case math.IsNaN(f):
		return nil
	case math.IsInf(f, 1):
		return math.MaxFloat64
	case math.IsInf(f, -1):
		return -math.MaxFloat64
	}

	return f
}

func (v *Validator) checkConsistency(_ context.Context, in *input) (Status, []string, error) {
	if in.prior == nil {
		return StatusNotAvailable, []string{"no prior snapshot"}, nil
	}

	var issues []string

	diff := func(kind string, prior, fresh []string) {
		for _, name := range common.Difference(fresh, prior) {
			issues = append(issues, fmt.Sprintf("%s added since snapshot: %s", kind, name))
		}

		for _, name := range common.Difference(prior, fresh) {
			issues = append(issues, fmt.Sprintf("%s removed since snapshot: %s", kind, name))
		}
	}

	diff("category", in.prior.CategoryNames(), in.fresh.CategoryNames())
	diff("field", dedupe(in.prior.FieldCatalog), dedupe(in.fresh.FieldCatalog))

	for _, note := range in.fresh.Notes {
		issues = append(issues, "analysis note: "+note)
	}

	if len(issues) > 0 {
		return StatusWarning, issues, nil
	}

	return StatusPassed, nil, nil
}

func (v *Validator) checkBlobs(_ context.Context, in *input) (Status, []string, error) {
	if _, ok := in.src.(source.BlobSource); !ok {
		return StatusNotAvailable, []string{"source has no blob collections"}, nil
	}

	fresh := in.fresh.BlobNames()
	if len(fresh) == 0 {
		return StatusNoData, []string{"no blob collections found"}, nil
	}

	issues := []string{fmt.Sprintf("%d blob collections", len(fresh))}

	if in.prior == nil {
		return StatusPassed, issues, nil
	}

	prior := in.prior.BlobNames()
	status := StatusPassed

	for _, name := range common.Difference(fresh, prior) {
		status = StatusWarning
		issues = append(issues, "blob collection added since snapshot: "+name)
	}

	for _, name := range common.Difference(prior, fresh) {
		status = StatusWarning
		issues = append(issues, "blob collection removed since snapshot: "+name)
	}

	return status, issues, nil
}

func (v *Validator) checkTicks(_ context.Context, in *input) (Status, []string, error) {
	if _, ok := in.src.(source.TickSource); !ok {
		return StatusNotAvailable, []string{"source has no tick data"}, nil
	}

	ticks := in.fresh.Ticks

	switch {
	case ticks == nil:
		return StatusNoData, []string{"tick sampling disabled or catalog empty"}, nil
	case ticks.Failed():
		return StatusWarning, []string{ticks.Error}, nil
	case ticks.RowCount == 0:
		return StatusNoData, []string{"no tick rows"}, nil
	}

	return StatusPassed, []string{fmt.Sprintf("%d tick rows, %d fields", ticks.RowCount, len(ticks.Fields))}, nil
}
