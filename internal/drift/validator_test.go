package drift

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemadrift/internal/analyze"
	"schemadrift/internal/artifact"
	"schemadrift/internal/gen"
	"schemadrift/internal/observability"
	"schemadrift/internal/snapshot"
	"schemadrift/internal/source"
	"schemadrift/internal/source/memsource"
)

func demoSource() *memsource.Source {
	return memsource.New("demo").
		AddCategory("round_start",
			source.Column{Name: "tick", DeclaredType: "int64", Values: []any{int64(1), int64(2)}},
			source.Column{Name: "timelimit", DeclaredType: "float64", Values: []any{1.5, nil}},
		).
		AddCategory("player_death",
			source.Column{Name: "tick", DeclaredType: "int64", Values: []any{int64(5)}},
			source.Column{Name: "weapon", DeclaredType: "object", Values: []any{"ak47"}},
			source.Column{Name: "headshot", DeclaredType: "bool", Values: []any{true}},
		).
		SetHeader([]string{"map_name", "addons"}, map[string]any{"map_name": "de_dust2", "addons": "a.b"}).
		SetFields("m_iHealth", "CCSPlayerPawn.m_vec")
}

func analyzeSource(t *testing.T, src source.Adapter) *snapshot.Snapshot {
	t.Helper()

	snap, err := analyze.NewAnalyzer(analyze.DefaultConfig()).Analyze(context.Background(), src)
	require.NoError(t, err)

	return snap
}

func artifactsFor(t *testing.T, snap *snapshot.Snapshot) *artifact.Set {
	t.Helper()

	res, err := gen.NewGenerator(gen.DefaultGeneratorConfig()).Generate(context.Background(), snap)
	require.NoError(t, err)

	files := make(map[string][]byte)
	for _, f := range res.Files {
		files[f.Filename] = f.Content
	}

	set, err := artifact.Parse(files)
	require.NoError(t, err)

	return set
}

func status(t *testing.T, r *Report, name string) Status {
	t.Helper()

	res, ok := r.Result(name)
	require.True(t, ok, "no result %q in %s", name, spew.Sdump(r.Results()))

	return res.Status
}

func TestValidate_AllPass(t *testing.T) {
	t.Parallel()

	src := demoSource()
	prior := analyzeSource(t, src)

	report, err := NewValidator(DefaultConfig()).Validate(context.Background(), src, prior, artifactsFor(t, prior))
	require.NoError(t, err)

	assert.True(t, report.Passed(), spew.Sdump(report.Results()))
	assert.Equal(t, StatusPassed, status(t, report, CheckHeader))
	assert.Equal(t, StatusPassed, status(t, report, CheckCategories))
	assert.Equal(t, StatusPassed, status(t, report, CheckFields))
	assert.Equal(t, StatusPassed, status(t, report, CheckRecords))
	assert.Equal(t, StatusPassed, status(t, report, SchemaCheckPrefix+"round_start"))
	assert.Equal(t, StatusPassed, status(t, report, SchemaCheckPrefix+"player_death"))
	assert.Equal(t, StatusPassed, status(t, report, CheckConsistency))
	assert.Equal(t, StatusNoData, status(t, report, CheckBlobs))
	assert.Equal(t, StatusNoData, status(t, report, CheckTicks))

	for _, res := range report.Results() {
		assert.True(t, res.Status.Terminal(), res.Name)
	}
}

func TestValidate_CategoryMissingFromEnumFails(t *testing.T) {
	t.Parallel()

	prior := analyzeSource(t, demoSource())

	fresh := demoSource().AddCategory("bomb_planted",
		source.Column{Name: "site", DeclaredType: "int64", Values: []any{int64(1)}},
	)

	report, err := NewValidator(DefaultConfig()).Validate(context.Background(), fresh, prior, nil)
	require.NoError(t, err)

	assert.False(t, report.Passed())

	res, ok := report.Result(CheckCategories)
	require.True(t, ok)
	assert.Equal(t, StatusFailed, res.Status)
	require.NotEmpty(t, res.Issues)
	assert.Contains(t, res.Issues[0], `"bomb_planted" missing from enum`)

	assert.Equal(t, StatusWarning, status(t, report, CheckConsistency))
	assert.Equal(t, StatusWarning, status(t, report, SchemaCheckPrefix+"bomb_planted"), "no schema for a new category")
	assert.Equal(t, StatusNotAvailable, status(t, report, CheckRecords))
}

func TestValidate_UnprofilableColumnMatchesItsOwnArtifacts(t *testing.T) {
	t.Parallel()

	src := demoSource().AddCategory("round_freeze_end",
		source.Column{Name: "tick", DeclaredType: "int64", Values: []any{int64(1), "n/a", int64(3)}},
	)
	prior := analyzeSource(t, src)

	c, ok := prior.Category("round_freeze_end")
	require.True(t, ok)
	require.Len(t, c.Fields, 1)
	assert.Equal(t, snapshot.KindUnknown, c.Fields[0].Kind)
	assert.NotEmpty(t, c.Fields[0].Error)

	report, err := NewValidator(DefaultConfig()).Validate(context.Background(), src, prior, artifactsFor(t, prior))
	require.NoError(t, err)

	assert.Equal(t, StatusPassed, status(t, report, SchemaCheckPrefix+"round_freeze_end"))
	assert.True(t, report.Passed(), spew.Sdump(report.Results()))
}

func TestValidate_EnumOnlyCategoryIsNotFatal(t *testing.T) {
	t.Parallel()

	prior := analyzeSource(t, demoSource().AddCategory("round_end",
		source.Column{Name: "tick", DeclaredType: "int64", Values: []any{int64(9)}},
	))

	report, err := NewValidator(DefaultConfig()).Validate(context.Background(), demoSource(), prior, artifactsFor(t, prior))
	require.NoError(t, err)

	res, _ := report.Result(CheckCategories)
	assert.Equal(t, StatusPassed, res.Status)
	assert.Contains(t, res.Issues[0], "round_end")
	assert.Equal(t, StatusWarning, status(t, report, SchemaCheckPrefix+"round_end"))
	assert.True(t, report.Passed())
}

func TestValidate_Suggestion(t *testing.T) {
	t.Parallel()

	prior := analyzeSource(t, demoSource())
	fresh := demoSource().AddCategory("player_deaths",
		source.Column{Name: "tick", DeclaredType: "int64", Values: []any{int64(1)}},
	)

	report, err := NewValidator(DefaultConfig()).Validate(context.Background(), fresh, prior, nil)
	require.NoError(t, err)

	res, _ := report.Result(CheckCategories)
	require.NotEmpty(t, res.Issues)
	assert.Contains(t, res.Issues[0], `(did you mean "player_death"?)`)
}

func TestValidate_SchemaViolation(t *testing.T) {
	t.Parallel()

	prior := &snapshot.Snapshot{
		Categories: []*snapshot.Category{{
			Name:   "round_start",
			Fields: []snapshot.Field{{Name: "tick", Kind: snapshot.KindInteger}},
		}},
	}

	src := memsource.New("drifted").AddCategory("round_start",
		source.Column{Name: "tick", DeclaredType: "object", Values: []any{"not a number"}},
	)

	report, err := NewValidator(DefaultConfig()).Validate(context.Background(), src, prior, nil)
	require.NoError(t, err)

	res, ok := report.Result(SchemaCheckPrefix + "round_start")
	require.True(t, ok)
	assert.Equal(t, StatusFailed, res.Status)
	assert.NotEmpty(t, res.Issues)
	assert.False(t, report.Passed())
}

func TestValidate_SchemaNoData(t *testing.T) {
	t.Parallel()

	prior := &snapshot.Snapshot{
		Categories: []*snapshot.Category{{
			Name:   "round_start",
			Fields: []snapshot.Field{{Name: "tick", Kind: snapshot.KindInteger}},
		}},
	}

	src := memsource.New("empty").AddCategory("round_start",
		source.Column{Name: "tick", DeclaredType: "int64", Values: []any{}},
	)

	report, err := NewValidator(DefaultConfig()).Validate(context.Background(), src, prior, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusNoData, status(t, report, SchemaCheckPrefix+"round_start"))
}

func TestValidate_NonFiniteValuesAreValidated(t *testing.T) {
	t.Parallel()

	prior := &snapshot.Snapshot{
		Categories: []*snapshot.Category{{
			Name:   "stats",
			Fields: []snapshot.Field{{Name: "ratio", Kind: snapshot.KindFloat, Nullable: true}},
		}},
	}

	src := memsource.New("nan").AddCategory("stats",
		source.Column{Name: "ratio", DeclaredType: "float64", Values: []any{math.NaN(), 1.0}},
	)

	report, err := NewValidator(DefaultConfig()).Validate(context.Background(), src, prior, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusPassed, status(t, report, SchemaCheckPrefix+"stats"))
}

func TestValidate_PanickingCheckIsIsolated(t *testing.T) {
	t.Parallel()

	prior := analyzeSource(t, demoSource())
	src := demoSource().Panic("exploding", "kaboom")

	report, err := NewValidator(DefaultConfig()).Validate(context.Background(), src, prior, artifactsFor(t, prior))
	require.NoError(t, err)

	res, ok := report.Result(SchemaCheckPrefix + "exploding")
	require.True(t, ok)
	assert.Equal(t, StatusWarning, res.Status, "no schema exists for the new category")

	prior.Categories = append(prior.Categories, &snapshot.Category{
		Name:   "exploding",
		Fields: []snapshot.Field{{Name: "tick", Kind: snapshot.KindInteger}},
	})

	report, err = NewValidator(DefaultConfig()).Validate(context.Background(), src, prior, nil)
	require.NoError(t, err)

	res, ok = report.Result(SchemaCheckPrefix + "exploding")
	require.True(t, ok)
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, []string{"kaboom"}, res.Issues)

	assert.Equal(t, StatusPassed, status(t, report, SchemaCheckPrefix+"round_start"), "other checks still run")
	assert.False(t, report.Passed())
}

func TestValidate_FieldCoverage(t *testing.T) {
	t.Parallel()

	prior := analyzeSource(t, demoSource())
	prior.FieldCatalog = []string{"m_iHealth"}

	report, err := NewValidator(DefaultConfig()).Validate(context.Background(), demoSource(), prior, nil)
	require.NoError(t, err)

	res, _ := report.Result(CheckFields)
	assert.Equal(t, StatusWarning, res.Status)
	assert.Contains(t, res.Issues[0], "50.0%")

	cfg := DefaultConfig()
	cfg.CoverageThreshold = 50

	report, err = NewValidator(cfg).Validate(context.Background(), demoSource(), prior, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusPassed, status(t, report, CheckFields))
	assert.True(t, report.Passed(), "coverage never blocks a pass")
}

func TestValidate_HeaderDrift(t *testing.T) {
	t.Parallel()

	prior := analyzeSource(t, demoSource())
	set := artifactsFor(t, prior)

	src := demoSource().SetHeader([]string{"map_name", "server_name"}, map[string]any{"map_name": "x", "server_name": "y"})

	report, err := NewValidator(DefaultConfig()).Validate(context.Background(), src, prior, set)
	require.NoError(t, err)

	res, _ := report.Result(CheckHeader)
	assert.Equal(t, StatusFailed, res.Status)
	require.Len(t, res.Issues, 2)
	assert.Contains(t, res.Issues[0], "server_name")
	assert.Contains(t, res.Issues[1], "addons")
}

func TestValidate_NothingToCompare(t *testing.T) {
	t.Parallel()

	report, err := NewValidator(DefaultConfig()).Validate(context.Background(), demoSource().Plain(), nil, nil)
	require.NoError(t, err)

	for _, name := range []string{CheckHeader, CheckCategories, CheckFields, CheckRecords, SchemaCheckPrefix + "*", CheckConsistency, CheckBlobs, CheckTicks} {
		assert.Equal(t, StatusNotAvailable, status(t, report, name), name)
	}

	assert.True(t, report.Passed())
}

func TestValidate_Blobs(t *testing.T) {
	t.Parallel()

	prior := analyzeSource(t, demoSource())
	src := demoSource().AddBlobCollection("string_tables", map[string][]byte{"a": []byte("xy")})

	report, err := NewValidator(DefaultConfig()).Validate(context.Background(), src, prior, nil)
	require.NoError(t, err)

	res, _ := report.Result(CheckBlobs)
	assert.Equal(t, StatusWarning, res.Status)
	assert.Contains(t, res.Issues, "blob collection added since snapshot: string_tables")
}

func TestValidate_Unopenable(t *testing.T) {
	t.Parallel()

	src := demoSource().FailListing(errors.New("corrupt"))

	_, err := NewValidator(DefaultConfig()).Validate(context.Background(), src, nil, nil)
	require.ErrorIs(t, err, source.ErrSourceUnopenable)
}

func TestCoverage(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 100.0, Coverage(nil, nil), 1e-9)
	assert.InDelta(t, 50.0, Coverage([]string{"a", "b", "b"}, []string{"a"}), 1e-9)

	fresh := []string{"a", "b", "c", "d"}
	var known []string

	prev := Coverage(fresh, known)
	for _, name := range []string{"x", "a", "c", "a", "d", "b"} {
		known = append(known, name)
		cur := Coverage(fresh, known)
		assert.GreaterOrEqual(t, cur, prev, "adding %q lowered coverage", name)
		prev = cur
	}

	assert.InDelta(t, 100.0, prev, 1e-9)

	fresh = []string{"a", "b"}
	known = []string{"a", "b", "c"}

	prev = Coverage(fresh, known)
	for _, name := range []string{"x", "y", "b", "x", "z"} {
		fresh = append(fresh, name)
		cur := Coverage(fresh, known)
		assert.LessOrEqual(t, cur, prev, "adding %q to the sample raised coverage", name)
		prev = cur
	}

	assert.InDelta(t, 40.0, prev, 1e-9)
}

func TestValidate_CountsChecks(t *testing.T) {
	t.Parallel()

	m := observability.NewMetrics()
	v := NewValidator(DefaultConfig(), WithMetrics(m))

	_, err := v.Validate(context.Background(), demoSource().Plain(), nil, nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `schemadrift_checks_total{status="not_available"} 8`)
}
