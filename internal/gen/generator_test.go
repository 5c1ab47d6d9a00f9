package gen

import (
	"context"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemadrift/internal/diagnostic"
	"schemadrift/internal/ident"
	"schemadrift/internal/snapshot"
	"schemadrift/internal/storage"
)

func generate(t *testing.T, snap *snapshot.Snapshot, config GeneratorConfig) *Result {
	t.Helper()

	res, err := NewGenerator(config).Generate(context.Background(), snap)
	require.NoError(t, err)
	require.Len(t, res.Files, 3)

	return res
}

func fileContent(t *testing.T, res *Result, name string) string {
	t.Helper()

	for _, f := range res.Files {
		if f.Filename == name {
			return string(f.Content)
		}
	}

	t.Fatalf("file %s not generated", name)

	return ""
}

func TestGenerator_Generate_ProducesParseableFiles(t *testing.T) {
	t.Parallel()

	res := generate(t, testSnapshot(), DefaultGeneratorConfig())

	names := make([]string, 0, len(res.Files))
	for _, f := range res.Files {
		names = append(names, f.Filename)

		_, err := parser.ParseFile(token.NewFileSet(), f.Filename, f.Content, parser.ParseComments)
		require.NoError(t, err, "%s:\n%s", f.Filename, f.Content)
		assert.Contains(t, string(f.Content), "// Code generated by schemadrift. DO NOT EDIT.")
		assert.Contains(t, string(f.Content), "package generated")
		assert.Contains(t, string(f.Content), "// Snapshot: "+res.Plan.Fingerprint())
	}

	assert.Equal(t, []string{EnumsFile, RecordsFile, SchemasFile}, names)
}

func TestGenerator_Generate_Deterministic(t *testing.T) {
	t.Parallel()

	first := generate(t, testSnapshot(), DefaultGeneratorConfig())
	second := generate(t, testSnapshot(), DefaultGeneratorConfig())

	for i := range first.Files {
		assert.Equal(t, string(first.Files[i].Content), string(second.Files[i].Content), first.Files[i].Filename)
	}
}

func TestGenerator_Enums(t *testing.T) {
	t.Parallel()

	content := fileContent(t, generate(t, testSnapshot(), DefaultGeneratorConfig()), EnumsFile)

	assert.Regexp(t, `Category_player_death\s+Category = "player_death"`, content)
	assert.Regexp(t, `Category_round_end\s+Category = "round_end"`, content)
	assert.NotContains(t, content, `"server_info"`, "well-known categories are not part of the enumeration")
	assert.Contains(t, content, "func CategoryValues() []Category {")
	assert.Contains(t, content, "func FieldValues() []Field {")
	assert.Regexp(t, `Field_CCSPlayerPawn_m_vec\s+Field = "CCSPlayerPawn.m_vec"`, content)

	basic := regexp.MustCompile(`// basic fields\.`).FindStringIndex(content)
	prefixed := regexp.MustCompile(`// CCSPlayerPawn fields\.`).FindStringIndex(content)
	team := regexp.MustCompile(`// team fields\.`).FindStringIndex(content)

	require.NotNil(t, basic)
	require.NotNil(t, prefixed)
	require.NotNil(t, team)
	assert.Less(t, basic[0], prefixed[0])
	assert.Less(t, prefixed[0], team[0])
}

func TestGenerator_Enums_ValueIsRawName(t *testing.T) {
	t.Parallel()

	snap := &snapshot.Snapshot{
		Categories: []*snapshot.Category{{
			Name:   "round_start",
			Fields: []snapshot.Field{{Name: "tick", Kind: snapshot.KindInteger}},
		}},
	}

	out, err := EmitEnums(snap, DefaultGeneratorConfig())
	require.NoError(t, err)
	assert.Contains(t, string(out), `= "round_start"`)
}

func TestGenerator_Records(t *testing.T) {
	t.Parallel()

	content := fileContent(t, generate(t, testSnapshot(), DefaultGeneratorConfig()), RecordsFile)

	for _, want := range []string{
		"type Table map[string][]any",
		"type PlayerDeath struct {",
		"func NewPlayerDeathTable() *PlayerDeathTable {",
		"func (t *PlayerDeathTable) Len() int {",
		"func (t *PlayerDeathTable) Tick() []int64 {",
		"func (t *PlayerDeathTable) UserName() []string {",
		"func (t *PlayerDeathTable) Headshot() []*bool {",
		"func (t *PlayerDeathTable) Distance() []float64 {",
		"func (t *PlayerDeathTable) Payload() [][]byte {",
		"func (t *PlayerDeathTable) Mystery() []any {",
		"func NewServerInfoTable() *ServerInfoTable {",
		"type StringTablesCollection struct {",
		"func NewStringTablesCollection() *StringTablesCollection {",
		"func (c *StringTablesCollection) Keys() []string {",
		"func (h Header) AddonsList() []string {",
	} {
		assert.Contains(t, content, want)
	}

	assert.Regexp(t, "UserName\\s+string\\s+`json:\"user_name\"`\\s+// Player name", content)
	assert.Regexp(t, "Headshot\\s+\\*bool\\s+`json:\"headshot\"`", content)

	assert.NotContains(t, content, "RoundEnd", "failed categories get no record type")
	assert.NotContains(t, content, "Quiet", "empty categories get no record type")

	order := regexp.MustCompile(`(?m)^\t(ServerName|MapName|Addons|ZzCustom)\s`).FindAllStringSubmatch(content, -1)
	require.Len(t, order, 4)
	assert.Equal(t, "ServerName", order[0][1])
	assert.Equal(t, "MapName", order[1][1])
	assert.Equal(t, "Addons", order[2][1])
	assert.Equal(t, "ZzCustom", order[3][1])
	assert.Regexp(t, "ZzCustom\\s+int64\\s+`json:\"zz_custom\"`", content)
}

func TestGenerator_Records_DropsUnusedImports(t *testing.T) {
	t.Parallel()

	snap := &snapshot.Snapshot{
		Categories: []*snapshot.Category{{
			Name:   "round_start",
			Fields: []snapshot.Field{{Name: "tick", Kind: snapshot.KindInteger}},
		}},
	}

	out, err := EmitRecords(snap, DefaultGeneratorConfig())
	require.NoError(t, err)
	assert.NotContains(t, string(out), `"sort"`)
	assert.NotContains(t, string(out), `"strings"`)
}

func TestGenerator_Schemas(t *testing.T) {
	t.Parallel()

	content := fileContent(t, generate(t, testSnapshot(), DefaultGeneratorConfig()), SchemasFile)

	assert.Contains(t, content, "const PlayerDeathSchema = `{")
	assert.Contains(t, content, "const ServerInfoSchema = `{")
	assert.Regexp(t, `"player_death":\s+PlayerDeathSchema,`, content)
	assert.Contains(t, content, `"additionalProperties": false`)
	assert.NotContains(t, content, "RoundEndSchema")
}

func TestGenerator_Collisions(t *testing.T) {
	t.Parallel()

	snap := &snapshot.Snapshot{
		Categories: []*snapshot.Category{
			{Name: "a.b", Fields: []snapshot.Field{{Name: "x", Kind: snapshot.KindText}}},
			{Name: "a-b", Fields: []snapshot.Field{
				{Name: "len", Kind: snapshot.KindInteger},
				{Name: "m_vec + m_cell", Kind: snapshot.KindFloat},
				{Name: "123abc", Kind: snapshot.KindText},
			}},
		},
	}

	res := generate(t, snap, DefaultGeneratorConfig())

	enums := fileContent(t, res, EnumsFile)
	assert.Regexp(t, `Category_a_b\s+Category = "a-b"`, enums)
	assert.Regexp(t, `Category_a_b_2\s+Category = "a.b"`, enums)

	records := fileContent(t, res, RecordsFile)
	assert.Contains(t, records, "type AB struct {")
	assert.Contains(t, records, "type AB_2 struct {")
	assert.Contains(t, records, "func (t *ABTable) Len_2() []int64 {")
	assert.Contains(t, records, "func (t *ABTable) MVecMCell() []float64 {")
	assert.Contains(t, records, "func (t *ABTable) Prop123abc() []string {")

	collisions := res.Diagnostics.ByCode(diagnostic.CodeIdentifierCollision)
	assert.NotEmpty(t, collisions)

	for _, d := range collisions {
		assert.Equal(t, diagnostic.SeverityWarning, d.Severity)
	}
}

func TestGenerator_StrictIdentifiers(t *testing.T) {
	t.Parallel()

	snap := &snapshot.Snapshot{
		Categories: []*snapshot.Category{
			{Name: "a.b", Fields: []snapshot.Field{{Name: "x", Kind: snapshot.KindText}}},
			{Name: "a-b", Fields: []snapshot.Field{{Name: "x", Kind: snapshot.KindText}}},
		},
	}

	config := DefaultGeneratorConfig()
	config.StrictIdentifiers = true

	_, err := NewGenerator(config).Generate(context.Background(), snap)
	require.ErrorIs(t, err, ident.ErrIdentifierCollision)
}

func TestGenerator_FailedCategoryStillEmits(t *testing.T) {
	t.Parallel()

	snap := &snapshot.Snapshot{
		Categories: []*snapshot.Category{{Name: "broken", Error: "fetch failed"}},
	}

	res := generate(t, snap, DefaultGeneratorConfig())

	assert.Regexp(t, `Category_broken\s+Category = "broken"`, fileContent(t, res, EnumsFile))
	assert.NotContains(t, fileContent(t, res, RecordsFile), "Broken")
	assert.Len(t, res.Diagnostics.ByCode(diagnostic.CodeFailedCategory), 1)
	assert.True(t, res.Diagnostics.IsValid())
}

func TestGenerator_MergesAnalysisNotes(t *testing.T) {
	t.Parallel()

	snap := &snapshot.Snapshot{
		Categories: []*snapshot.Category{{
			Name:     "round_start",
			RowCount: 2,
			Fields: []snapshot.Field{
				{Name: "tick", DeclaredType: "int64", Kind: snapshot.KindUnknown, Error: `value "n/a" is not numeric`},
			},
		}},
		Notes: []string{"category \"round_start\" listed more than once"},
	}

	res := generate(t, snap, DefaultGeneratorConfig())

	notes := res.Diagnostics.ByCode(diagnostic.CodeAnalysisNote)
	require.Len(t, notes, 1)
	assert.Equal(t, snap.Notes[0], notes[0].Message)
	assert.Len(t, res.Diagnostics.ByCode(diagnostic.CodeFieldError), 1)
	assert.Regexp(t, `Tick\s+any`, fileContent(t, res, RecordsFile))
}

func TestValidateSnapshot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		snap *snapshot.Snapshot
		ok   bool
	}{
		{name: "nil", snap: nil},
		{name: "empty", snap: &snapshot.Snapshot{}, ok: true},
		{name: "unnamed category", snap: &snapshot.Snapshot{Categories: []*snapshot.Category{{}}}},
		{
			name: "duplicate category",
			snap: &snapshot.Snapshot{Categories: []*snapshot.Category{{Name: "a"}, {Name: "a"}}},
		},
		{
			name: "duplicate field",
			snap: &snapshot.Snapshot{Categories: []*snapshot.Category{{
				Name:   "a",
				Fields: []snapshot.Field{{Name: "x"}, {Name: "x"}},
			}}},
		},
		{name: "fixture", snap: testSnapshot(), ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateSnapshot(tt.snap)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidSnapshot)
			}
		})
	}
}

func TestGenerator_Write(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	config := DefaultGeneratorConfig()
	config.OutputDir = dir

	g := NewGenerator(config, WithStore(storage.New()))

	res, err := g.Generate(context.Background(), testSnapshot())
	require.NoError(t, err)
	require.NoError(t, g.Write(context.Background(), res.Files))

	for _, f := range res.Files {
		data, err := os.ReadFile(filepath.Join(dir, f.Filename))
		require.NoError(t, err)
		assert.Equal(t, f.Content, data)
		assert.Contains(t, string(data), "package out")
	}
}

func TestWriteDebugUnformatted(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, writeDebugUnformatted(context.Background(), storage.New(), dir, "records_gen.go", []byte("package x {")))

	data, err := os.ReadFile(filepath.Join(dir, "records_gen.unformatted.go"))
	require.NoError(t, err)
	assert.Equal(t, "package x {", string(data))

	require.NoError(t, writeDebugUnformatted(context.Background(), storage.New(), "", "x.go", nil))
}
