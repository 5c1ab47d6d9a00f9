package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemadrift/internal/gen"
	"schemadrift/internal/snapshot"
	"schemadrift/internal/storage"
)

func fixture() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Metadata: snapshot.Metadata{Source: "fixture"},
		Categories: []*snapshot.Category{
			{
				Name: "player_death",
				Fields: []snapshot.Field{
					{Name: "tick", Kind: snapshot.KindInteger},
					{Name: "user_name", Kind: snapshot.KindText, Nullable: true},
				},
			},
			{Name: "round_start", Fields: []snapshot.Field{{Name: "tick", Kind: snapshot.KindInteger}}},
			{Name: "bomb`planted", Fields: []snapshot.Field{{Name: "site\"x", Kind: snapshot.KindText}}},
			{Name: "round_end", Error: "boom"},
		},
		FieldCatalog: []string{"m_iHealth", "CCSPlayerPawn.m_vec", "a b"},
		Header: []snapshot.HeaderEntry{
			{Key: "map_name", Kind: snapshot.KindText},
			{Key: "addons", Kind: snapshot.KindText},
		},
		Blobs: []snapshot.BlobCollection{{Name: "instancebaseline"}},
	}
}

func generated(t *testing.T, snap *snapshot.Snapshot) map[string][]byte {
	t.Helper()

	res, err := gen.NewGenerator(gen.DefaultGeneratorConfig()).Generate(context.Background(), snap)
	require.NoError(t, err)

	files := make(map[string][]byte, len(res.Files))
	for _, f := range res.Files {
		files[f.Filename] = f.Content
	}

	return files
}

func TestParse_EnumRoundTrip(t *testing.T) {
	t.Parallel()

	snap := fixture()
	set, err := Parse(generated(t, snap))
	require.NoError(t, err)

	categories, ok := set.EnumValues("Category")
	require.True(t, ok)
	assert.ElementsMatch(t, snap.ListedCategoryNames(), categories)

	fields, ok := set.EnumValues("Field")
	require.True(t, ok)
	assert.ElementsMatch(t, snap.FieldCatalog, fields)

	_, ok = set.EnumValues("Missing")
	assert.False(t, ok)
}

func TestParse_Records(t *testing.T) {
	t.Parallel()

	set, err := Parse(generated(t, fixture()))
	require.NoError(t, err)

	assert.Equal(t, "generated", set.Package)
	assert.True(t, set.Has(gen.RecordsFile))

	require.NotNil(t, set.Header)
	assert.Equal(t, []string{"map_name", "addons"}, set.Header.JSONNames)

	byName := make(map[string]Record)
	for _, r := range set.Records {
		byName[r.Name] = r
	}

	require.Contains(t, byName, "PlayerDeath")
	assert.Equal(t, 2, byName["PlayerDeath"].Fields)
	assert.Equal(t, []string{"tick", "user_name"}, byName["PlayerDeath"].JSONNames)
	assert.Equal(t, []string{"site\"x"}, byName["BombPlanted"].JSONNames)
	assert.Equal(t, 1, byName["PlayerDeathTable"].Fields)
	assert.NotContains(t, byName, "RoundEnd")

	assert.Equal(t, []string{
		"NewBombPlantedTable",
		"NewInstancebaselineCollection",
		"NewPlayerDeathTable",
		"NewRoundStartTable",
	}, set.Constructors)
}

func TestParse_Schemas(t *testing.T) {
	t.Parallel()

	snap := fixture()
	set, err := Parse(generated(t, snap))
	require.NoError(t, err)

	want, err := gen.BuildSchemas(snap, true)
	require.NoError(t, err)
	assert.Equal(t, want, set.Schemas)
	assert.Contains(t, set.Schemas, "bomb`planted")
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	_, err := Parse(map[string][]byte{gen.EnumsFile: []byte("package x\nfunc {")})
	require.Error(t, err)
}

func TestLoad_MissingFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := generated(t, fixture())
	require.NoError(t, os.WriteFile(filepath.Join(dir, gen.EnumsFile), files[gen.EnumsFile], 0o644))

	set, err := Load(context.Background(), storage.New(), dir)
	require.NoError(t, err)

	assert.True(t, set.Has(gen.EnumsFile))
	assert.False(t, set.Has(gen.RecordsFile))
	assert.Empty(t, set.Records)
	assert.Nil(t, set.Header)
	assert.Empty(t, set.Schemas)
	require.ErrorIs(t, set.Construct(context.Background(), "NewPlayerDeathTable"), ErrNoRecords)

	empty, err := Load(context.Background(), storage.New(), filepath.Join(dir, "nothing"))
	require.NoError(t, err)
	assert.Empty(t, empty.Present)
}

func TestSet_Construct(t *testing.T) {
	t.Parallel()

	set, err := Parse(generated(t, fixture()))
	require.NoError(t, err)

	require.NoError(t, set.Construct(context.Background(), "NewPlayerDeathTable"))
	require.NoError(t, set.Construct(context.Background(), "NewInstancebaselineCollection"))
	require.Error(t, set.Construct(context.Background(), "NewNothing"))
}

func TestSet_NilSafe(t *testing.T) {
	t.Parallel()

	var set *Set

	assert.False(t, set.Has(gen.EnumsFile))

	_, ok := set.EnumValues("Category")
	assert.False(t, ok)
	assert.ErrorIs(t, set.Construct(context.Background(), "NewX"), ErrNoRecords)
}

func TestParse_ByteOrderMarkInCategory(t *testing.T) {
	t.Parallel()

	snap := &snapshot.Snapshot{
		Categories: []*snapshot.Category{{
			Name:   "\ufeffround_start",
			Fields: []snapshot.Field{{Name: "tick", Kind: snapshot.KindInteger}},
		}},
	}

	set, err := Parse(generated(t, snap))
	require.NoError(t, err)
	assert.Contains(t, set.Schemas, "\ufeffround_start")
}
