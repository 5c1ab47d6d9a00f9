package sqlitesource

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemadrift/internal/analyze"
	"schemadrift/internal/snapshot"
	"schemadrift/internal/source"
)

var fixtureSQL = []string{
	`CREATE TABLE round_start (tick INTEGER, timelimit REAL)`,
	`INSERT INTO round_start VALUES (1, 1.5), (2, NULL)`,
	`CREATE TABLE player_death (tick INTEGER, weapon TEXT, headshot BOOLEAN, payload BLOB)`,
	`INSERT INTO player_death VALUES (5, 'ak47', 1, x'6869')`,
	`CREATE TABLE "weird ""name""" (v TEXT)`,
	`CREATE TABLE _header (key TEXT, value)`,
	`INSERT INTO _header VALUES ('server_name', 'Valve'), ('map_name', 'de_dust2'), ('network_protocol', 13987)`,
	`CREATE TABLE _fields (name TEXT)`,
	`INSERT INTO _fields VALUES ('m_iHealth'), ('CCSPlayerPawn.m_vec')`,
	`CREATE TABLE _blob_string_tables (key TEXT, data BLOB)`,
	`INSERT INTO _blob_string_tables VALUES ('userinfo', x'68656c6c6f')`,
	`CREATE TABLE ticks (m_iHealth INTEGER, other INTEGER)`,
	`INSERT INTO ticks VALUES (100, 1), (99, 2)`,
}

func newDatabase(t *testing.T, statements []string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "demo.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)

	for _, stmt := range statements {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}

	require.NoError(t, db.Close())

	return path
}

func TestSource_Adapter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := newDatabase(t, fixtureSQL)

	h, err := source.Open(ctx, path)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, h.Close()) })

	names, err := h.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"round_start", "player_death", `weird "name"`}, names)

	b, err := h.FetchBatch(ctx, "round_start")
	require.NoError(t, err)
	assert.Equal(t, []string{"tick", "timelimit"}, b.ColumnNames())
	assert.Equal(t, "INTEGER", b.Columns[0].DeclaredType)
	assert.Equal(t, []any{int64(1), int64(2)}, b.Columns[0].Values)
	assert.Equal(t, []any{1.5, nil}, b.Columns[1].Values)

	b, err = h.FetchBatch(ctx, `weird "name"`)
	require.NoError(t, err)
	assert.Equal(t, 0, b.Rows())

	for _, name := range []string{"missing", "_header", "ticks"} {
		_, err = h.FetchBatch(ctx, name)
		require.ErrorIs(t, err, source.ErrCategoryUnavailable, name)
	}

	header, err := h.FetchHeader(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"server_name", "map_name", "network_protocol"}, header.Keys)
	assert.Equal(t, int64(13987), header.Values["network_protocol"])

	fields, err := h.ListPrimitiveFields(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"m_iHealth", "CCSPlayerPawn.m_vec"}, fields)

	blobs := h.(source.BlobSource)

	collections, err := blobs.BlobCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"string_tables"}, collections)

	entries, err := blobs.FetchBlobCollection(ctx, "string_tables")
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"userinfo": []byte("hello")}, entries)

	ticks, err := h.(source.TickSource).FetchTicks(ctx, []string{"m_iHealth", "absent"})
	require.NoError(t, err)
	assert.Equal(t, []string{"m_iHealth"}, ticks.ColumnNames())
	assert.Equal(t, 2, ticks.Rows())

	desc := h.(source.Describer).Describe()
	assert.Equal(t, path, desc.ID)
	assert.Positive(t, desc.SizeBytes)
}

func TestSource_Analyze(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	h, err := source.Open(ctx, Scheme+newDatabase(t, fixtureSQL))
	require.NoError(t, err)

	defer h.Close()

	snap, err := analyze.NewAnalyzer(analyze.DefaultConfig()).Analyze(ctx, h)
	require.NoError(t, err)

	death, ok := snap.Category("player_death")
	require.True(t, ok)

	want := map[string]snapshot.Kind{
		"tick":     snapshot.KindInteger,
		"weapon":   snapshot.KindText,
		"headshot": snapshot.KindBoolean,
		"payload":  snapshot.KindBinary,
	}

	for name, kind := range want {
		f, ok := death.Field(name)
		require.True(t, ok, name)
		assert.Equal(t, kind, f.Kind, name)
	}

	assert.Equal(t, []string{"string_tables"}, snap.BlobNames())
	assert.Positive(t, snap.Metadata.SizeBytes)
}

func TestSource_MinimalDatabase(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	s, err := Open(ctx, newDatabase(t, []string{`CREATE TABLE only (x INTEGER)`}))
	require.NoError(t, err)

	defer s.Close()

	header, err := s.FetchHeader(ctx)
	require.NoError(t, err)
	assert.Zero(t, header.Len())

	fields, err := s.ListPrimitiveFields(ctx)
	require.NoError(t, err)
	assert.Empty(t, fields)

	_, err = s.FetchTicks(ctx, []string{"x"})
	require.ErrorIs(t, err, ErrNoTicks)
}

func TestOpen_Unopenable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := source.Open(context.Background(), filepath.Join(dir, "absent.db"))
	require.ErrorIs(t, err, source.ErrSourceUnopenable)

	_, statErr := os.Stat(filepath.Join(dir, "absent.db"))
	assert.True(t, os.IsNotExist(statErr), "opening must not create the database")

	garbage := filepath.Join(dir, "garbage.sqlite")
	require.NoError(t, os.WriteFile(garbage, []byte("this is not a database file at all, not even close"), 0o600))

	_, err = source.Open(context.Background(), garbage)
	require.ErrorIs(t, err, source.ErrSourceUnopenable)
}

func TestOpener_Accepts(t *testing.T) {
	t.Parallel()

	o := Opener{}
	assert.True(t, o.Accepts("demo.db"))
	assert.True(t, o.Accepts("x.SQLite"))
	assert.True(t, o.Accepts("sqlite:/tmp/anything"))
	assert.False(t, o.Accepts("demo.yaml"))
}
