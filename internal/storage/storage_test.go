package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_WriteRead(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	loc := filepath.Join(dir, "nested", "out", "snapshot.yaml")

	s := New()
	require.NoError(t, s.Write(ctx, loc, []byte("hello")))

	ok, err := s.Exists(ctx, loc)
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := s.Read(ctx, loc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, s.Write(ctx, loc, []byte("again")))
	data, err = s.Read(ctx, loc)
	require.NoError(t, err)
	assert.Equal(t, "again", string(data))
}

func TestStore_ReadMissing(t *testing.T) {
	t.Parallel()

	_, err := New().Read(context.Background(), filepath.Join(t.TempDir(), "absent.go"))
	require.Error(t, err)

	require.Error(t, New().Write(context.Background(), "", nil))
}

func TestJoin(t *testing.T) {
	t.Parallel()

	assert.Equal(t, filepath.Join("out", "a.go"), Join("out", "a.go"))
	assert.Equal(t, "mem://bucket/out/a.go", Join("mem://bucket/out/", "a.go"))
	assert.Equal(t, "mem://bucket/out", parent("mem://bucket/out/a.go"))
	assert.Empty(t, parent("mem://bucket"))
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	a, err := Fingerprint([]byte("snapshot"))
	require.NoError(t, err)
	b, err := Fingerprint([]byte("snapshot"))
	require.NoError(t, err)
	c, err := Fingerprint([]byte("snapshot2"))
	require.NoError(t, err)

	assert.Len(t, a, 16)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
