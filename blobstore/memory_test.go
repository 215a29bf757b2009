package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "a.grib", []byte("hello world")))

	t.Run("NotFound", func(t *testing.T) {
		_, err := store.Open(ctx, "missing.grib")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	blob, err := store.Open(ctx, "a.grib")
	require.NoError(t, err)
	defer blob.Close()

	assert.Equal(t, int64(11), blob.Size())

	t.Run("ReadAt", func(t *testing.T) {
		p := make([]byte, 5)
		n, err := blob.ReadAt(ctx, p, 6)
		require.NoError(t, err)
		assert.Equal(t, 5, n)
		assert.Equal(t, "world", string(p))
	})

	t.Run("ShortReadAtTail", func(t *testing.T) {
		p := make([]byte, 8)
		n, err := blob.ReadAt(ctx, p, 6)
		assert.ErrorIs(t, err, io.EOF)
		assert.Equal(t, 5, n)
		assert.Equal(t, "world", string(p[:n]))
	})

	t.Run("ReadPastEnd", func(t *testing.T) {
		p := make([]byte, 4)
		n, err := blob.ReadAt(ctx, p, 100)
		assert.ErrorIs(t, err, io.EOF)
		assert.Equal(t, 0, n)
	})

	t.Run("Mappable", func(t *testing.T) {
		m, ok := blob.(Mappable)
		require.True(t, ok)
		data, err := m.Bytes()
		require.NoError(t, err)
		assert.Equal(t, "hello world", string(data))
	})
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.grib"), []byte("0123456789"), 0o644))

	store := NewLocalStore(dir)

	_, err := store.Open(ctx, "nope.grib")
	assert.ErrorIs(t, err, ErrNotFound)

	blob, err := store.Open(ctx, "data.grib")
	require.NoError(t, err)
	defer blob.Close()

	assert.Equal(t, int64(10), blob.Size())

	p := make([]byte, 4)
	n, err := blob.ReadAt(ctx, p, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "3456", string(p))

	m, ok := blob.(Mappable)
	require.True(t, ok)
	data, err := m.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(data))
}
