package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir(), nil)

	_, err := store.Open(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, "filters/v1.bin", []byte("payload")))
	require.NoError(t, store.Put(ctx, "filters/v2.bin", []byte("payload2")))

	blob, err := store.Open(ctx, "filters/v1.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(7), blob.Size())

	// Local blobs are mmap-backed and expose zero-copy bytes.
	m, ok := blob.(Mappable)
	require.True(t, ok)
	data, err := m.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	require.NoError(t, blob.Close())

	names, err := store.List(ctx, "filters/")
	require.NoError(t, err)
	assert.Equal(t, []string{"filters/v1.bin", "filters/v2.bin"}, names)

	require.NoError(t, store.Delete(ctx, "filters/v1.bin"))
	require.NoError(t, store.Delete(ctx, "filters/v1.bin")) // idempotent
}

func TestLocalStore_PutIsAtomic(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := NewLocalStore(root, nil)

	require.NoError(t, store.Put(ctx, "f.bin", []byte("data")))

	// No temp files left behind.
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "f.bin", entries[0].Name())
	assert.NotEqual(t, ".tmp", filepath.Ext(entries[0].Name()))
}
