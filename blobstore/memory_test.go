package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Open(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, "a/one", []byte("first")))
	require.NoError(t, store.Put(ctx, "a/two", []byte("second")))
	require.NoError(t, store.Put(ctx, "b/three", []byte("third")))

	blob, err := store.Open(ctx, "a/one")
	require.NoError(t, err)
	defer blob.Close()
	assert.Equal(t, int64(5), blob.Size())

	buf := make([]byte, 5)
	n, err := blob.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "first", string(buf[:n]))

	names, err := store.List(ctx, "a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/one", "a/two"}, names)

	require.NoError(t, store.Delete(ctx, "a/one"))
	require.NoError(t, store.Delete(ctx, "a/one")) // idempotent
	_, err = store.Open(ctx, "a/one")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_PutCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	data := []byte("mutable")
	require.NoError(t, store.Put(ctx, "k", data))
	data[0] = 'X'

	blob, err := store.Open(ctx, "k")
	require.NoError(t, err)
	defer blob.Close()

	buf := make([]byte, 1)
	_, err = blob.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, byte('m'), buf[0])
}
