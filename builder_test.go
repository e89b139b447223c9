package shardfuse

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkAdd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bulk8.bin")

	keys := randomKeys(t, 100_000, 31)
	probe := append([]uint64(nil), keys...)

	sink, err := NewSink[uint8](path, WithShardBits(5))
	require.NoError(t, err)
	require.NoError(t, sink.BulkAdd(context.Background(), keys))
	assert.Equal(t, uint32(32), sink.Shards())
	require.NoError(t, sink.Close())

	src, err := OpenSource[uint8](path, WithShardBits(5))
	require.NoError(t, err)
	defer src.Close()

	assert.True(t, src.Verify(probe))
	assert.Equal(t, uint32(32), src.Shards())
}

func TestBulkAdd_Cancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bulk8.bin")

	sink, err := NewSink[uint8](path, WithShardBits(5))
	require.NoError(t, err)
	defer sink.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = sink.BulkAdd(ctx, randomKeys(t, 100_000, 32))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBulkAdd_OccupiedSlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bulk8.bin")

	sink, err := NewSink[uint8](path, WithShardBits(1))
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.Add(tinyFilter(t, tinyLow), 0))

	err = sink.BulkAdd(context.Background(), []uint64{1, 0x8000000000000000})
	var occupied *ErrSlotOccupied
	assert.ErrorAs(t, err, &occupied)
}
