package shardfuse

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTiny(t *testing.T, path string) {
	t.Helper()
	sink, err := NewSink[uint8](path, WithShardBits(1))
	require.NoError(t, err)
	require.NoError(t, sink.Add(tinyFilter(t, tinyLow), 0))
	require.NoError(t, sink.Add(tinyFilter(t, tinyHigh), 1))
	require.NoError(t, sink.Close())
}

func TestSource_ZeroValue(t *testing.T) {
	// A default-constructed source holds no shards and answers false
	// everywhere. It must not touch uninitialized state.
	var src Source[uint8]
	assert.Equal(t, uint32(0), src.Shards())
	assert.False(t, src.Contains(0))
	assert.False(t, src.Contains(0xFFFFFFFFFFFFFFFF))
	assert.NoError(t, src.Close())
}

func TestSource_CapacityMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sharded8.bin")
	buildTiny(t, path) // capacity 0002

	// Default shard bits expect capacity 0256.
	_, err := OpenSource[uint8](path)
	var mismatch *ErrCapacityMismatch
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, uint32(256), mismatch.Expected)
	assert.Equal(t, uint32(2), mismatch.Actual)
}

func TestSource_WidthMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sharded8.bin")
	buildTiny(t, path)

	_, err := OpenSource[uint16](path, WithShardBits(1))
	assert.ErrorIs(t, err, ErrFormat)
}

func TestSource_GarbageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.bin")
	require.NoError(t, os.WriteFile(path, []byte("this is not a filter file at all"), 0o644))

	_, err := OpenSource[uint8](path, WithShardBits(1))
	assert.ErrorIs(t, err, ErrFormat)
}

func TestSource_MissingFile(t *testing.T) {
	_, err := OpenSource[uint8](filepath.Join(t.TempDir(), "nope.bin"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSource_MalformedCapacityField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sharded8.bin")
	raw := make([]byte, 64)
	copy(raw, "sbinfuse08-00x2\x00")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, err := OpenSource[uint8](path, WithShardBits(1))
	assert.ErrorIs(t, err, ErrFormat)
}

func TestSource_IdempotentOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sharded8.bin")
	buildTiny(t, path)

	a, err := OpenSource[uint8](path, WithShardBits(1))
	require.NoError(t, err)
	defer a.Close()
	b, err := OpenSource[uint8](path, WithShardBits(1))
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, a.Shards(), b.Shards())
	for _, k := range randomKeys(t, 10_000, 11) {
		assert.Equal(t, a.Contains(k), b.Contains(k))
	}
}

func TestSource_ContainsAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sharded8.bin")
	buildTiny(t, path)

	src, err := OpenSource[uint8](path, WithShardBits(1))
	require.NoError(t, err)
	require.True(t, src.Contains(tinyLow[0]))
	require.NoError(t, src.Close())

	// Filters are severed from the unmapped file; no dangling reads.
	assert.False(t, src.Contains(tinyLow[0]))
	assert.Equal(t, uint32(0), src.Shards())
}

func TestSource_HeaderOnlyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sharded8.bin")

	// A header whose whole index is sentinels is valid: no shards.
	raw := make([]byte, bodyStart(2))
	copy(raw, "sbinfuse08-0002\x00")
	for i := indexStart; i < len(raw); i++ {
		raw[i] = 0xFF
	}
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	src, err := OpenSource[uint8](path, WithShardBits(1))
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, uint32(0), src.Shards())
	assert.False(t, src.Contains(0x8000000000000000))
}

func TestSource_BogusOffsetRefused(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sharded8.bin")

	raw := make([]byte, bodyStart(2))
	copy(raw, "sbinfuse08-0002\x00")
	for i := indexStart; i < len(raw); i++ {
		raw[i] = 0xFF
	}
	raw[indexStart] = 0x08 // slot 0 points into the header
	for i := indexStart + 1; i < indexStart+slotBytes; i++ {
		raw[i] = 0
	}
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, err := OpenSource[uint8](path, WithShardBits(1))
	assert.ErrorIs(t, err, ErrFormat)
}
