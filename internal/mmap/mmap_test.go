//go:build unix

package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMmap_OpenReadClose(t *testing.T) {
	content := []byte("Hello, Mmap!")
	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	m, err := Open(path)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, len(content), m.Size())
	assert.Equal(t, content, m.Bytes())

	buf := make([]byte, 5)
	n, err := m.ReadAt(buf, 7) // "Mmap!"
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "Mmap!", string(buf))

	n, err = m.ReadAt(make([]byte, 10), 100)
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)

	_, err = m.ReadAt(buf, -1)
	assert.Equal(t, ErrInvalidOffset, err)
}

func TestMmap_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	m, err := Open(path)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, 0, m.Size())
	assert.Nil(t, m.Bytes())
}

func TestMmap_ReadOnlyRejectsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	m, err := Open(path)
	require.NoError(t, err)
	defer m.Close()

	assert.ErrorIs(t, m.Resize(10), ErrReadOnly)
	assert.ErrorIs(t, m.Sync(), ErrReadOnly)
}

func TestMmap_WritableCreateResizeSync(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grow.bin")

	m, err := OpenWritable(path)
	require.NoError(t, err)
	defer m.Close()
	assert.Equal(t, 0, m.Size())

	require.NoError(t, m.Resize(8))
	copy(m.Bytes(), "abcd1234")
	require.NoError(t, m.Sync())

	require.NoError(t, m.Resize(16))
	assert.Equal(t, 16, m.Size())
	// Old content survives the grow, new bytes are zero.
	assert.Equal(t, "abcd1234", string(m.Bytes()[:8]))
	for _, b := range m.Bytes()[8:] {
		assert.Equal(t, byte(0), b)
	}

	copy(m.Bytes()[8:], "efgh5678")
	require.NoError(t, m.Sync())
	require.NoError(t, m.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "abcd1234efgh5678", string(raw))
}

func TestMmap_ResizeShrink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shrink.bin")

	m, err := OpenWritable(path)
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.Resize(16))
	copy(m.Bytes(), "0123456789abcdef")
	require.NoError(t, m.Resize(4))
	assert.Equal(t, "0123", string(m.Bytes()))

	require.NoError(t, m.Resize(0))
	assert.Nil(t, m.Bytes())
}

func TestMmap_ReopenWritable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.bin")

	m, err := OpenWritable(path)
	require.NoError(t, err)
	require.NoError(t, m.Resize(4))
	copy(m.Bytes(), "data")
	require.NoError(t, m.Close())

	m, err = OpenWritable(path)
	require.NoError(t, err)
	defer m.Close()
	assert.Equal(t, 4, m.Size())
	assert.Equal(t, "data", string(m.Bytes()))
}

func TestMmap_CloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "close.bin")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	m, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Nil(t, m.Bytes())

	_, err = m.ReadAt(make([]byte, 1), 0)
	assert.Equal(t, ErrClosed, err)
}

func TestMmap_Advise(t *testing.T) {
	path := filepath.Join(t.TempDir(), "advise.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 8192), 0o644))

	m, err := Open(path)
	require.NoError(t, err)
	defer m.Close()

	assert.NoError(t, m.Advise(AccessRandom))
	assert.NoError(t, m.Advise(AccessSequential))
}
