//go:build unix

package mmap

import (
	"io"
	"os"
	"sync/atomic"
)

// Mapping represents a memory-mapped file.
// It owns the underlying byte slice and is responsible for unmapping it.
type Mapping struct {
	data     []byte
	size     int
	writable bool
	closed   atomic.Bool
	// f is retained only for writable mappings, where Resize needs the
	// descriptor to truncate and remap.
	f *os.File
}

// Open maps the file at path into memory as read-only.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := fi.Size()
	if size == 0 {
		return &Mapping{data: nil, size: 0}, nil
	}
	if size < 0 {
		return nil, ErrInvalidSize
	}

	data, err := osMap(f, int(size), false)
	if err != nil {
		return nil, err
	}

	return &Mapping{
		data: data,
		size: int(size),
	}, nil
}

// OpenWritable opens or creates the file at path and maps it read-write.
// The file descriptor is kept open so the mapping can later be grown with
// Resize. An empty file yields an empty mapping; call Resize before writing.
func OpenWritable(path string) (*Mapping, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	size := fi.Size()
	if size < 0 {
		f.Close()
		return nil, ErrInvalidSize
	}

	m := &Mapping{
		size:     int(size),
		writable: true,
		f:        f,
	}
	if size > 0 {
		data, err := osMap(f, int(size), true)
		if err != nil {
			f.Close()
			return nil, err
		}
		m.data = data
	}
	return m, nil
}

// Resize grows (or shrinks) a writable mapping to size bytes.
//
// The current mapping is synced and unmapped, the file is truncated, and a
// fresh mapping is established. Every byte slice previously obtained from
// Bytes() is invalid after Resize returns; callers must re-derive all views.
func (m *Mapping) Resize(size int64) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if !m.writable {
		return ErrReadOnly
	}
	if size < 0 {
		return ErrInvalidSize
	}

	if m.data != nil {
		if err := osSync(m.data); err != nil {
			return err
		}
		if err := osUnmap(m.data); err != nil {
			return err
		}
		m.data = nil
	}

	if err := m.f.Truncate(size); err != nil {
		return err
	}
	m.size = int(size)

	if size == 0 {
		return nil
	}
	data, err := osMap(m.f, int(size), true)
	if err != nil {
		return err
	}
	m.data = data
	return nil
}

// Sync flushes the mapping to stable storage. No-op for empty mappings.
func (m *Mapping) Sync() error {
	if m.closed.Load() {
		return ErrClosed
	}
	if !m.writable {
		return ErrReadOnly
	}
	if m.data == nil {
		return nil
	}
	return osSync(m.data)
}

// Close unmaps the memory and closes the file. It is idempotent.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) {
		return nil // already closed
	}
	var err error
	if m.data != nil {
		err = osUnmap(m.data)
		m.data = nil
	}
	if m.f != nil {
		if cerr := m.f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		m.f = nil
	}
	return err
}

// Bytes returns the underlying byte slice.
// Warning: the slice is valid only until the next Resize or Close.
func (m *Mapping) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// Size returns the size of the mapping in bytes.
func (m *Mapping) Size() int {
	return m.size
}

// Advise provides hints to the kernel about how the memory will be accessed.
func (m *Mapping) Advise(pattern AccessPattern) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if m.data == nil {
		return nil
	}
	return osAdvise(m.data, pattern)
}

// ReadAt implements io.ReaderAt.
func (m *Mapping) ReadAt(p []byte, off int64) (n int, err error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, ErrInvalidOffset
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n = copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
