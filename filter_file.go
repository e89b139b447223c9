package shardfuse

import (
	"fmt"

	"github.com/hupe1980/shardfuse/internal/mmap"
)

// Single-filter persistence: one built filter in one file, without the
// shard index. The layout is a 16-byte tag region holding "binfuseWW"
// (zero padded) followed by the filter's serialized form.

// SaveFilter writes a populated filter to path, replacing any existing
// content.
func SaveFilter[T Fingerprint](f *Filter[T], path string) error {
	if f == nil || !f.Populated() {
		return ErrNotPopulated
	}

	mm, err := mmap.OpenWritable(path)
	if err != nil {
		return fmt.Errorf("shardfuse: save filter %s: %w", path, err)
	}
	defer mm.Close()

	size := headerBytes + f.SerializationBytes()
	// Shrink-then-grow so stale bytes from a previous file never survive.
	if err := mm.Resize(0); err != nil {
		return fmt.Errorf("shardfuse: truncate %s: %w", path, err)
	}
	if err := mm.Resize(int64(size)); err != nil {
		return fmt.Errorf("shardfuse: grow %s to %d bytes: %w", path, size, err)
	}

	data := mm.Bytes()
	copy(data, plainTag[T]())
	if err := f.Serialize(data[headerBytes:]); err != nil {
		return err
	}
	if err := mm.Sync(); err != nil {
		return fmt.Errorf("shardfuse: sync %s: %w", path, err)
	}
	return mm.Close()
}

// FilterSource is a single filter loaded from a file. The embedded Filter
// borrows its fingerprint array from the file's read-only mapping; Close
// severs the filter and releases the mapping.
type FilterSource[T Fingerprint] struct {
	Filter[T]
	mm *mmap.Mapping
}

// OpenFilter memory-maps a single-filter file written by SaveFilter and
// deserializes it in place.
func OpenFilter[T Fingerprint](path string) (*FilterSource[T], error) {
	mm, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("shardfuse: open filter %s: %w", path, err)
	}

	src := &FilterSource[T]{mm: mm}
	if err := src.load(); err != nil {
		mm.Close()
		return nil, err
	}
	return src, nil
}

func (s *FilterSource[T]) load() error {
	data := s.mm.Bytes()
	if len(data) < headerBytes {
		return fmt.Errorf("%w: file too small for header", ErrFormat)
	}
	want := plainTag[T]()
	if string(data[:len(want)]) != want {
		return fmt.Errorf("%w: incorrect type id: expected %q, found %q",
			ErrFormat, want, data[:len(want)])
	}
	return s.Deserialize(data[headerBytes:])
}

// Close severs the filter from the mapping and releases it.
func (s *FilterSource[T]) Close() error {
	s.release()
	if s.mm == nil {
		return nil
	}
	return s.mm.Close()
}
