package shardfuse

import (
	"fmt"
	"time"

	"github.com/hupe1980/shardfuse/internal/mmap"
)

// Source is the read-mode engine over a sharded filter file.
//
// The file is mapped read-only on open and every populated shard filter
// borrows its fingerprint array straight from the mapping, so queries copy
// nothing and perform no I/O beyond page faults.
//
// A loaded source is immutable: concurrent Contains calls are safe, as are
// multiple sources over the same file. The zero value is a valid empty
// source with no shards.
type Source[T Fingerprint] struct {
	path      string
	shardBits uint8
	mm        *mmap.Mapping
	filters   []*Filter[T]
	built     uint32
}

// OpenSource memory-maps the sharded filter file at path and materializes
// its shard filters.
//
// The tag is validated against the fingerprint width and the configured
// shard bits; a width mismatch is ErrFormat, a capacity mismatch is
// ErrCapacityMismatch. Both are fatal.
func OpenSource[T Fingerprint](path string, opts ...Option) (*Source[T], error) {
	o := applyOptions(opts)
	if o.shardBits > MaxShardBits {
		return nil, fmt.Errorf("%w: %d > %d", ErrInvalidShardBits, o.shardBits, MaxShardBits)
	}

	start := time.Now()
	src, err := openSource[T](path, o.shardBits)
	if err == nil {
		o.metrics.RecordLoad(src.built, time.Since(start), nil)
		o.logger.LogLoad(path, src.built, nil)
		return src, nil
	}
	o.metrics.RecordLoad(0, time.Since(start), err)
	o.logger.LogLoad(path, 0, err)
	return nil, err
}

func openSource[T Fingerprint](path string, shardBits uint8) (*Source[T], error) {
	mm, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("shardfuse: open source %s: %w", path, err)
	}

	src := &Source[T]{
		path:      path,
		shardBits: shardBits,
		mm:        mm,
	}
	if err := src.load(); err != nil {
		mm.Close()
		return nil, err
	}

	// Shard lookups jump around the body; tell the kernel not to read ahead.
	_ = mm.Advise(mmap.AccessRandom)

	return src, nil
}

func (s *Source[T]) load() error {
	data := s.mm.Bytes()
	capacity, err := parseShardedTag[T](data)
	if err != nil {
		return err
	}
	if capacity != s.Capacity() {
		return &ErrCapacityMismatch{Expected: s.Capacity(), Actual: capacity}
	}
	if len(data) < bodyStart(capacity) {
		return ErrCorruptHeader
	}

	s.filters = make([]*Filter[T], capacity)
	for prefix := uint32(0); prefix < capacity; prefix++ {
		offset := readSlot(data, prefix)
		if offset == emptySlot {
			continue
		}
		if offset < uint64(bodyStart(capacity)) || offset > uint64(len(data)) {
			return fmt.Errorf("%w: shard %d offset %d outside body", ErrFormat, prefix, offset)
		}
		f := &Filter[T]{}
		if err := f.Deserialize(data[offset:]); err != nil {
			return fmt.Errorf("shard %d: %w", prefix, err)
		}
		s.filters[prefix] = f
		s.built++
	}
	return nil
}

// Capacity returns the number of shard slots, 2^shardBits.
func (s *Source[T]) Capacity() uint32 {
	return uint32(1) << s.shardBits
}

// Shards returns the number of populated shard slots.
func (s *Source[T]) Shards() uint32 {
	return s.built
}

// Prefix returns the shard a key routes to.
func (s *Source[T]) Prefix(key uint64) uint32 {
	return uint32(key >> (64 - uint(s.shardBits)))
}

// Contains reports whether key is in the set. A key whose shard slot is
// empty reports false; otherwise the query is delegated to that shard's
// filter. No allocation, no I/O beyond page faults.
func (s *Source[T]) Contains(key uint64) bool {
	if len(s.filters) == 0 {
		return false
	}
	f := s.filters[s.Prefix(key)]
	if f == nil {
		return false
	}
	return f.Contains(key)
}

// Verify checks that every key in keys is contained. See Filter.Verify.
func (s *Source[T]) Verify(keys []uint64) bool {
	for _, key := range keys {
		if !s.Contains(key) {
			return false
		}
	}
	return true
}

// Close releases the mapping. Every filter is severed first so a stale
// reference reads as empty instead of touching unmapped memory.
func (s *Source[T]) Close() error {
	for _, f := range s.filters {
		if f != nil {
			f.release()
		}
	}
	s.filters = nil
	s.built = 0
	if s.mm == nil {
		return nil
	}
	return s.mm.Close()
}
