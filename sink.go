package shardfuse

import (
	"fmt"
	"time"

	"github.com/hupe1980/shardfuse/internal/mmap"
)

// Sink is the write-mode engine over a sharded filter file.
//
// A sink has exclusive ownership of its file for its lifetime: concurrent
// sinks, or a sink plus a source over the same file, are undefined
// behavior. Closing a sink does not turn it into a source; reopen the file
// with OpenSource to query it.
//
// NewSink creates the file if needed, but writing the header and index is
// deferred until the first append, so a sink over a path that never
// receives a shard leaves an empty file.
type Sink[T Fingerprint] struct {
	path      string
	shardBits uint8
	mm        *mmap.Mapping
	built     uint32

	// views are lazily materialized borrowed filters for sink-side
	// Contains. Every append remaps the file, so they are dropped on each
	// resize and rebuilt on demand.
	views []*Filter[T]

	stream       []uint64
	streamPrefix uint32
	streamLast   uint64

	logger  *Logger
	metrics MetricsCollector
}

// NewSink opens or creates a sharded filter file for writing.
//
// If the file already holds a header it is validated against the
// configured shard bits and fingerprint width; a mismatch is fatal. A file
// that is neither empty nor long enough to hold header and index is
// refused as corrupt.
func NewSink[T Fingerprint](path string, opts ...Option) (*Sink[T], error) {
	o := applyOptions(opts)
	if o.shardBits > MaxShardBits {
		return nil, fmt.Errorf("%w: %d > %d", ErrInvalidShardBits, o.shardBits, MaxShardBits)
	}

	mm, err := mmap.OpenWritable(path)
	if err != nil {
		return nil, fmt.Errorf("shardfuse: open sink %s: %w", path, err)
	}

	s := &Sink[T]{
		path:      path,
		shardBits: o.shardBits,
		mm:        mm,
		logger:    o.logger,
		metrics:   o.metrics,
	}
	if mm.Size() > 0 {
		if err := s.loadHeader(); err != nil {
			mm.Close()
			return nil, err
		}
	}
	return s, nil
}

// Capacity returns the number of shard slots, 2^shardBits.
func (s *Sink[T]) Capacity() uint32 {
	return uint32(1) << s.shardBits
}

// Shards returns the number of shards written so far.
func (s *Sink[T]) Shards() uint32 {
	return s.built
}

// Prefix returns the shard a key routes to.
func (s *Sink[T]) Prefix(key uint64) uint32 {
	return uint32(key >> (64 - uint(s.shardBits)))
}

// Add appends a pre-built filter for shard slot prefix.
//
// The slot must be empty and the file not yet at capacity. The append is
// atomic from the engine's point of view: the body bytes are written
// before the index slot starts pointing at them, and the mapping is synced
// afterwards. A sink killed mid-append can leave unused trailing body
// bytes, which sources ignore.
func (s *Sink[T]) Add(f *Filter[T], prefix uint32) error {
	start := time.Now()
	bytes := 0
	if f != nil {
		bytes = f.SerializationBytes()
	}
	err := s.add(f, prefix)
	s.metrics.RecordAppend(prefix, bytes, time.Since(start), err)
	s.logger.LogAppend(prefix, bytes, err)
	return err
}

func (s *Sink[T]) add(f *Filter[T], prefix uint32) error {
	if f == nil || !f.Populated() {
		return ErrNotPopulated
	}
	if prefix >= s.Capacity() {
		return fmt.Errorf("%w: prefix %d, capacity %d", ErrInvalidPrefix, prefix, s.Capacity())
	}
	if s.built >= s.Capacity() {
		return ErrCapacityExceeded
	}
	if err := s.ensureHeader(); err != nil {
		return err
	}
	if readSlot(s.mm.Bytes(), prefix) != emptySlot {
		return &ErrSlotOccupied{Prefix: prefix}
	}

	need := f.SerializationBytes()
	oldLen := s.mm.Size()

	if err := s.mm.Sync(); err != nil {
		return fmt.Errorf("shardfuse: sync before append: %w", err)
	}
	if err := s.mm.Resize(int64(oldLen + need)); err != nil {
		return fmt.Errorf("shardfuse: grow file to %d bytes: %w", oldLen+need, err)
	}
	s.views = nil // mapping moved; every borrowed view is now invalid

	data := s.mm.Bytes()
	if err := f.Serialize(data[oldLen : oldLen+need]); err != nil {
		return err
	}
	writeSlot(data, prefix, uint64(oldLen))
	s.built++

	if err := s.mm.Sync(); err != nil {
		return fmt.Errorf("shardfuse: sync after append: %w", err)
	}
	return nil
}

// ensureHeader lazily creates the header and an all-empty index on the
// first append. A pre-existing header is validated instead.
func (s *Sink[T]) ensureHeader() error {
	if s.mm.Size() >= bodyStart(s.Capacity()) {
		return nil
	}
	if s.mm.Size() != 0 {
		return ErrCorruptHeader
	}

	if err := s.mm.Resize(int64(bodyStart(s.Capacity()))); err != nil {
		return fmt.Errorf("shardfuse: create header: %w", err)
	}
	s.views = nil

	data := s.mm.Bytes()
	copy(data, shardedTag[T](s.Capacity()))
	for prefix := uint32(0); prefix < s.Capacity(); prefix++ {
		writeSlot(data, prefix, emptySlot)
	}
	if err := s.mm.Sync(); err != nil {
		return fmt.Errorf("shardfuse: sync header: %w", err)
	}
	s.built = 0
	return nil
}

// loadHeader validates an existing file against the sink configuration and
// recovers the number of shards already present.
func (s *Sink[T]) loadHeader() error {
	data := s.mm.Bytes()
	if len(data) < headerBytes {
		return ErrCorruptHeader
	}
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
	s.built = 0
	for prefix := uint32(0); prefix < capacity; prefix++ {
		if readSlot(data, prefix) != emptySlot {
			s.built++
		}
	}
	return nil
}

// Contains queries the sink's current on-disk state. A shard that has not
// been added yet reports false.
//
// This materializes borrowed filter views into the live mapping; they are
// rebuilt after every append, so interleaving Add and Contains is legal
// but repays the deserialization cost each time.
func (s *Sink[T]) Contains(key uint64) bool {
	f := s.view(s.Prefix(key))
	if f == nil {
		return false
	}
	return f.Contains(key)
}

func (s *Sink[T]) view(prefix uint32) *Filter[T] {
	data := s.mm.Bytes()
	if len(data) < bodyStart(s.Capacity()) {
		return nil // no header yet, nothing written
	}
	if s.views == nil {
		s.views = make([]*Filter[T], s.Capacity())
	}
	if f := s.views[prefix]; f != nil {
		return f
	}
	offset := readSlot(data, prefix)
	if offset == emptySlot || offset > uint64(len(data)) {
		return nil
	}
	f := &Filter[T]{}
	if err := f.Deserialize(data[offset:]); err != nil {
		s.logger.Error("sink view deserialization failed",
			"prefix", prefix,
			"error", err,
		)
		return nil
	}
	s.views[prefix] = f
	return f
}

// Close syncs and unmaps the file. The sink must not be used afterwards.
// An unfinished stream is NOT flushed; call StreamFinalize first.
func (s *Sink[T]) Close() error {
	s.views = nil
	if s.mm.Size() > 0 {
		if err := s.mm.Sync(); err != nil {
			s.mm.Close()
			return fmt.Errorf("shardfuse: sync on close: %w", err)
		}
	}
	return s.mm.Close()
}
