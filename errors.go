package shardfuse

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyPopulated is returned when Populate or Deserialize is called
	// on a filter that already holds data. A filter is built exactly once,
	// from the complete key set.
	ErrAlreadyPopulated = errors.New("shardfuse: filter is already populated")

	// ErrNotPopulated is returned by operations that require a built filter.
	ErrNotPopulated = errors.New("shardfuse: filter is not populated")

	// ErrCapacityExceeded is returned by Add when every shard slot has
	// already been filled.
	ErrCapacityExceeded = errors.New("shardfuse: sharded filter has reached max capacity")

	// ErrInvalidPrefix is returned by Add when the shard prefix is outside
	// the file's capacity.
	ErrInvalidPrefix = errors.New("shardfuse: shard prefix out of range")

	// ErrInvalidShardBits is returned when shard bits exceed MaxShardBits.
	ErrInvalidShardBits = errors.New("shardfuse: shard bits out of range")

	// ErrFormat is returned when a file does not carry the expected tag, or
	// its body layout is inconsistent with its index.
	ErrFormat = errors.New("shardfuse: invalid file format")

	// ErrCorruptHeader is returned when a file is shorter than its header
	// and index region. This happens when a sink died mid header write.
	ErrCorruptHeader = errors.New("shardfuse: corrupt file: header and index half written")

	// ErrShortBuffer is returned by Serialize when the destination buffer is
	// smaller than SerializationBytes.
	ErrShortBuffer = errors.New("shardfuse: destination buffer too small")
)

// ErrBuildFailed indicates that the binary fuse construction failed. The
// randomized construction exhausts its retries only for pathological key
// sets; this is a property of the keys, not a transient condition.
//
// The primitive's error is available via errors.Unwrap.
type ErrBuildFailed struct {
	Keys  int
	cause error
}

func (e *ErrBuildFailed) Error() string {
	return fmt.Sprintf("shardfuse: failed to build filter over %d keys: %v", e.Keys, e.cause)
}

func (e *ErrBuildFailed) Unwrap() error { return e.cause }

// ErrSlotOccupied indicates an Add into a shard slot that already holds a
// filter. No state changes.
type ErrSlotOccupied struct {
	Prefix uint32
}

func (e *ErrSlotOccupied) Error() string {
	return fmt.Sprintf("shardfuse: there is already a filter in this file for prefix %d", e.Prefix)
}

// ErrOutOfOrder indicates a StreamAdd key below the previous one. The
// stream must be abandoned; the file keeps whatever the last successful
// flush produced.
type ErrOutOfOrder struct {
	Last uint64
	Key  uint64
}

func (e *ErrOutOfOrder) Error() string {
	return fmt.Sprintf("shardfuse: stream key %#016x is below previous key %#016x", e.Key, e.Last)
}

// ErrCapacityMismatch indicates that the shard bits supplied on open
// disagree with the capacity recorded in the file tag.
type ErrCapacityMismatch struct {
	Expected uint32
	Actual   uint32
}

func (e *ErrCapacityMismatch) Error() string {
	return fmt.Sprintf("shardfuse: wrong capacity: expected %d, found %d", e.Expected, e.Actual)
}
