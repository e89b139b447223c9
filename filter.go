package shardfuse

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"slices"
	"unsafe"

	"github.com/FastFilter/xorfilter"
)

// descriptorBytes is the serialized size of a filter descriptor: seed
// (u64), segment length, segment length mask, segment count, segment count
// length, fingerprint count (u32 each), all little-endian. The raw
// fingerprint array follows immediately after.
const descriptorBytes = 28

// bufferMode records who owns a filter's fingerprint array.
type bufferMode uint8

const (
	bufferNone     bufferMode = iota // not populated
	bufferOwned                      // fingerprints live on the Go heap
	bufferBorrowed                   // fingerprints alias caller-owned bytes, typically an mmap
)

// Filter wraps a single binary fuse filter of fingerprint width T.
//
// A filter is built exactly once, either from a key set (Populate) or from
// a serialized buffer (Deserialize). A deserialized filter borrows its
// fingerprint array from the source buffer: the buffer must stay live and
// unmoved for the filter's entire lifetime.
type Filter[T Fingerprint] struct {
	fuse xorfilter.BinaryFuse[T]
	mode bufferMode
}

// NewFilter builds a filter over keys. See Populate for the key contract.
func NewFilter[T Fingerprint](keys []uint64) (*Filter[T], error) {
	f := &Filter[T]{}
	if err := f.Populate(keys); err != nil {
		return nil, err
	}
	return f, nil
}

// Populate builds the filter over keys. The slice is consumed: it is sorted
// and deduplicated in place before construction, and the primitive may
// reorder it further. Keys may contain duplicates; they are redundant.
//
// Returns ErrAlreadyPopulated if the filter is already built, or an
// ErrBuildFailed if the randomized construction exhausts its retries (a
// property of the key set, not a transient).
func (f *Filter[T]) Populate(keys []uint64) error {
	if f.Populated() {
		return ErrAlreadyPopulated
	}
	slices.Sort(keys)
	keys = slices.Compact(keys)

	fuse, err := xorfilter.NewBinaryFuse[T](keys)
	if err != nil {
		return &ErrBuildFailed{Keys: len(keys), cause: err}
	}
	f.fuse = *fuse
	f.mode = bufferOwned
	return nil
}

// Populated reports whether the filter holds a validly constructed or
// deserialized binary fuse instance.
func (f *Filter[T]) Populated() bool {
	return f.mode != bufferNone
}

// Contains reports whether key is in the filter. Never false for a key the
// filter was built over; true for other keys with probability at most
// 2^-W where W is the fingerprint width. An unpopulated filter contains
// nothing.
//
// Contains does not allocate and is safe to call concurrently with other
// Contains calls on the same filter.
func (f *Filter[T]) Contains(key uint64) bool {
	if f.mode == bufferNone {
		return false
	}
	return f.fuse.Contains(key)
}

// Verify checks that every key in keys is contained in the filter. Any
// false negative logs a diagnostic and returns false immediately; a false
// negative indicates a bug in the primitive or corrupted state.
func (f *Filter[T]) Verify(keys []uint64) bool {
	for _, key := range keys {
		if !f.Contains(key) {
			slog.Error("shardfuse: verify detected a false negative",
				"key", fmt.Sprintf("%016x", key),
			)
			return false
		}
	}
	return true
}

// SerializationBytes returns the number of bytes Serialize will write.
// Deterministic from the descriptor alone.
func (f *Filter[T]) SerializationBytes() int {
	var zero T
	return descriptorBytes + len(f.fuse.Fingerprints)*int(unsafe.Sizeof(zero))
}

// Serialize writes the descriptor followed by the raw fingerprint array
// into dst, which must be at least SerializationBytes long. No allocation.
func (f *Filter[T]) Serialize(dst []byte) error {
	if !f.Populated() {
		return ErrNotPopulated
	}
	need := f.SerializationBytes()
	if len(dst) < need {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrShortBuffer, need, len(dst))
	}
	binary.LittleEndian.PutUint64(dst[0:8], f.fuse.Seed)
	binary.LittleEndian.PutUint32(dst[8:12], f.fuse.SegmentLength)
	binary.LittleEndian.PutUint32(dst[12:16], f.fuse.SegmentLengthMask)
	binary.LittleEndian.PutUint32(dst[16:20], f.fuse.SegmentCount)
	binary.LittleEndian.PutUint32(dst[20:24], f.fuse.SegmentCountLength)
	binary.LittleEndian.PutUint32(dst[24:28], uint32(len(f.fuse.Fingerprints)))
	copy(dst[descriptorBytes:need], fingerprintView(f.fuse.Fingerprints))
	return nil
}

// Deserialize parses the descriptor prefix from src and aliases the
// fingerprint array that follows it. No bytes are copied and no integrity
// check is performed on the fingerprint data.
//
// src must remain live and unmoved for the filter's entire lifetime;
// releasing the backing buffer (e.g. unmapping a file) while the filter is
// still queried is undefined behavior.
func (f *Filter[T]) Deserialize(src []byte) error {
	if f.Populated() {
		return ErrAlreadyPopulated
	}
	if len(src) < descriptorBytes {
		return fmt.Errorf("%w: truncated filter descriptor", ErrFormat)
	}
	count := int(binary.LittleEndian.Uint32(src[24:28]))
	var zero T
	need := descriptorBytes + count*int(unsafe.Sizeof(zero))
	if len(src) < need {
		return fmt.Errorf("%w: filter body needs %d bytes, have %d", ErrFormat, need, len(src))
	}

	f.fuse.Seed = binary.LittleEndian.Uint64(src[0:8])
	f.fuse.SegmentLength = binary.LittleEndian.Uint32(src[8:12])
	f.fuse.SegmentLengthMask = binary.LittleEndian.Uint32(src[12:16])
	f.fuse.SegmentCount = binary.LittleEndian.Uint32(src[16:20])
	f.fuse.SegmentCountLength = binary.LittleEndian.Uint32(src[20:24])

	fingerprints, err := aliasFingerprints[T](src[descriptorBytes:need], count)
	if err != nil {
		return err
	}
	f.fuse.Fingerprints = fingerprints
	f.mode = bufferBorrowed
	return nil
}

// release severs the filter from its fingerprint array. Used by sources
// when the backing mapping goes away, so a stale filter reads as empty
// instead of dereferencing unmapped memory.
func (f *Filter[T]) release() {
	f.fuse = xorfilter.BinaryFuse[T]{}
	f.mode = bufferNone
}

// fingerprintView reinterprets a fingerprint slice as raw bytes without
// copying.
func fingerprintView[T Fingerprint](fp []T) []byte {
	if len(fp) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&fp[0])), len(fp)*int(unsafe.Sizeof(zero)))
}

// aliasFingerprints reinterprets raw bytes as a fingerprint slice without
// copying. The alignment check mirrors what the element type requires; the
// file layout guarantees it (body offsets are even), so a failure here
// means the caller handed in an arbitrary buffer.
func aliasFingerprints[T Fingerprint](b []byte, count int) ([]T, error) {
	if count == 0 {
		return nil, nil
	}
	var zero T
	size := int(unsafe.Sizeof(zero))
	if addr := uintptr(unsafe.Pointer(&b[0])); addr%uintptr(size) != 0 {
		return nil, fmt.Errorf("%w: fingerprint array misaligned for %d-bit width",
			ErrFormat, size*8)
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), count), nil
}
