// Package mmap provides memory-mapped file access for zero-copy I/O.
//
// # Overview
//
// A sharded filter file is queried straight out of the page cache: the
// fingerprint arrays of every loaded shard alias the mapping returned by
// this package, so a query touches no heap memory and performs no read
// syscalls after warm-up.
//
// # Read and write modes
//
//	m, err := mmap.Open("filters.bin")          // read-only
//	m, err := mmap.OpenWritable("filters.bin")  // read-write, created if absent
//
// A writable mapping can be grown with Resize, which syncs, unmaps,
// truncates the underlying file and maps it again:
//
//	err := m.Resize(newSize)
//
// IMPORTANT: Resize invalidates every byte slice previously obtained from
// Bytes(). Callers holding views into the mapping must re-derive them after
// every Resize. The sharded sink does this by dropping its cached filter
// views on each append.
//
// # Platform Support
//
// Unix only (Linux, macOS, BSD), via golang.org/x/sys/unix. The on-disk
// format this package backs is host-endian and not portable anyway, so no
// Windows shim is provided.
//
// # Thread Safety
//
// A Mapping is safe for concurrent read access. Resize and Sync must not
// race with readers; the engine is single-writer by contract, so the sink
// serializes them on the caller's goroutine.
package mmap
