// Package shardfuse provides a persistent, sharded set-membership engine
// built on binary fuse filters.
//
// For a universe of 64-bit keys the engine answers "is this key in the
// set?" with zero false negatives and a bounded false-positive rate:
// roughly 0.39% with 8-bit fingerprints, 0.0015% with 16-bit. Built
// artifacts live in a single file that is memory-mapped on load and
// queried with essentially zero per-query I/O after warm-up.
//
// # Quick Start
//
// Build a sharded file and query it:
//
//	sink, _ := shardfuse.NewSink[uint8]("filters.bin", shardfuse.WithShardBits(8))
//	for _, k := range sortedKeys {
//	    _ = sink.StreamAdd(k) // keys must be non-decreasing
//	}
//	_ = sink.StreamFinalize()
//	_ = sink.Close()
//
//	src, _ := shardfuse.OpenSource[uint8]("filters.bin", shardfuse.WithShardBits(8))
//	defer src.Close()
//	ok := src.Contains(key)
//
// Random-order workloads pre-group keys per shard instead:
//
//	sink, _ := shardfuse.NewSink[uint16]("filters.bin")
//	_ = sink.BulkAdd(ctx, keys) // groups by prefix, builds shards concurrently
//
// Application keys that are not already uniform 64-bit hashes can be
// derived with KeyOf / KeyOfString.
//
// # Sharding
//
// The top shard-bits of each key select one of 2^shardBits shards, each an
// independent binary fuse filter. A key's shard is fixed by its prefix, so
// a query touches exactly one filter; a prefix with no filter on disk
// reports false.
//
// # Ownership
//
// A Filter either owns its fingerprint array (built in memory) or borrows
// it from a caller-provided buffer, typically a memory mapping. Borrowed
// filters must not outlive the mapping they alias; Source and FilterSource
// manage that lifetime and sever their filters on Close.
//
// # Concurrency
//
// Sinks are single-writer and not safe for concurrent use. A loaded Source
// is immutable and safe for concurrent Contains calls, as are multiple
// Sources over the same file. A sink and a source must never share a file.
package shardfuse
