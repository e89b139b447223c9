// Package blobstore moves sealed filter files between object storage and
// the local filesystem.
//
// A sharded filter file must live on a local (mmap-able) path to be
// queried, but fleets typically distribute the built artifact through
// object storage. The flow is:
//
//	// build host
//	sink, _ := shardfuse.NewSink[uint8]("filters.bin")
//	...
//	_ = blobstore.Upload(ctx, store, "filters/v42.bin", "filters.bin")
//
//	// query host
//	_ = blobstore.Download(ctx, store, "filters/v42.bin", "/fast/nvme/filters.bin", nil)
//	src, _ := shardfuse.OpenSource[uint8]("/fast/nvme/filters.bin")
//
// Backends: [MemoryStore] (tests), [LocalStore] (mmap-backed directory
// store), s3.Store (AWS S3) and minio.Store (MinIO / S3-compatible).
//
// Filter files are immutable once sealed, so stores only need whole-object
// put/get semantics; there is no partial update path.
package blobstore
