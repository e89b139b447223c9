package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hupe1980/shardfuse/internal/fs"
	"github.com/hupe1980/shardfuse/internal/mmap"
)

// Upload copies the sealed filter file at srcPath into the store under
// name. The file is memory-mapped for the read, so nothing is buffered
// beyond what the backend requires.
//
// Upload a file only after its sink is closed; uploading a live sink's
// file races with its remaps.
func Upload(ctx context.Context, store Store, name, srcPath string) error {
	m, err := mmap.Open(srcPath)
	if err != nil {
		return fmt.Errorf("blobstore: upload %s: %w", srcPath, err)
	}
	defer m.Close()

	return store.Put(ctx, name, m.Bytes())
}

// Download fetches the blob name into destPath, creating parent
// directories as needed. The write goes through a temp file and a rename,
// so a crashed download never leaves a partial file that a source could
// mistake for a corrupt filter.
//
// fsys may be nil, in which case the local filesystem is used.
func Download(ctx context.Context, store Store, name, destPath string, fsys fs.FileSystem) error {
	if fsys == nil {
		fsys = fs.Default
	}

	blob, err := store.Open(ctx, name)
	if err != nil {
		return fmt.Errorf("blobstore: download %s: %w", name, err)
	}
	defer blob.Close()

	if err := fsys.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}

	tmp := destPath + ".tmp"
	f, err := fsys.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	err = copyBlob(ctx, f, blob)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fsys.Remove(tmp)
		return fmt.Errorf("blobstore: download %s: %w", name, err)
	}
	return fsys.Rename(tmp, destPath)
}

func copyBlob(ctx context.Context, dst io.Writer, blob Blob) error {
	// Zero-copy path for mmap and memory backed blobs.
	if m, ok := blob.(Mappable); ok {
		data, err := m.Bytes()
		if err == nil {
			_, err = dst.Write(data)
			return err
		}
		// fall through to chunked reads
	}

	const chunk = 1 << 20
	buf := make([]byte, chunk)
	size := blob.Size()
	for off := int64(0); off < size; {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := blob.ReadAt(buf, off)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
			off += int64(n)
		}
		if err == io.EOF {
			if off < size {
				return io.ErrUnexpectedEOF
			}
			break
		}
		if err != nil {
			return err
		}
	}
	return nil
}
