package fs

import (
	"errors"
	"os"
	"sync"
)

// ErrInjected is the default error returned by FaultyFS fault rules.
var ErrInjected = errors.New("injected fault error")

// FaultyFS is a FileSystem wrapper that can inject write errors.
//
// A byte limit applies across all files opened through the wrapper: once
// the limit is reached, every subsequent Write and Sync fails with Err.
type FaultyFS struct {
	FS  FileSystem
	Err error

	mu      sync.Mutex
	written int64
	limit   int64 // -1 means no limit
}

// NewFaultyFS creates a new FaultyFS wrapping the provided FS (or Default if nil).
func NewFaultyFS(inner FileSystem) *FaultyFS {
	if inner == nil {
		inner = Default
	}
	return &FaultyFS{
		FS:    inner,
		Err:   ErrInjected,
		limit: -1,
	}
}

// SetLimit arms the fault: writes fail once limit bytes have been written.
func (f *FaultyFS) SetLimit(limit int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limit = limit
}

// Written returns the total bytes written so far.
func (f *FaultyFS) Written() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written
}

func (f *FaultyFS) tripped(n int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.limit < 0 {
		f.written += int64(n)
		return n, nil
	}
	remaining := f.limit - f.written
	if remaining <= 0 {
		return 0, f.Err
	}
	if int64(n) > remaining {
		f.written = f.limit
		return int(remaining), f.Err
	}
	f.written += int64(n)
	return n, nil
}

func (f *FaultyFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	file, err := f.FS.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return &faultyFile{File: file, fs: f}, nil
}

func (f *FaultyFS) Remove(name string) error             { return f.FS.Remove(name) }
func (f *FaultyFS) Rename(oldpath, newpath string) error { return f.FS.Rename(oldpath, newpath) }
func (f *FaultyFS) Stat(name string) (os.FileInfo, error) {
	return f.FS.Stat(name)
}
func (f *FaultyFS) MkdirAll(path string, perm os.FileMode) error {
	return f.FS.MkdirAll(path, perm)
}
func (f *FaultyFS) ReadDir(name string) ([]os.DirEntry, error) {
	return f.FS.ReadDir(name)
}

type faultyFile struct {
	File
	fs *FaultyFS
}

func (f *faultyFile) Write(p []byte) (int, error) {
	allowed, ferr := f.fs.tripped(len(p))
	if allowed == 0 && ferr != nil {
		return 0, ferr
	}
	n, err := f.File.Write(p[:allowed])
	if err != nil {
		return n, err
	}
	return n, ferr
}

func (f *faultyFile) Sync() error {
	f.fs.mu.Lock()
	armed := f.fs.limit >= 0 && f.fs.written >= f.fs.limit
	f.fs.mu.Unlock()
	if armed {
		return f.fs.Err
	}
	return f.File.Sync()
}
