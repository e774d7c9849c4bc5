package fs

import (
	"errors"
	"os"
	"strings"
)

// ErrInjected is the error returned by a tripped fault.
var ErrInjected = errors.New("injected fault error")

// FaultyFS is a FileSystem wrapper that can inject write failures.
// It is intended for tests that exercise I/O error paths.
type FaultyFS struct {
	FS FileSystem

	// FailWritesTo makes writes fail for files whose name contains
	// this substring. Empty means no write faults.
	FailWritesTo string

	// FailAfterBytes trips the write fault only after this many bytes
	// have been written to a matching file. Zero fails immediately.
	FailAfterBytes int64
}

// NewFaultyFS creates a new FaultyFS wrapping the provided FS (or Default if nil).
func NewFaultyFS(fs FileSystem) *FaultyFS {
	if fs == nil {
		fs = Default
	}
	return &FaultyFS{FS: fs}
}

func (f *FaultyFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	file, err := f.FS.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	if f.FailWritesTo != "" && strings.Contains(name, f.FailWritesTo) {
		return &faultyFile{File: file, budget: f.FailAfterBytes}, nil
	}
	return file, nil
}

func (f *FaultyFS) Remove(name string) error              { return f.FS.Remove(name) }
func (f *FaultyFS) Stat(name string) (os.FileInfo, error) { return f.FS.Stat(name) }

type faultyFile struct {
	File
	budget  int64
	tripped bool
}

func (f *faultyFile) Write(p []byte) (int, error) {
	if f.tripped {
		return 0, ErrInjected
	}
	if int64(len(p)) > f.budget {
		f.tripped = true
		n, _ := f.File.Write(p[:f.budget])
		f.budget = 0
		return n, ErrInjected
	}
	f.budget -= int64(len(p))
	return f.File.Write(p)
}

func (f *faultyFile) Sync() error {
	if f.tripped {
		return ErrInjected
	}
	return f.File.Sync()
}
