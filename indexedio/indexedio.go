// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package indexedio provides a hierarchical store of named directories
// and entries, persisted as a single versioned file on a
// [hackpadfs.FS].
package indexedio

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/cortex/data"
	"github.com/Masterminds/semver/v3"
	"github.com/h2non/filetype"
	"github.com/hack-pad/hackpadfs"
	osfs "github.com/hack-pad/hackpadfs/os"
)

var (
	// ErrFormat is returned when a file is not a valid indexed file.
	ErrFormat = errors.New("indexedio: invalid file format")

	// ErrReadOnly is returned for modifications of a file opened for reading.
	ErrReadOnly = errors.New("indexedio: file is read-only")

	// ErrClosed is returned for modifications after the file was closed.
	ErrClosed = errors.New("indexedio: file is closed")
)

// Mode is the mode a file is opened in.
type Mode int32

const (
	Read Mode = iota
	Write
	Append
)

var modeNames = [...]string{"Read", "Write", "Append"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int32(m))
	}
	return modeNames[m]
}

// Version is the format version written to new files.
const Version = "1.0.0"

// Extension is the file type registered with filetype for indexed files.
const Extension = "cidx"

var (
	magic      = []byte("CRTXIDX\x00")
	compatible = errors.Must1(semver.NewConstraint("^1.0"))
)

func init() {
	t := filetype.NewType(Extension, "application/x-cortex-indexed")
	filetype.AddMatcher(t, func(buf []byte) bool {
		return bytes.HasPrefix(buf, magic)
	})
}

// File is an open indexed file. All directories of a file share its
// lock; a file opened for reading can be read from any number of
// goroutines.
type File struct {
	fsys    hackpadfs.FS
	path    string
	mode    Mode
	version *semver.Version
	root    *Directory

	mu     sync.RWMutex
	closed bool
}

// Open opens the named file on fsys. In [Write] mode a new empty file
// is started, replacing any existing one when the file is closed. In
// [Append] mode an existing file is loaded and can be modified.
func Open(fsys hackpadfs.FS, name string, mode Mode) (*File, error) {
	f := &File{fsys: fsys, path: name, mode: mode}
	f.root = &Directory{file: f}
	switch mode {
	case Write:
		f.version = semver.MustParse(Version)
		return f, nil
	case Read, Append:
	default:
		return nil, fmt.Errorf("indexedio: invalid mode %v", mode)
	}
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		if mode == Append && errors.Is(err, fs.ErrNotExist) {
			f.version = semver.MustParse(Version)
			return f, nil
		}
		return nil, err
	}
	if err := f.decode(b); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}

// OpenPath opens a file given by an operating system path.
func OpenPath(name string, mode Mode) (*File, error) {
	fsys, p, err := OSPath(name)
	if err != nil {
		return nil, err
	}
	return Open(fsys, p, mode)
}

// OSPath returns the operating system filesystem and the path of the
// given file within it.
func OSPath(name string) (hackpadfs.FS, string, error) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return nil, "", err
	}
	return osfs.NewFS(), strings.TrimPrefix(filepath.ToSlash(abs), "/"), nil
}

// IsIndexedFile returns whether the given header bytes start an indexed file.
func IsIndexedFile(head []byte) bool {
	return filetype.Is(head, Extension)
}

// Path returns the path of the file on its filesystem.
func (f *File) Path() string { return f.path }

// Mode returns the mode the file was opened in.
func (f *File) Mode() Mode { return f.mode }

// Version returns the format version of the file.
func (f *File) Version() *semver.Version { return f.version }

// Root returns the root directory.
func (f *File) Root() *Directory { return f.root }

// Closed returns whether [File.Close] has been called.
func (f *File) Closed() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.closed
}

// Close closes the file, writing it out unless it was opened for reading.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	if f.mode == Read {
		return nil
	}
	return f.write()
}

func (f *File) writable() error {
	if f.mode == Read {
		return fmt.Errorf("%w: %s", ErrReadOnly, f.path)
	}
	if f.closed {
		return fmt.Errorf("%w: %s", ErrClosed, f.path)
	}
	return nil
}

func (f *File) write() error {
	e := &data.Encoder{}
	e.Text(Version)
	f.root.encode(e)
	b := append(slices.Clone(magic), e.Bytes()...)
	return writeFile(f.fsys, f.path, b)
}

// writeFile writes b to the named file, creating its directory.
func writeFile(fsys hackpadfs.FS, name string, b []byte) error {
	if dir := path.Dir(name); dir != "." {
		if err := hackpadfs.MkdirAll(fsys, dir, 0o755); err != nil {
			return err
		}
	}
	fl, err := hackpadfs.OpenFile(fsys, name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	w, ok := fl.(io.Writer)
	if !ok {
		fl.Close()
		return fmt.Errorf("indexedio: %s: %w", name, hackpadfs.ErrNotImplemented)
	}
	_, err = w.Write(b)
	return errors.Join(err, fl.Close())
}

func (f *File) decode(b []byte) error {
	if !IsIndexedFile(b) {
		return ErrFormat
	}
	d := data.NewDecoder(b[len(magic):])
	vs := d.Text()
	if d.Err() != nil {
		return fmt.Errorf("%w: %w", ErrFormat, d.Err())
	}
	v, err := semver.NewVersion(vs)
	if err != nil {
		return fmt.Errorf("%w: version %q: %w", ErrFormat, vs, err)
	}
	if !compatible.Check(v) {
		return fmt.Errorf("%w: unsupported version %s", ErrFormat, v)
	}
	f.version = v
	if err := f.root.decode(d); err != nil {
		return fmt.Errorf("%w: %w", ErrFormat, err)
	}
	if d.Remaining() != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrFormat, d.Remaining())
	}
	return nil
}
