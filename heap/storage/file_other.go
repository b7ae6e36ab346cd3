//go:build !unix

package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/joshuapare/heapkit/internal/format"
)

// File is a heap file accessed with positioned reads and writes when mmap is
// not available.
type File struct {
	f        *os.File
	pre      format.Preamble
	readOnly bool
}

// OpenFile opens the heap file at path, creating it when missing unless
// opts.NoCreate is set. A nil opts means read-write with create.
func OpenFile(path string, opts *FileOptions) (*File, error) {
	var o FileOptions
	if opts != nil {
		o = *opts
	}
	f, pre, err := openHeapFile(path, o)
	if err != nil {
		return nil, err
	}
	return &File{f: f, pre: pre, readOnly: o.ReadOnly}, nil
}

func (s *File) Size() int64 { return int64(s.pre.Size) }

func (s *File) SetSize(n int64) error {
	if s.f == nil {
		return ErrClosed
	}
	if s.readOnly {
		return ErrReadOnly
	}
	if n < 0 || n > MaxSize {
		return fmt.Errorf("file: set size %d: %w", n, ErrBadSize)
	}
	if err := s.f.Truncate(int64(format.PreambleSize) + n); err != nil {
		return fmt.Errorf("file: failed to truncate file: %w", err)
	}
	s.pre.Size = uint64(n)
	return s.writePreamble()
}

func (s *File) writePreamble() error {
	b := make([]byte, format.PreambleSize)
	format.PutPreamble(b, s.pre)
	_, err := s.f.WriteAt(b, 0)
	return err
}

func (s *File) ReadAt(p []byte, off int64) (int, error) {
	if s.f == nil {
		return 0, ErrClosed
	}
	if !checkRange(off, len(p), s.Size()) {
		return 0, fmt.Errorf("file: read %d bytes at %d (size %d): %w", len(p), off, s.Size(), ErrOutOfRange)
	}
	return s.f.ReadAt(p, int64(format.PreambleSize)+off)
}

func (s *File) WriteAt(p []byte, off int64) (int, error) {
	if s.f == nil {
		return 0, ErrClosed
	}
	if s.readOnly {
		return 0, ErrReadOnly
	}
	if !checkRange(off, len(p), s.Size()) {
		return 0, fmt.Errorf("file: write %d bytes at %d (size %d): %w", len(p), off, s.Size(), ErrOutOfRange)
	}
	return s.f.WriteAt(p, int64(format.PreambleSize)+off)
}

func (s *File) Version() (uint64, bool) { return s.pre.Version, s.pre.Versioned }

func (s *File) MarkVersion() error {
	if s.f == nil {
		return ErrClosed
	}
	if s.readOnly {
		return ErrReadOnly
	}
	s.pre.Version++
	s.pre.Versioned = true
	return s.writePreamble()
}

func (s *File) Flush(ctx context.Context) error {
	if s.f == nil {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.readOnly {
		return nil
	}
	return s.f.Sync()
}

func (s *File) Close() error {
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}
