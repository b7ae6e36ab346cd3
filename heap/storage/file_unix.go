//go:build unix

package storage

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/joshuapare/heapkit/heap/dirty"
	"github.com/joshuapare/heapkit/internal/format"
)

// File is a heap file mapped into memory.
type File struct {
	f        *os.File
	data     []byte // whole mapping, preamble included
	pre      format.Preamble
	dt       *dirty.Tracker
	readOnly bool
}

// OpenFile maps the heap file at path, creating it when missing unless
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

	s := &File{f: f, pre: pre, readOnly: o.ReadOnly}
	if err := s.mapFile(int64(format.PreambleSize) + int64(pre.Size)); err != nil {
		_ = f.Close()
		return nil, err
	}
	s.dt = dirty.NewTracker(s)
	return s, nil
}

func (s *File) prot() int {
	if s.readOnly {
		return unix.PROT_READ
	}
	return unix.PROT_READ | unix.PROT_WRITE
}

func (s *File) mapFile(n int64) error {
	data, err := unix.Mmap(int(s.f.Fd()), 0, int(n), s.prot(), unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("storage: mmap failed: %w", err)
	}
	s.data = data
	return nil
}

func (s *File) unmap() error {
	if s.data == nil {
		return nil
	}
	err := unix.Munmap(s.data)
	s.data = nil
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}

// Bytes returns the whole mapping, preamble included (dirty.Region).
func (s *File) Bytes() []byte { return s.data }

// FD returns the file descriptor backing the mapping (dirty.Region).
func (s *File) FD() int {
	if s.f == nil {
		return -1
	}
	return int(s.f.Fd())
}

// Tracker exposes the dirty tracker (for tests and diagnostics).
func (s *File) Tracker() *dirty.Tracker { return s.dt }

func (s *File) Size() int64 { return int64(s.pre.Size) }

// SetSize truncates the file to the new logical size and remaps it.
// New bytes are zero-initialized by the OS.
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
	if n == s.Size() {
		return nil
	}

	oldLen := int64(len(s.data))
	newLen := int64(format.PreambleSize) + n

	// Dirty ranges are file offsets, so they stay valid across the remap.
	if err := s.unmap(); err != nil {
		return fmt.Errorf("file: failed to unmap before resize: %w", err)
	}

	if err := s.f.Truncate(newLen); err != nil {
		// Try to remap old size to recover
		_ = s.mapFile(oldLen)
		return fmt.Errorf("file: failed to truncate file: %w", err)
	}

	if err := s.mapFile(newLen); err != nil {
		_ = s.mapFile(oldLen)
		return fmt.Errorf("file: failed to remap after resize: %w", err)
	}

	s.pre.Size = uint64(n)
	s.writePreamble()
	return nil
}

func (s *File) writePreamble() {
	format.PutPreamble(s.data, s.pre)
	s.dt.Add(0, format.PreambleSize)
}

func (s *File) ReadAt(p []byte, off int64) (int, error) {
	if s.f == nil {
		return 0, ErrClosed
	}
	if !checkRange(off, len(p), s.Size()) {
		return 0, fmt.Errorf("file: read %d bytes at %d (size %d): %w", len(p), off, s.Size(), ErrOutOfRange)
	}
	start := format.PreambleSize + int(off)
	return copy(p, s.data[start:start+len(p)]), nil
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
	start := format.PreambleSize + int(off)
	n := copy(s.data[start:start+len(p)], p)
	s.dt.Add(start, n)
	return n, nil
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
	s.writePreamble()
	return nil
}

// Flush msyncs dirty data pages, then the preamble page, then fdatasyncs.
func (s *File) Flush(ctx context.Context) error {
	if s.f == nil {
		return ErrClosed
	}
	if s.readOnly {
		return nil
	}
	if err := s.dt.FlushDataOnly(ctx); err != nil {
		return fmt.Errorf("file: flush data: %w", err)
	}
	if err := s.dt.FlushHeaderAndMeta(ctx, dirty.FlushAuto); err != nil {
		return fmt.Errorf("file: flush header: %w", err)
	}
	return nil
}

// Close unmaps and closes the file. It does not flush.
func (s *File) Close() error {
	var err error
	if uerr := s.unmap(); uerr != nil {
		err = uerr
	}
	if s.f != nil {
		if cerr := s.f.Close(); err == nil {
			err = cerr
		}
		s.f = nil
	}
	return err
}
