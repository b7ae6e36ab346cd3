package storage

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/buf"
)

// Mem is a transient in-memory Storage.
type Mem struct {
	data      []byte
	version   uint64
	versioned bool
	closed    bool
}

// NewMem returns an empty in-memory storage with a null version.
func NewMem() *Mem {
	return &Mem{}
}

// Bytes exposes the backing slice (for tests and dumps). It is invalidated by SetSize.
func (m *Mem) Bytes() []byte { return m.data }

func (m *Mem) Size() int64 { return int64(len(m.data)) }

func (m *Mem) SetSize(n int64) error {
	if m.closed {
		return ErrClosed
	}
	if n < 0 || n > MaxSize {
		return fmt.Errorf("mem: set size %d: %w", n, ErrBadSize)
	}
	switch {
	case n <= int64(len(m.data)):
		clear(m.data[n:])
		m.data = m.data[:n]
	case n <= int64(cap(m.data)):
		m.data = m.data[:n]
	default:
		grown := make([]byte, n, n+n/4)
		copy(grown, m.data)
		m.data = grown
	}
	return nil
}

func (m *Mem) ReadAt(p []byte, off int64) (int, error) {
	if m.closed {
		return 0, ErrClosed
	}
	src, ok := m.slice(off, len(p))
	if !ok {
		return 0, fmt.Errorf("mem: read %d bytes at %d (size %d): %w", len(p), off, len(m.data), ErrOutOfRange)
	}
	return copy(p, src), nil
}

func (m *Mem) WriteAt(p []byte, off int64) (int, error) {
	if m.closed {
		return 0, ErrClosed
	}
	dst, ok := m.slice(off, len(p))
	if !ok {
		return 0, fmt.Errorf("mem: write %d bytes at %d (size %d): %w", len(p), off, len(m.data), ErrOutOfRange)
	}
	return copy(dst, p), nil
}

func (m *Mem) slice(off int64, n int) ([]byte, bool) {
	if off < 0 || off > int64(len(m.data)) {
		return nil, false
	}
	return buf.Slice(m.data, int(off), n)
}

func (m *Mem) Version() (uint64, bool) { return m.version, m.versioned }

func (m *Mem) MarkVersion() error {
	if m.closed {
		return ErrClosed
	}
	m.version++
	m.versioned = true
	return nil
}

// Close releases the backing slice.
func (m *Mem) Close() error {
	m.closed = true
	m.data = nil
	return nil
}
