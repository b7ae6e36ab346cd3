package storage

import (
	"context"
	"errors"
)

var (
	// ErrClosed is returned by any operation on a closed storage.
	ErrClosed = errors.New("storage: closed")

	// ErrOutOfRange indicates a read or write outside [0, Size()).
	ErrOutOfRange = errors.New("storage: access out of range")

	// ErrReadOnly is returned by mutating operations on read-only storage.
	ErrReadOnly = errors.New("storage: read-only")

	// ErrBadSize indicates a negative or oversized SetSize request.
	ErrBadSize = errors.New("storage: bad size")
)

// Storage is the byte-range contract the heap allocator is built on.
//
// ReadAt and WriteAt follow io.ReaderAt / io.WriterAt, except that any access
// reaching past Size() fails with ErrOutOfRange instead of a short count.
type Storage interface {
	// Size returns the size of the addressable region in bytes.
	Size() int64

	// SetSize grows or shrinks the addressable region. New bytes read as zero.
	SetSize(n int64) error

	ReadAt(p []byte, off int64) (int, error)
	WriteAt(p []byte, off int64) (int, error)

	// Version returns the current version marker; ok is false when the
	// marker has never been set.
	Version() (v uint64, ok bool)

	// MarkVersion advances the version marker by one.
	MarkVersion() error
}

// Flusher is implemented by storages that buffer writes before they are durable.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Closer is implemented by storages holding OS resources.
type Closer interface {
	Close() error
}

// MaxSize bounds the addressable region to what a 48-bit pointer can reach.
const MaxSize = 1 << 48
