package dirty

import "context"

// DirtyTracker is the minimal interface for tracking dirty (modified) byte ranges.
// Storage implementations call Add after every write into a mapped region.
type DirtyTracker interface {
	// Add marks a byte range as dirty.
	// off is the offset from the start of the file, length is the number of bytes.
	Add(off, length int)
}

// FlushableTracker extends DirtyTracker with methods for flushing dirty regions to disk.
type FlushableTracker interface {
	DirtyTracker

	// FlushDataOnly flushes only the data regions (not the preamble page).
	FlushDataOnly(ctx context.Context) error

	// FlushHeaderAndMeta flushes the preamble page and file metadata based on mode.
	FlushHeaderAndMeta(ctx context.Context, mode FlushMode) error
}

// Region is the mapped file a Tracker flushes.
type Region interface {
	// Bytes returns the current mapping. It may change after a remap.
	Bytes() []byte
	// FD returns the file descriptor backing the mapping, or -1.
	FD() int
}
