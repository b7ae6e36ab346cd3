package dirty

import (
	"context"
	"sort"
)

const (
	// defaultRangeCapacity is the pre-allocated capacity for dirty ranges.
	defaultRangeCapacity = 64

	// standardPageSize is the typical OS page size (4KB).
	standardPageSize = 4096
)

// FlushMode controls durability guarantees for a flush.
type FlushMode int

const (
	// FlushAuto provides safe defaults for most use cases:
	// - msync() the preamble page
	// - fdatasync() the file (F_FULLFSYNC is not used on macOS)
	FlushAuto FlushMode = iota

	// FlushDataOnly only msyncs the preamble page.
	// The caller is responsible for syncing the descriptor later.
	FlushDataOnly

	// FlushFull is FlushAuto plus F_FULLFSYNC on macOS.
	// Use this for power-loss sensitive workflows.
	FlushFull
)

// Range represents a dirty byte range (absolute file offsets).
type Range struct {
	Off int64 // Absolute offset in file
	Len int64 // Length in bytes
}

// Tracker accumulates dirty ranges and flushes them efficiently.
//
// NOT thread-safe. Only one goroutine should use it at a time.
type Tracker struct {
	r        Region
	ranges   []Range // Dirty data ranges (coalesced at flush time)
	pageSize int64
}

// NewTracker creates a dirty tracker for the given region.
func NewTracker(r Region) *Tracker {
	return &Tracker{
		r:        r,
		ranges:   make([]Range, 0, defaultRangeCapacity),
		pageSize: standardPageSize,
	}
}

// Add records a dirty range.
//
// The range is page-aligned and coalesced with other ranges at flush time, so
// this only appends to a slice.
func (t *Tracker) Add(off, length int) {
	if length <= 0 {
		return
	}
	t.ranges = append(t.ranges, Range{
		Off: int64(off),
		Len: int64(length),
	})
}

// Pending returns the number of uncoalesced ranges recorded since the last flush.
func (t *Tracker) Pending() int {
	return len(t.ranges)
}

// FlushDataOnly flushes all dirty data ranges (not the preamble page) to disk.
//
// This method:
//  1. Coalesces all ranges into page-aligned, non-overlapping ranges
//  2. Flushes each range using msync()
//  3. Clears the ranges slice
//
// The context is checked between ranges. If cancelled, some ranges may have
// been flushed while others have not; the pending set is kept so a later
// flush retries all of them.
func (t *Tracker) FlushDataOnly(ctx context.Context) error {
	if len(t.ranges) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data := t.r.Bytes()
	if len(data) == 0 {
		return nil
	}

	if err := t.flushRanges(ctx, data); err != nil {
		return err
	}

	t.ranges = t.ranges[:0]
	return nil
}

// FlushHeaderAndMeta flushes the preamble page and optionally syncs the file descriptor.
//
// This method:
//  1. Flushes the first page using msync()
//  2. Calls fdatasync() unless mode is FlushDataOnly
func (t *Tracker) FlushHeaderAndMeta(ctx context.Context, mode FlushMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data := t.r.Bytes()
	if len(data) == 0 {
		return nil
	}

	headerLen := min(int(t.pageSize), len(data))
	if err := msync(data[:headerLen]); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if mode == FlushDataOnly {
		return nil
	}

	fd := t.r.FD()
	if fd < 0 {
		return nil
	}
	return fdatasync(fd, mode == FlushFull)
}

// Reset clears all tracked ranges.
func (t *Tracker) Reset() {
	t.ranges = t.ranges[:0]
}

// DebugRanges returns a copy of the raw, uncoalesced ranges.
func (t *Tracker) DebugRanges() []Range {
	result := make([]Range, len(t.ranges))
	copy(result, t.ranges)
	return result
}

// DebugCoalescedRanges returns the page-aligned, sorted, merged ranges that
// the next flush will write.
func (t *Tracker) DebugCoalescedRanges() []Range {
	return t.coalesce()
}

// coalesce page-aligns all ranges, sorts them, and merges overlapping/adjacent ranges.
func (t *Tracker) coalesce() []Range {
	if len(t.ranges) == 0 {
		return nil
	}

	aligned := make([]Range, len(t.ranges))
	for i, r := range t.ranges {
		start := (r.Off / t.pageSize) * t.pageSize

		end := r.Off + r.Len
		if end%t.pageSize != 0 {
			end = ((end / t.pageSize) + 1) * t.pageSize
		}

		aligned[i] = Range{
			Off: start,
			Len: end - start,
		}
	}

	sort.Slice(aligned, func(i, j int) bool {
		return aligned[i].Off < aligned[j].Off
	})

	merged := make([]Range, 0, len(aligned))
	current := aligned[0]

	for _, next := range aligned[1:] {
		if next.Off <= current.Off+current.Len {
			end := max(current.Off+current.Len, next.Off+next.Len)
			current.Len = end - current.Off
		} else {
			merged = append(merged, current)
			current = next
		}
	}

	return append(merged, current)
}
