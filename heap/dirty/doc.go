// Package dirty provides byte-range dirty tracking for memory-mapped heap files.
//
// # Overview
//
// File-backed storage writes straight into a shared mapping. The tracker records
// which ranges were written so that a flush only msyncs the pages that changed,
// followed by the preamble page and an fdatasync of the file descriptor.
//
// # Usage
//
//	tracker := dirty.NewTracker(region)
//
//	// After writing 128 bytes at file offset 0x5000
//	tracker.Add(0x5000, 128)
//
//	// Persist data pages, then the preamble and file metadata
//	if err := tracker.FlushDataOnly(ctx); err != nil {
//	    return err
//	}
//	err := tracker.FlushHeaderAndMeta(ctx, dirty.FlushAuto)
//
// # Page-Level Granularity
//
// Ranges are rounded to 4KB page boundaries and merged at flush time:
//
//	Added: [0x1010+16, 0x1ff0+32, 0x5000+8] → Flushed: [0x1000-0x3000, 0x5000-0x6000]
//
// # Thread Safety
//
// Tracker instances are not thread-safe. The heap is single-writer; callers
// serialize access externally.
package dirty
