package format

// Alignment utilities for storage growth.

// PageAlignmentMask is PageSize-1.
const PageAlignmentMask = PageSize - 1

// AlignPage returns n aligned up to the next 4KB (4096-byte) boundary.
// Storage regions are always grown to a whole number of pages.
//
// Example:
//
//	AlignPage(1)    = 4096
//	AlignPage(4096) = 4096
//	AlignPage(4097) = 8192
func AlignPage(n int64) int64 {
	return (n + PageAlignmentMask) &^ PageAlignmentMask
}
