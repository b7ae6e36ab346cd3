package buf

import (
	"fmt"
	"math"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// MulOverflowSafe multiplies two non-negative ints, returning ok = false when
// either operand is negative or the product would overflow int.
func MulOverflowSafe(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

// TailSize returns header + count*itemSize, the payload size of a structure
// with a fixed header followed by count fixed-width items. It fails on
// negative inputs, on overflow, and when the result exceeds limit.
//
//	size, err := buf.TailSize(format.ContentHeaderSize, 8, n, math.MaxInt32)
//	if err != nil {
//	    return fmt.Errorf("content: %w", err)
//	}
func TailSize(header, itemSize, count, limit int) (int, error) {
	if header < 0 {
		return 0, fmt.Errorf("negative header size: %d", header)
	}
	if count < 0 {
		return 0, fmt.Errorf("negative count: %d", count)
	}
	if itemSize < 0 {
		return 0, fmt.Errorf("negative item size: %d", itemSize)
	}
	items, ok := MulOverflowSafe(count, itemSize)
	if !ok {
		return 0, fmt.Errorf("overflow: count=%d * itemSize=%d", count, itemSize)
	}
	total, ok := AddOverflowSafe(header, items)
	if !ok {
		return 0, fmt.Errorf("overflow: header=%d + items=%d", header, items)
	}
	if total > limit {
		return 0, fmt.Errorf("bounds: size=%d > limit=%d", total, limit)
	}
	return total, nil
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > len(b) {
		return nil, false
	}
	return b[off:end], true
}

// Has reports whether b[off:off+n] is within bounds.
func Has(b []byte, off, n int) bool {
	_, ok := Slice(b, off, n)
	return ok
}
