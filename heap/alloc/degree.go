package alloc

import (
	"math/bits"

	"github.com/joshuapare/heapkit/internal/format"
)

// Degrees quantize span sizes into size classes: four linear steps per
// power-of-two octave, shifted by 64 so that degree 0 starts at size 0.
//
//	degree:  0   1   2   3   4   5   6    7    8    9 ...
//	size:    0  16  32  48  64  96 128  160  192  256 ...
//
// A degree covers [DegreeToSize(d), DegreeToSize(d+1)), so internal waste of a
// bucket is bounded by a quarter of its octave.

const degreeBias = 64

// DegreeToSize returns the smallest size belonging to degree d, or -1 for a
// negative degree (the unbounded sentinel).
func DegreeToSize(d int) int64 {
	if d < 0 {
		return -1
	}
	octave := uint(d >> 2)
	return (degreeBias << octave) + (16<<octave)*int64(d&3) - degreeBias
}

// SizeToDegree returns the degree whose range contains size, or -1 for a
// negative size (the unbounded sentinel).
func SizeToDegree(size int64) int {
	if size < 0 {
		return -1
	}
	v := uint64(size) + degreeBias
	msb := bits.Len64(v) - 1 // >= 6
	octave := msb - 6
	step := uint64(16) << uint(octave)
	sub := (v - uint64(degreeBias)<<uint(octave)) / step
	return octave<<2 + int(sub)
}

// maxDegree is the largest degree a bounded span can have.
const maxDegree = format.SpanDegreeAmount - 1
