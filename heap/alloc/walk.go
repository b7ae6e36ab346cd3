package alloc

import (
	"errors"
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
)

// SpanInfo describes one span visited by Walk.
type SpanInfo struct {
	Addr   Ptr
	Prev   Ptr
	Next   Ptr
	Size   int64 // payload bytes, -1 for the trailing span
	Degree int
	Free   bool

	// Set for allocs only.
	Type      Type
	AllocSize int
}

// ErrStopWalk can be returned by a Walk callback to end the walk early
// without error.
var ErrStopWalk = errors.New("alloc: stop walk")

// Walk visits every span in address order, from the first span after the
// storage header to the trailing span.
func (h *Heap) Walk(fn func(SpanInfo) error) error {
	limit := h.st.Size() / format.SpanHeaderSize
	p := Ptr(format.StorageHeaderSize)
	for n := int64(0); p != Null; n++ {
		if n > limit {
			return &InvariantError{Addr: p, Msg: "neighbor chain does not terminate"}
		}
		if !h.inRange(p) {
			return &InvariantError{Addr: p, Msg: "span header outside storage"}
		}
		var b [format.AllocPayloadOffset]byte
		hdr := b[:format.SpanHeaderSize]
		if err := h.ReadAt(hdr, p); err != nil {
			return err
		}
		s := decodeSpan(hdr)
		info := SpanInfo{
			Addr:   p,
			Prev:   s.prev,
			Next:   s.next,
			Size:   int64(s.size),
			Degree: int(s.degree),
			Free:   s.empty,
		}
		if !s.empty && !s.unbounded() {
			if err := h.ReadAt(b[:], p); err != nil {
				return err
			}
			info.Type = Type(b[format.AllocTypeOffset])
			info.AllocSize = int(format.ReadI32(b[:], format.AllocSizeOffset))
		}
		if err := fn(info); err != nil {
			if errors.Is(err, ErrStopWalk) {
				return nil
			}
			return err
		}
		p = s.next
	}
	return nil
}

// Verify checks the allocator invariants:
//
//   - spans partition the heap area with no gaps or overlaps, and the
//     neighbor chain links agree in both directions;
//   - every free bounded span sits in exactly the bucket of its degree, and
//     the trailing span is free, unbounded, last and never bucketed;
//   - no two adjacent spans are both free, unless merging them would overflow
//     the span size field;
//   - no used span hosts an alloc larger than itself.
//
// The first violation found is returned as *InvariantError.
func (h *Heap) Verify() error {
	bucketed := make(map[Ptr]int)
	var prev SpanInfo
	first := true
	var last Ptr

	err := h.Walk(func(s SpanInfo) error {
		if first {
			if s.Prev != Null {
				return &InvariantError{Addr: s.Addr, Msg: fmt.Sprintf("first span has previous neighbor %s", s.Prev)}
			}
		} else {
			if s.Prev != prev.Addr {
				return &InvariantError{Addr: s.Addr, Msg: fmt.Sprintf("previous neighbor %s, want %s", s.Prev, prev.Addr)}
			}
			if want := prev.Addr.Add(format.SpanHeaderSize + int(prev.Size)); s.Addr != want {
				return &InvariantError{Addr: prev.Addr, Msg: fmt.Sprintf("next span at %s, want %s", s.Addr, want)}
			}
			if prev.Free && s.Free && (s.Size < 0 || fits(int32(prev.Size), int32(s.Size))) {
				return &InvariantError{Addr: s.Addr, Msg: "adjacent to a free span"}
			}
		}
		first = false

		switch {
		case s.Size < 0:
			if !s.Free || s.Degree != -1 || s.Next != Null {
				return &InvariantError{Addr: s.Addr, Msg: "unbounded span must be free, degreeless and last"}
			}
		case s.Size < format.MinSpanPayload:
			return &InvariantError{Addr: s.Addr, Msg: fmt.Sprintf("span size %d below minimum", s.Size)}
		case s.Free:
			if want := bucketOf(int32(s.Size)); s.Degree != want {
				return &InvariantError{Addr: s.Addr, Msg: fmt.Sprintf("degree %d, want %d", s.Degree, want)}
			}
			bucketed[s.Addr] = s.Degree
		default:
			if s.Degree != -1 {
				return &InvariantError{Addr: s.Addr, Msg: fmt.Sprintf("used span has degree %d", s.Degree)}
			}
			if s.AllocSize < 0 || int64(s.AllocSize)+format.AllocHeaderSize > s.Size {
				return &InvariantError{Addr: s.Addr, Msg: fmt.Sprintf("alloc of %d bytes in span of %d", s.AllocSize, s.Size)}
			}
		}
		prev = s
		last = s.Addr
		return nil
	})
	if err != nil {
		return err
	}
	if prev.Size >= 0 {
		return &InvariantError{Addr: last, Msg: "last span is bounded"}
	}
	if last != h.trailing {
		return &InvariantError{Addr: h.trailing, Msg: fmt.Sprintf("trailing pointer disagrees with last span %s", last)}
	}

	for d, head := range h.free {
		var back Ptr
		for p := head; p != Null; {
			got, ok := bucketed[p]
			if !ok {
				return &InvariantError{Addr: p, Msg: fmt.Sprintf("bucket %d holds a span that is not free", d)}
			}
			if got != d {
				return &InvariantError{Addr: p, Msg: fmt.Sprintf("degree %d span in bucket %d", got, d)}
			}
			delete(bucketed, p)
			l, err := h.readLinks(p)
			if err != nil {
				return err
			}
			if l.prev != back {
				return &InvariantError{Addr: p, Msg: fmt.Sprintf("degree link back to %s, want %s", l.prev, back)}
			}
			back, p = p, l.next
		}
	}
	if len(bucketed) > 0 {
		lost := Null
		for p := range bucketed {
			if lost == Null || p < lost {
				lost = p
			}
		}
		return &InvariantError{Addr: lost, Msg: "free span missing from its bucket"}
	}
	return nil
}

// Usage summarizes how the heap area is divided.
type Usage struct {
	Storage    int64 // bytes of storage
	UsedSpans  int
	UsedBytes  int64 // span payload bytes held by allocs
	FreeSpans  int   // bucketed free spans
	FreeBytes  int64 // payload bytes of bucketed free spans
	Trailing   Ptr
	FreeByDeg  map[int]DegreeUsage
	AllocTypes map[Type]int
}

// DegreeUsage counts the free spans of one degree.
type DegreeUsage struct {
	Spans int
	Bytes int64
}

// Usage walks the heap and reports span occupancy.
func (h *Heap) Usage() (Usage, error) {
	u := Usage{
		Storage:    h.st.Size(),
		Trailing:   h.trailing,
		FreeByDeg:  make(map[int]DegreeUsage),
		AllocTypes: make(map[Type]int),
	}
	err := h.Walk(func(s SpanInfo) error {
		switch {
		case s.Size < 0:
		case s.Free:
			u.FreeSpans++
			u.FreeBytes += s.Size
			du := u.FreeByDeg[s.Degree]
			du.Spans++
			du.Bytes += s.Size
			u.FreeByDeg[s.Degree] = du
		default:
			u.UsedSpans++
			u.UsedBytes += s.Size
			u.AllocTypes[s.Type]++
		}
		return nil
	})
	return u, err
}
