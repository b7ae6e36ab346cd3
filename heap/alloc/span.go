package alloc

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
)

// span is the decoded header in front of every region of the heap.
//
//	Offset  Size  Description
//	------  ----  ----------------------------------------------
//	 0x00    6    previous span by address (null for the first)
//	 0x06    6    next span by address (null for the trailing span)
//	 0x0C    4    payload size, -1 for the unbounded trailing span
//	 0x10    1    degree, -1 when unbounded or in use
//	 0x11    1    1 when free
//
// Free bounded spans continue with their degree list links; allocs continue
// with the alloc header (type, size).
type span struct {
	prev   Ptr
	next   Ptr
	size   int32
	degree int8
	empty  bool
}

func (s span) unbounded() bool { return s.size < 0 }

func decodeSpan(b []byte) span {
	return span{
		prev:   Ptr(format.ReadU48(b, format.SpanPrevNeighborOffset)),
		next:   Ptr(format.ReadU48(b, format.SpanNextNeighborOffset)),
		size:   format.ReadI32(b, format.SpanSizeOffset),
		degree: int8(b[format.SpanDegreeOffset]),
		empty:  b[format.SpanEmptyOffset] != 0,
	}
}

func (s span) encode(b []byte) {
	format.PutU48(b, format.SpanPrevNeighborOffset, uint64(s.prev))
	format.PutU48(b, format.SpanNextNeighborOffset, uint64(s.next))
	format.PutI32(b, format.SpanSizeOffset, s.size)
	b[format.SpanDegreeOffset] = byte(s.degree)
	if s.empty {
		b[format.SpanEmptyOffset] = 1
	} else {
		b[format.SpanEmptyOffset] = 0
	}
}

// degreeLinks are the free-list pointers stored at the front of a free span's payload.
type degreeLinks struct {
	prev Ptr
	next Ptr
}

func (h *Heap) readSpan(p Ptr) (span, error) {
	var b [format.SpanHeaderSize]byte
	if err := h.ReadAt(b[:], p); err != nil {
		return span{}, fmt.Errorf("read span %s: %w", p, err)
	}
	return decodeSpan(b[:]), nil
}

func (h *Heap) writeSpan(p Ptr, s span) error {
	var b [format.SpanHeaderSize]byte
	s.encode(b[:])
	if err := h.WriteAt(b[:], p); err != nil {
		return fmt.Errorf("write span %s: %w", p, err)
	}
	return nil
}

func (h *Heap) readLinks(p Ptr) (degreeLinks, error) {
	var b [format.SpanFreeLinksSize]byte
	if err := h.ReadAt(b[:], p.Add(format.SpanPrevDegreeOffset)); err != nil {
		return degreeLinks{}, fmt.Errorf("read degree links %s: %w", p, err)
	}
	return degreeLinks{
		prev: Ptr(format.ReadU48(b[:], 0)),
		next: Ptr(format.ReadU48(b[:], format.PointerSize)),
	}, nil
}

func (h *Heap) writeLinks(p Ptr, l degreeLinks) error {
	var b [format.SpanFreeLinksSize]byte
	format.PutU48(b[:], 0, uint64(l.prev))
	format.PutU48(b[:], format.PointerSize, uint64(l.next))
	return h.WriteAt(b[:], p.Add(format.SpanPrevDegreeOffset))
}

// setPrevNeighbor repoints the previous-by-address link of the span at p.
func (h *Heap) setPrevNeighbor(p, prev Ptr) error {
	return h.WritePtr(p.Add(format.SpanPrevNeighborOffset), prev)
}

// pushDegree links the free span at p at the head of bucket d.
func (h *Heap) pushDegree(p Ptr, d int) error {
	head := h.free[d]
	if err := h.writeLinks(p, degreeLinks{next: head}); err != nil {
		return err
	}
	if head != Null {
		if err := h.WritePtr(head.Add(format.SpanPrevDegreeOffset), p); err != nil {
			return err
		}
	}
	return h.setFreeHead(d, p)
}

// unlinkDegree removes the free span at p from bucket d.
func (h *Heap) unlinkDegree(p Ptr, d int) error {
	l, err := h.readLinks(p)
	if err != nil {
		return err
	}
	if l.prev != Null {
		if err := h.WritePtr(l.prev.Add(format.SpanNextDegreeOffset), l.next); err != nil {
			return err
		}
	} else {
		if h.free[d] != p {
			return fmt.Errorf("unlink %s: not head of degree %d: %w", p, d, ErrCorrupt)
		}
		if err := h.setFreeHead(d, l.next); err != nil {
			return err
		}
	}
	if l.next != Null {
		if err := h.WritePtr(l.next.Add(format.SpanPrevDegreeOffset), l.prev); err != nil {
			return err
		}
	}
	return nil
}

func (h *Heap) setFreeHead(d int, p Ptr) error {
	h.free[d] = p
	return h.WritePtr(Ptr(format.FreeTableOffset+d*format.PointerSize), p)
}

func (h *Heap) setTrailing(p Ptr) error {
	h.trailing = p
	return h.WritePtr(Ptr(format.TrailingSpanOffset), p)
}
