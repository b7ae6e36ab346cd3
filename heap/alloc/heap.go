package alloc

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/joshuapare/heapkit/heap/storage"
	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
	"github.com/joshuapare/heapkit/internal/logger"
)

// Runtime debug flag for allocation logging - controlled by HEAPKIT_LOG_ALLOC env var.
var logAlloc = os.Getenv("HEAPKIT_LOG_ALLOC") != ""

// MaxAllocSize is the largest payload a single alloc can carry.
const MaxAllocSize = math.MaxInt32 - format.AllocHeaderSize

// Heap is a span allocator living inside a Storage region.
//
// The free-list heads and the trailing span pointer are cached in memory and
// written through to the storage header on every change. After a storage
// error the cache may be stale; reload the heap with Load before reusing it.
//
// A Heap is not safe for concurrent use. Callers serialize every operation on
// a heap and on the trees stored in it.
type Heap struct {
	st  storage.Storage
	cfg Config

	free     [format.SpanDegreeAmount]Ptr
	trailing Ptr

	stats Stats
}

// Stats holds allocator counters for instrumentation and tests.
type Stats struct {
	Allocs        int   // CreateAlloc calls that succeeded
	Frees         int   // DeleteAlloc calls that succeeded
	Splits        int   // spans split to fit an alloc
	MergeBackward int   // frees absorbing the previous span
	MergeForward  int   // frees absorbing the next span
	Grows         int   // storage growths
	GrowBytes     int64 // bytes added by growth
	BucketHits    int   // allocs served from a degree bucket
	TrailingHits  int   // allocs served from the trailing span
}

// Create initializes an empty heap in st, overwriting any storage header
// already there. A nil cfg selects DefaultConfig.
func Create(st storage.Storage, cfg *Config) (*Heap, error) {
	h := newHeap(st, cfg)
	first := Ptr(format.StorageHeaderSize)
	if err := h.ensure(int64(first) + format.SpanHeaderSize); err != nil {
		return nil, err
	}
	var hdr [format.StorageHeaderSize]byte
	if err := h.WriteAt(hdr[:], 0); err != nil {
		return nil, fmt.Errorf("alloc: clear storage header: %w", err)
	}
	if err := h.writeSpan(first, span{size: -1, degree: -1, empty: true}); err != nil {
		return nil, err
	}
	if err := h.setTrailing(first); err != nil {
		return nil, err
	}
	if logAlloc {
		logger.Debug("alloc: created heap", "trailing", first, "storage", st.Size())
	}
	return h, nil
}

// Load attaches to a heap previously initialized by Create, rebuilding the
// in-memory free-list cache from the storage header.
func Load(st storage.Storage, cfg *Config) (*Heap, error) {
	h := newHeap(st, cfg)
	if st.Size() < format.StorageHeaderSize+format.SpanHeaderSize {
		return nil, fmt.Errorf("alloc: storage of %d bytes holds no heap: %w", st.Size(), ErrCorrupt)
	}
	var hdr [format.StorageHeaderSize]byte
	if err := h.ReadAt(hdr[:], 0); err != nil {
		return nil, fmt.Errorf("alloc: read storage header: %w", err)
	}
	for d := range h.free {
		h.free[d] = Ptr(format.ReadU48(hdr[:], format.FreeTableOffset+d*format.PointerSize))
	}
	h.trailing = Ptr(format.ReadU48(hdr[:], format.TrailingSpanOffset))
	if !h.inRange(h.trailing) {
		return nil, fmt.Errorf("alloc: trailing span %s out of range: %w", h.trailing, ErrCorrupt)
	}
	return h, nil
}

func newHeap(st storage.Storage, cfg *Config) *Heap {
	c := DefaultConfig
	if cfg != nil {
		c = *cfg
	}
	return &Heap{st: st, cfg: c.normalized()}
}

// Storage returns the storage the heap lives in.
func (h *Heap) Storage() storage.Storage { return h.st }

// Config returns the effective allocator configuration.
func (h *Heap) Config() Config { return h.cfg }

// Stats returns a snapshot of the allocator counters.
func (h *Heap) Stats() Stats { return h.stats }

// Trailing returns the address of the unbounded trailing span.
func (h *Heap) Trailing() Ptr { return h.trailing }

// CreateAlloc carves an alloc with a payload of size bytes, tagged with typ.
// The payload content is unspecified; callers initialize it.
func (h *Heap) CreateAlloc(typ Type, size int) (Ptr, error) {
	if size < 0 || size > MaxAllocSize {
		return Null, fmt.Errorf("alloc: size %d: %w", size, ErrBadSize)
	}
	used := format.AllocHeaderSize + size
	if used < format.MinSpanPayload {
		used = format.MinSpanPayload
	}

	p, s, err := h.findFree(used)
	if err != nil {
		return Null, err
	}
	if s.unbounded() {
		h.stats.TrailingHits++
	} else {
		h.stats.BucketHits++
		if err := h.unlinkDegree(p, int(s.degree)); err != nil {
			return Null, err
		}
	}

	splitAt := p.Add(format.SpanHeaderSize + used)
	switch {
	case s.unbounded():
		if err := h.ensure(int64(splitAt) + format.SpanHeaderSize); err != nil {
			return Null, err
		}
		if err := h.writeSpan(splitAt, span{prev: p, size: -1, degree: -1, empty: true}); err != nil {
			return Null, err
		}
		if err := h.setTrailing(splitAt); err != nil {
			return Null, err
		}
		s.next = splitAt
		s.size = int32(used)
		h.stats.Splits++
	case int(s.size)-used >= h.cfg.MinimumSpanSplitSize:
		rest := int32(int(s.size) - used - format.SpanHeaderSize)
		d := bucketOf(rest)
		if err := h.writeSpan(splitAt, span{prev: p, next: s.next, size: rest, degree: int8(d), empty: true}); err != nil {
			return Null, err
		}
		if s.next != Null {
			if err := h.setPrevNeighbor(s.next, splitAt); err != nil {
				return Null, err
			}
		}
		if err := h.pushDegree(splitAt, d); err != nil {
			return Null, err
		}
		s.next = splitAt
		s.size = int32(used)
		h.stats.Splits++
	}

	s.degree = -1
	s.empty = false
	var b [format.AllocPayloadOffset]byte
	s.encode(b[:])
	b[format.AllocTypeOffset] = byte(typ)
	format.PutI32(b[:], format.AllocSizeOffset, int32(size))
	if err := h.WriteAt(b[:], p); err != nil {
		return Null, fmt.Errorf("alloc: write alloc header %s: %w", p, err)
	}
	h.stats.Allocs++
	if logAlloc {
		logger.Debug("alloc: create", "ptr", p, "type", typ, "size", size, "span", s.size)
	}
	return p, nil
}

// CreateFixed allocates a payload holding exactly init.
func (h *Heap) CreateFixed(typ Type, init []byte) (Ptr, error) {
	p, err := h.CreateAlloc(typ, len(init))
	if err != nil {
		return Null, err
	}
	if err := h.WriteAt(init, p.Payload()); err != nil {
		return Null, err
	}
	return p, nil
}

// CreateTail allocates a payload made of header followed by room for n items
// of itemSize bytes each. Only the header is written.
func (h *Heap) CreateTail(typ Type, header []byte, itemSize, n int) (Ptr, error) {
	size, err := buf.TailSize(len(header), itemSize, n, MaxAllocSize)
	if err != nil {
		return Null, fmt.Errorf("alloc: tail of %d items: %w: %w", n, ErrBadSize, err)
	}
	p, err := h.CreateAlloc(typ, size)
	if err != nil {
		return Null, err
	}
	if err := h.WriteAt(header, p.Payload()); err != nil {
		return Null, err
	}
	return p, nil
}

// DeleteAlloc returns the alloc at p to the free space, merging it with free
// physical neighbors.
func (h *Heap) DeleteAlloc(p Ptr) error {
	if p == Null {
		return ErrNullPointer
	}
	if !h.inRange(p) {
		return fmt.Errorf("alloc: free %s: %w", p, ErrBadPointer)
	}
	s, err := h.readSpan(p)
	if err != nil {
		return err
	}
	if s.empty {
		return fmt.Errorf("alloc: free %s: %w", p, ErrDoubleFree)
	}
	if s.unbounded() || s.degree != -1 {
		return fmt.Errorf("alloc: free %s: %w", p, ErrBadPointer)
	}

	start := p
	merged := span{prev: s.prev, next: s.next, size: s.size, empty: true}

	if s.prev != Null {
		ps, err := h.readSpan(s.prev)
		if err != nil {
			return err
		}
		if ps.empty && !ps.unbounded() && fits(ps.size, merged.size) {
			if err := h.unlinkDegree(s.prev, int(ps.degree)); err != nil {
				return err
			}
			start = s.prev
			merged.prev = ps.prev
			merged.size += ps.size + format.SpanHeaderSize
			h.stats.MergeBackward++
		}
	}

	if s.next != Null {
		ns, err := h.readSpan(s.next)
		if err != nil {
			return err
		}
		switch {
		case ns.empty && ns.unbounded():
			merged.next = Null
			merged.size = -1
			h.stats.MergeForward++
		case ns.empty && fits(ns.size, merged.size):
			if err := h.unlinkDegree(s.next, int(ns.degree)); err != nil {
				return err
			}
			merged.next = ns.next
			merged.size += ns.size + format.SpanHeaderSize
			h.stats.MergeForward++
		}
	}

	if merged.unbounded() {
		merged.degree = -1
		if err := h.writeSpan(start, merged); err != nil {
			return err
		}
		if err := h.setTrailing(start); err != nil {
			return err
		}
	} else {
		d := bucketOf(merged.size)
		merged.degree = int8(d)
		if err := h.writeSpan(start, merged); err != nil {
			return err
		}
		if merged.next != Null {
			if err := h.setPrevNeighbor(merged.next, start); err != nil {
				return err
			}
		}
		if err := h.pushDegree(start, d); err != nil {
			return err
		}
	}
	h.stats.Frees++
	if logAlloc {
		logger.Debug("alloc: delete", "ptr", p, "span", start, "size", merged.size)
	}
	return nil
}

// fits reports whether two spans plus one header still fit a span size field.
func fits(a, b int32) bool {
	return int64(a)+int64(b)+format.SpanHeaderSize <= math.MaxInt32
}

func bucketOf(size int32) int {
	d := SizeToDegree(int64(size))
	if d > maxDegree {
		d = maxDegree
	}
	return d
}

// findFree picks the span that will host an alloc of used bytes: a fitting
// span from the first candidate bucket, else the head of the next non-empty
// bucket, else the trailing span.
func (h *Heap) findFree(used int) (Ptr, span, error) {
	first := bucketOf(int32(used))
	for p := h.free[first]; p != Null; {
		s, err := h.readSpan(p)
		if err != nil {
			return Null, span{}, err
		}
		if int(s.size) >= used {
			return p, s, nil
		}
		l, err := h.readLinks(p)
		if err != nil {
			return Null, span{}, err
		}
		p = l.next
	}
	for d := first + 1; d < format.SpanDegreeAmount; d++ {
		if p := h.free[d]; p != Null {
			s, err := h.readSpan(p)
			if err != nil {
				return Null, span{}, err
			}
			return p, s, nil
		}
	}
	s, err := h.readSpan(h.trailing)
	if err != nil {
		return Null, span{}, err
	}
	if !s.unbounded() || !s.empty {
		return Null, span{}, fmt.Errorf("alloc: trailing span %s is not free and unbounded: %w", h.trailing, ErrCorrupt)
	}
	return h.trailing, s, nil
}

// ensure grows storage so that [0, end) is addressable.
func (h *Heap) ensure(end int64) error {
	cur := h.st.Size()
	if end <= cur {
		return nil
	}
	if end > storage.MaxSize {
		return fmt.Errorf("alloc: grow to %d: %w", end, ErrNoSpace)
	}
	target := max(end, int64(float64(cur)*h.cfg.GrowthFactor))
	target = min(format.AlignPage(target), storage.MaxSize)
	if err := h.st.SetSize(target); err != nil {
		return fmt.Errorf("alloc: grow to %d: %w", target, err)
	}
	h.stats.Grows++
	h.stats.GrowBytes += target - cur
	if logAlloc {
		logger.Debug("alloc: grow", "from", cur, "to", target, "need", end)
	}
	return nil
}

// Trim shrinks storage to the page holding the end of the trailing span header.
func (h *Heap) Trim() error {
	end := format.AlignPage(int64(h.trailing) + format.SpanHeaderSize)
	if end >= h.st.Size() {
		return nil
	}
	if err := h.st.SetSize(end); err != nil {
		return fmt.Errorf("alloc: trim to %d: %w", end, err)
	}
	if logAlloc {
		logger.Debug("alloc: trim", "to", end)
	}
	return nil
}

// Header is the decoded alloc header at an alloc pointer.
type Header struct {
	Type Type
	Size int // payload bytes requested
	Span int // payload bytes of the hosting span, at least Size+5
}

// Header reads the alloc header at p.
func (h *Heap) Header(p Ptr) (Header, error) {
	if p == Null {
		return Header{}, ErrNullPointer
	}
	if !h.inRange(p) {
		return Header{}, fmt.Errorf("alloc: %s: %w", p, ErrBadPointer)
	}
	var b [format.AllocPayloadOffset]byte
	if err := h.ReadAt(b[:], p); err != nil {
		return Header{}, err
	}
	s := decodeSpan(b[:])
	if s.empty || s.unbounded() {
		return Header{}, fmt.Errorf("alloc: %s is not an alloc: %w", p, ErrBadPointer)
	}
	return Header{
		Type: Type(b[format.AllocTypeOffset]),
		Size: int(format.ReadI32(b[:], format.AllocSizeOffset)),
		Span: int(s.size),
	}, nil
}

// Type returns the type tag of the alloc at p.
func (h *Heap) Type(p Ptr) (Type, error) {
	hd, err := h.Header(p)
	return hd.Type, err
}

// Size returns the payload size of the alloc at p.
func (h *Heap) Size(p Ptr) (int, error) {
	hd, err := h.Header(p)
	return hd.Size, err
}

// Expect checks that p is a live alloc tagged with t.
func (h *Heap) Expect(p Ptr, t Type) (Header, error) {
	hd, err := h.Header(p)
	if err != nil {
		return hd, err
	}
	if hd.Type != t {
		return hd, fmt.Errorf("alloc: %s is %s, want %s: %w", p, hd.Type, t, ErrTypeMismatch)
	}
	return hd, nil
}

// ReadAt fills b from address p.
func (h *Heap) ReadAt(b []byte, p Ptr) error {
	if _, err := h.st.ReadAt(b, int64(p)); err != nil {
		return fmt.Errorf("alloc: read %d bytes at %s: %w", len(b), p, err)
	}
	return nil
}

// WriteAt stores b at address p.
func (h *Heap) WriteAt(b []byte, p Ptr) error {
	if _, err := h.st.WriteAt(b, int64(p)); err != nil {
		return fmt.Errorf("alloc: write %d bytes at %s: %w", len(b), p, err)
	}
	return nil
}

// ReadPtr reads the pointer stored at address p.
func (h *Heap) ReadPtr(p Ptr) (Ptr, error) {
	var b [format.PointerSize]byte
	if err := h.ReadAt(b[:], p); err != nil {
		return Null, err
	}
	return Ptr(format.ReadU48(b[:], 0)), nil
}

// WritePtr stores v at address p.
func (h *Heap) WritePtr(p, v Ptr) error {
	if v > format.MaxPointer {
		return fmt.Errorf("alloc: pointer %s exceeds 48 bits: %w", v, ErrBadPointer)
	}
	var b [format.PointerSize]byte
	format.PutU48(b[:], 0, uint64(v))
	return h.WriteAt(b[:], p)
}

// ReadPayload fills b from offset off of the payload of the alloc at p.
func (h *Heap) ReadPayload(p Ptr, off int, b []byte) error {
	if p == Null {
		return ErrNullPointer
	}
	return h.ReadAt(b, p.Payload().Add(off))
}

// WritePayload stores b at offset off of the payload of the alloc at p.
func (h *Heap) WritePayload(p Ptr, off int, b []byte) error {
	if p == Null {
		return ErrNullPointer
	}
	return h.WriteAt(b, p.Payload().Add(off))
}

// inRange reports whether a span header at p lies inside the heap area.
func (h *Heap) inRange(p Ptr) bool {
	return p >= format.StorageHeaderSize && int64(p)+format.SpanHeaderSize <= h.st.Size()
}

// IsCorrupt reports whether err signals a broken heap rather than a caller mistake.
func IsCorrupt(err error) bool {
	var inv *InvariantError
	return errors.Is(err, ErrCorrupt) || errors.As(err, &inv)
}
