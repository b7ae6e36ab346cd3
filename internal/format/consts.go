// Package format houses the persisted layout of a heapkit storage region: the
// storage header, span and alloc headers, tree node and content buffer fields.
// Offsets are byte positions relative to the start of the structure they
// describe. All integers are little-endian; pointers are 48-bit.
package format

// PreambleMagic is the four-byte signature at the start of every heap file.
// Layout (little-endian):
//
//	0x00  'H' 'P' 'K' 'T'
var PreambleMagic = []byte{'H', 'P', 'K', 'T'}

const (
	// PointerSize is the width of a persisted pointer. Six bytes give a 2^48
	// address space.
	PointerSize = 6

	// MaxPointer is the largest address a persisted pointer can hold.
	MaxPointer = 1<<(8*PointerSize) - 1

	// PageSize is the growth and flush granularity of file-backed storage.
	PageSize = 0x1000
)

// File preamble. The logical address space of a file starts at PreambleSize.
const (
	PreambleSize          = PageSize
	PreambleMagicOffset   = 0x00
	PreambleLayoutOffset  = 0x04 // u32 layout version
	PreambleFlagsOffset   = 0x08 // u32, bit 0 = version marker present
	PreambleVersionOffset = 0x0C // u64 version marker
	PreambleSizeOffset    = 0x14 // u64 logical size

	// LayoutVersion is bumped whenever any persisted offset below changes.
	LayoutVersion = 1

	// PreambleFlagVersioned marks that MarkVersion has been called at least once.
	PreambleFlagVersioned = 1
)

// Storage header at logical offset 0.
const (
	// SpanDegreeAmount is the number of free-list buckets. Four degrees per
	// power-of-two octave, 42 octaves cover every 48-bit size. Span sizes are
	// int32, so only degrees up to SizeToDegree(MaxInt32) (which fits the int8
	// degree field) are ever used; the higher heads stay null and keep the
	// header at a fixed 1014 bytes.
	SpanDegreeAmount = 168

	// FreeTableOffset is where the first free-list head lives.
	FreeTableOffset = 0

	// TrailingSpanOffset holds the pointer to the unbounded trailing span.
	TrailingSpanOffset = FreeTableOffset + SpanDegreeAmount*PointerSize

	// StorageHeaderSize is the size of the storage header. The first span
	// starts right after it.
	StorageHeaderSize = TrailingSpanOffset + PointerSize
)

// Span header, present in front of every free span and every alloc.
const (
	SpanPrevNeighborOffset = 0x00 // u48
	SpanNextNeighborOffset = 0x06 // u48
	SpanSizeOffset         = 0x0C // i32, -1 = unbounded
	SpanDegreeOffset       = 0x10 // i8, -1 = unbounded or in use
	SpanEmptyOffset        = 0x11 // u8, 1 = free
	SpanHeaderSize         = 0x12

	// Free spans keep their degree list links at the front of the payload.
	SpanPrevDegreeOffset = SpanHeaderSize + 0x00 // u48
	SpanNextDegreeOffset = SpanHeaderSize + 0x06 // u48
	SpanFreeLinksSize    = 2 * PointerSize

	// MinSpanPayload is the smallest payload a span may have, so that it can
	// hold its degree links once freed.
	MinSpanPayload = SpanFreeLinksSize
)

// Alloc header, overlaying the start of a used span's payload.
const (
	AllocTypeOffset = SpanHeaderSize + 0x00 // u8
	AllocSizeOffset = SpanHeaderSize + 0x01 // i32, payload bytes
	AllocHeaderSize = 0x05

	// AllocPayloadOffset is the distance from an alloc pointer to its payload.
	AllocPayloadOffset = SpanHeaderSize + AllocHeaderSize
)

// Tree node payload.
const (
	NodeLeftOffset    = 0x00 // u48
	NodeRightOffset   = 0x06 // u48
	NodeParentOffset  = 0x0C // u48
	NodeDepthOffset   = 0x12 // u8
	NodeLengthOffset  = 0x13 // u48
	NodeContentOffset = 0x19 // u48
	NodeSize          = 0x1F

	// NodeBranchesSize covers the fields rewritten by tree mechanics.
	NodeBranchesSize = NodeContentOffset
)

// Tree root anchor payload.
const (
	RootChildOffset = 0x00 // u48
	RootSize        = PointerSize
)

// Content buffer payload. Items follow the fixed header.
const (
	ContentParentOffset = 0x00 // u48
	ContentCountOffset  = 0x06 // u32
	ContentHeaderSize   = 0x0A
)
