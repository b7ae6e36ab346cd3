package format

import (
	"bytes"
	"fmt"

	"github.com/joshuapare/heapkit/internal/buf"
)

// Preamble captures the file-level header that precedes the logical address
// space of a file-backed heap.
//
//	Offset  Size  Description
//	------  ----  ----------------------------------------------------------
//	 0x000   4    'H' 'P' 'K' 'T'
//	 0x004   4    Layout version
//	 0x008   4    Flags (bit 0 = version marker present)
//	 0x00C   8    Version marker
//	 0x014   8    Logical size of the address space
type Preamble struct {
	Layout    uint32
	Versioned bool
	Version   uint64
	Size      uint64
}

// ParsePreamble validates and extracts the preamble fields.
func ParsePreamble(b []byte) (Preamble, error) {
	if len(b) < PreambleSize {
		return Preamble{}, fmt.Errorf("preamble: %w", ErrTruncated)
	}
	if !bytes.Equal(b[:len(PreambleMagic)], PreambleMagic) {
		return Preamble{}, fmt.Errorf("preamble: %w", ErrSignatureMismatch)
	}
	layout := buf.U32LE(b[PreambleLayoutOffset:])
	if layout != LayoutVersion {
		return Preamble{}, fmt.Errorf("preamble: layout %d: %w", layout, ErrLayoutVersion)
	}
	flags := buf.U32LE(b[PreambleFlagsOffset:])
	return Preamble{
		Layout:    layout,
		Versioned: flags&PreambleFlagVersioned != 0,
		Version:   buf.U64LE(b[PreambleVersionOffset:]),
		Size:      buf.U64LE(b[PreambleSizeOffset:]),
	}, nil
}

// PutPreamble encodes p into the first PreambleSize bytes of b.
func PutPreamble(b []byte, p Preamble) {
	copy(b[PreambleMagicOffset:], PreambleMagic)
	PutU32(b, PreambleLayoutOffset, p.Layout)
	var flags uint32
	if p.Versioned {
		flags |= PreambleFlagVersioned
	}
	PutU32(b, PreambleFlagsOffset, flags)
	PutU64(b, PreambleVersionOffset, p.Version)
	PutU64(b, PreambleSizeOffset, p.Size)
}
