package format

import "encoding/binary"

// Binary encoding utilities for little-endian integers.
//
// Implementation: Uses encoding/binary.LittleEndian. Pointers are stored in
// six bytes, which encoding/binary has no helper for, so PutU48/ReadU48 pack
// them by hand.

// PutU32 writes a uint32 value to the buffer at the specified offset in little-endian format.
func PutU32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}

// PutI32 writes an int32 value to the buffer at the specified offset in little-endian format.
func PutI32(b []byte, off int, v int32) {
	binary.LittleEndian.PutUint32(b[off:off+4], uint32(v))
}

// PutU64 writes a uint64 value to the buffer at the specified offset in little-endian format.
func PutU64(b []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(b[off:off+8], v)
}

// PutU48 writes the low 48 bits of v at the specified offset in little-endian format.
func PutU48(b []byte, off int, v uint64) {
	_ = b[off+5]
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
	b[off+2] = byte(v >> 16)
	b[off+3] = byte(v >> 24)
	b[off+4] = byte(v >> 32)
	b[off+5] = byte(v >> 40)
}

// ReadU32 reads a uint32 value from the buffer at the specified offset in little-endian format.
func ReadU32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}

// ReadI32 reads an int32 value from the buffer at the specified offset in little-endian format.
func ReadI32(b []byte, off int) int32 {
	return int32(binary.LittleEndian.Uint32(b[off : off+4]))
}

// ReadU48 reads a 48-bit little-endian value from the buffer at the specified offset.
func ReadU48(b []byte, off int) uint64 {
	_ = b[off+5]
	return uint64(b[off]) |
		uint64(b[off+1])<<8 |
		uint64(b[off+2])<<16 |
		uint64(b[off+3])<<24 |
		uint64(b[off+4])<<32 |
		uint64(b[off+5])<<40
}
