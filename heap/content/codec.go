package content

import (
	"encoding/binary"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/internal/format"
)

// Codec encodes items of type T into exactly Size bytes.
type Codec[T any] struct {
	Size   int
	Encode func(b []byte, v T)
	Decode func(b []byte) T
}

// Kind binds an item codec to the alloc types of a tree's root, nodes and
// content buffers.
type Kind[T any] struct {
	Name    string
	Root    alloc.Type
	Node    alloc.Type
	Content alloc.Type
	Codec   Codec[T]
}

// Entry is one dictionary slot: a key tree and the value it maps to.
type Entry struct {
	Key   alloc.Ptr
	Value alloc.Ptr
}

var (
	// Bytes holds string content one byte per item.
	Bytes = Kind[byte]{
		Name:    "bytes",
		Root:    alloc.TypeStringRoot,
		Node:    alloc.TypeStringNode,
		Content: alloc.TypeStringContent,
		Codec: Codec[byte]{
			Size:   1,
			Encode: func(b []byte, v byte) { b[0] = v },
			Decode: func(b []byte) byte { return b[0] },
		},
	}

	// Pointers holds list content, one heap pointer per item.
	Pointers = Kind[alloc.Ptr]{
		Name:    "pointers",
		Root:    alloc.TypeListRoot,
		Node:    alloc.TypeListNode,
		Content: alloc.TypeListContent,
		Codec: Codec[alloc.Ptr]{
			Size:   format.PointerSize,
			Encode: func(b []byte, v alloc.Ptr) { format.PutU48(b, 0, uint64(v)) },
			Decode: func(b []byte) alloc.Ptr { return alloc.Ptr(format.ReadU48(b, 0)) },
		},
	}

	// Entries holds dictionary content, kept sorted by key by its users.
	Entries = Kind[Entry]{
		Name:    "entries",
		Root:    alloc.TypeDictRoot,
		Node:    alloc.TypeDictNode,
		Content: alloc.TypeDictContent,
		Codec: Codec[Entry]{
			Size: 2 * format.PointerSize,
			Encode: func(b []byte, v Entry) {
				format.PutU48(b, 0, uint64(v.Key))
				format.PutU48(b, format.PointerSize, uint64(v.Value))
			},
			Decode: func(b []byte) Entry {
				return Entry{
					Key:   alloc.Ptr(format.ReadU48(b, 0)),
					Value: alloc.Ptr(format.ReadU48(b, format.PointerSize)),
				}
			},
		},
	}

	// Uint64s holds fixed-width numbers.
	Uint64s = Kind[uint64]{
		Name:    "uint64s",
		Root:    alloc.TypeVectorRoot,
		Node:    alloc.TypeVectorNode,
		Content: alloc.TypeVectorContent,
		Codec: Codec[uint64]{
			Size:   8,
			Encode: func(b []byte, v uint64) { binary.LittleEndian.PutUint64(b, v) },
			Decode: func(b []byte) uint64 { return binary.LittleEndian.Uint64(b) },
		},
	}
)

func (c Codec[T]) encodeAll(items []T) []byte {
	raw := make([]byte, len(items)*c.Size)
	for i, v := range items {
		c.Encode(raw[i*c.Size:], v)
	}
	return raw
}

func (c Codec[T]) decodeAll(raw []byte) []T {
	items := make([]T, len(raw)/c.Size)
	for i := range items {
		items[i] = c.Decode(raw[i*c.Size:])
	}
	return items
}
