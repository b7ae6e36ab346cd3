package alloc

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
)

// Ptr is an address in the heap's storage. The zero value is null; no alloc
// ever starts at 0 because the storage header lives there.
type Ptr uint64

// Null is the null address.
const Null Ptr = 0

// IsNull reports whether p is the null address.
func (p Ptr) IsNull() bool { return p == Null }

// Add offsets p by n bytes.
func (p Ptr) Add(n int) Ptr { return p + Ptr(n) }

// Payload returns the address of the alloc payload that p heads.
func (p Ptr) Payload() Ptr { return p + format.AllocPayloadOffset }

func (p Ptr) String() string {
	if p == Null {
		return "null"
	}
	return fmt.Sprintf("0x%X", uint64(p))
}

// Type is the kind tag carried by every alloc.
type Type uint8

const (
	TypeInvalid Type = 0
	TypeRaw     Type = 1 // opaque caller data

	TypeStringRoot    Type = 2
	TypeStringNode    Type = 3
	TypeStringContent Type = 4

	TypeListRoot    Type = 5
	TypeListNode    Type = 6
	TypeListContent Type = 7

	TypeDictRoot    Type = 8
	TypeDictNode    Type = 9
	TypeDictContent Type = 10

	TypeVectorRoot    Type = 11
	TypeVectorNode    Type = 12
	TypeVectorContent Type = 13

	// TypeUser is the first tag free for caller-defined content kinds.
	TypeUser Type = 128
)

var typeNames = map[Type]string{
	TypeInvalid:       "invalid",
	TypeRaw:           "raw",
	TypeStringRoot:    "string-root",
	TypeStringNode:    "string-node",
	TypeStringContent: "string-content",
	TypeListRoot:      "list-root",
	TypeListNode:      "list-node",
	TypeListContent:   "list-content",
	TypeDictRoot:      "dict-root",
	TypeDictNode:      "dict-node",
	TypeDictContent:   "dict-content",
	TypeVectorRoot:    "vector-root",
	TypeVectorNode:    "vector-node",
	TypeVectorContent: "vector-content",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	if t >= TypeUser {
		return fmt.Sprintf("user-%d", uint8(t-TypeUser))
	}
	return fmt.Sprintf("type-%d", uint8(t))
}
