// Package alloc implements the span allocator at the bottom of a heapkit heap.
//
// # Overview
//
// The heap area of a storage region is partitioned into spans. Every span
// starts with an 18-byte header linking it to its physical neighbors, so the
// spans form an address-ordered chain from the storage header to the single
// unbounded trailing span at the end. A span is either free or holds an
// alloc: a payload tagged with a Type.
//
// # Free Lists
//
// Free spans are grouped by degree, a size class with four linear steps per
// power-of-two octave (see DegreeToSize). The storage header at offset 0 holds
// one list head per degree and the trailing span pointer:
//
//	Offset  Size       Description
//	------  ---------  ------------------------------------
//	0x000   168 * 6    free-list heads, one per degree
//	0x3F0   6          trailing span pointer
//
// Allocation looks at the bucket of the requested size first, then takes the
// head of any larger bucket, then carves the trailing span, growing storage as
// needed. Freed allocs merge with free physical neighbors immediately, so two
// free spans are never adjacent.
//
// # Usage Example
//
//	h, err := alloc.Create(storage.NewMem(), nil)
//	if err != nil {
//	    return err
//	}
//
//	p, err := h.CreateAlloc(alloc.TypeRaw, 50)
//	if err != nil {
//	    return err
//	}
//	if err := h.WritePayload(p, 0, data); err != nil {
//	    return err
//	}
//
//	// Later, free the alloc
//	err = h.DeleteAlloc(p)
//
// # Debugging
//
// Set HEAPKIT_LOG_ALLOC=1 to log growth, allocation and free decisions through
// the heapkit logger at debug level. Verify checks every allocator invariant
// and Usage reports occupancy per degree.
package alloc
