// Package content stores ordered sequences of fixed-width items in a heap.
//
// A sequence is a tree (see package tree) whose nodes each own one content
// buffer: an alloc holding a back pointer to the node, an item count, and
// room for a number of items derived from the alloc size.
//
//	Offset  Size  Description
//	------  ----  -------------------------------
//	0x00    6     owning node
//	0x06    4     item count
//	0x0A    n*w   items, w bytes each
//
// Buffers are created at a default capacity of DefaultContentSize bytes.
// Insertions that overflow a buffer grow it up to the default, then spill
// into new nodes; deletions that leave a buffer mostly empty shrink it or
// borrow items from the next node. Buffers grown far beyond the default by
// an earlier configuration are shattered into default-sized nodes the next
// time they are touched.
package content
