package content

import (
	"fmt"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/tree"
)

// Delete removes the items in [start, end).
//
// Nodes are processed from the last affected one backward: fixing up a
// buffer may borrow from its successor, which never disturbs the earlier
// nodes still to be processed.
func (t *Tree[T]) Delete(start, end int64) error {
	if end < start {
		return fmt.Errorf("content: delete [%d, %d): %w", start, end, ErrBadRange)
	}
	if start == end {
		return nil
	}
	total, err := t.Len()
	if err != nil {
		return err
	}
	if start < 0 || end > total {
		return fmt.Errorf("content: delete [%d, %d) of %d: %w", start, end, total, ErrIndexOutOfRange)
	}

	b, off, err := t.find(end - 1)
	if err != nil {
		return err
	}
	remaining := int(end - start)
	for {
		hi := off + 1
		lo := max(0, hi-remaining)
		var prev alloc.Ptr
		if lo == 0 && remaining > hi {
			if prev, err = t.nodes.Neighbor(b.node, tree.Backward); err != nil {
				return err
			}
		}
		if err := t.deleteItems(b, lo, hi); err != nil {
			return err
		}
		remaining -= hi - lo
		if remaining == 0 {
			return nil
		}
		if prev == alloc.Null {
			return fmt.Errorf("content: ran out of nodes with %d items left to delete: %w", remaining, alloc.ErrCorrupt)
		}
		if b, err = t.load(prev); err != nil {
			return err
		}
		off = b.count - 1
	}
}

// DeleteAt removes the single item at index i.
func (t *Tree[T]) DeleteAt(i int64) error {
	return t.Delete(i, i+1)
}

// deleteItems removes items [lo, hi) of buffer b and restores the fill
// policy: empty buffers go away, sparse oversized buffers shrink, sparse
// buffers borrow from their successor.
func (t *Tree[T]) deleteItems(b *buffer[T], lo, hi int) error {
	items, err := t.all(b)
	if err != nil {
		return err
	}
	left := make([]T, 0, len(items)-(hi-lo))
	left = append(left, items[:lo]...)
	left = append(left, items[hi:]...)

	if len(left) == 0 {
		return t.deleteNode(b.node)
	}
	if t.shouldShrink(b.length, len(left)) {
		return t.resize(b, t.shrunkLength(len(left)), left)
	}
	if 4*len(left) < b.length {
		next, err := t.nodes.Neighbor(b.node, tree.Forward)
		if err != nil {
			return err
		}
		if next != alloc.Null {
			return t.borrow(b, left, lo, next)
		}
	}
	if err := t.store(b, left, lo); err != nil {
		return err
	}
	return t.nodes.BalanceNodes(b.node)
}

// borrow refills b from the front of the next node. left holds b's
// surviving items, which differ from the stored ones from index lo onward.
func (t *Tree[T]) borrow(b *buffer[T], left []T, lo int, next alloc.Ptr) error {
	donor, err := t.load(next)
	if err != nil {
		return err
	}
	given, err := t.all(donor)
	if err != nil {
		return err
	}

	if len(left)+len(given) <= b.length {
		if err := t.deleteNode(next); err != nil {
			return err
		}
		if err := t.store(b, append(left, given...), lo); err != nil {
			return err
		}
		return t.nodes.BalanceNodes(b.node)
	}

	move := b.length/2 - len(left)
	if err := t.store(b, append(left, given[:move]...), lo); err != nil {
		return err
	}
	if err := t.nodes.BalanceNodes(b.node); err != nil {
		return err
	}

	rest := clone(given[move:])
	switch {
	case donor.length > t.maximumMoveLength():
		return t.shatter(donor, rest)
	case t.shouldShrink(donor.length, len(rest)):
		return t.resize(donor, t.shrunkLength(len(rest)), rest)
	default:
		if err := t.store(donor, rest, 0); err != nil {
			return err
		}
		return t.nodes.BalanceNodes(donor.node)
	}
}

// shouldShrink reports whether a buffer of length holding count items is
// both sparse and at least twice the default size.
func (t *Tree[T]) shouldShrink(length, count int) bool {
	return 4*count < length && length >= 2*t.defaultLength()
}

func (t *Tree[T]) shrunkLength(count int) int {
	return max(t.defaultLength(), 2*count)
}
