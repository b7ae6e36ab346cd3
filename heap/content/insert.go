package content

import (
	"fmt"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/tree"
)

// Append adds values after the last item.
func (t *Tree[T]) Append(values ...T) error {
	n, err := t.Len()
	if err != nil {
		return err
	}
	return t.Insert(n, values...)
}

// Insert places values before the item at index i; i == Len() appends.
func (t *Tree[T]) Insert(i int64, values ...T) error {
	if len(values) == 0 {
		return nil
	}
	total, err := t.Len()
	if err != nil {
		return err
	}
	if i < 0 || i > total {
		return fmt.Errorf("content: insert at %d of %d: %w", i, total, ErrIndexOutOfRange)
	}
	if total == 0 {
		return t.appendNodes(alloc.Null, chunk(clone(values), t.defaultLength()))
	}
	b, off, err := t.find(i)
	if err != nil {
		return err
	}
	return t.insertItems(b, off, values)
}

// insertItems inserts values at offset off of buffer b, reshaping the tree
// when they do not fit.
func (t *Tree[T]) insertItems(b *buffer[T], off int, values []T) error {
	items, err := t.all(b)
	if err != nil {
		return err
	}
	merged := make([]T, 0, len(items)+len(values))
	merged = append(merged, items[:off]...)
	merged = append(merged, values...)
	merged = append(merged, items[off:]...)

	if b.length > t.maximumMoveLength() {
		return t.shatter(b, merged)
	}
	if len(merged) <= b.length {
		if err := t.store(b, merged, off); err != nil {
			return err
		}
		return t.nodes.BalanceNodes(b.node)
	}
	return t.insertWithOverflow(b, merged)
}

// insertWithOverflow lays out merged, which exceeds b's capacity, over b and
// as many new nodes after it as needed.
func (t *Tree[T]) insertWithOverflow(b *buffer[T], merged []T) error {
	def := t.defaultLength()
	length := b.length
	if length < def {
		length = min(def, max(len(merged), 2*length))
	}
	if len(merged) <= length {
		return t.resize(b, length, merged)
	}

	next, err := t.nodes.Neighbor(b.node, tree.Forward)
	if err != nil {
		return err
	}
	var keep int
	var runs [][]T
	if next == alloc.Null {
		// Last node: fill up, then full default buffers.
		keep = length
		runs = chunk(merged[keep:], def)
	} else {
		// Inner node: split evenly with new successors.
		keep = min(length, ceilDiv(len(merged), 2))
		rest := merged[keep:]
		runs = spread(rest, ceilDiv(len(rest), def))
	}

	if err := t.appendNodes(b.node, runs); err != nil {
		return err
	}
	kept := merged[:keep:keep]
	if length != b.length {
		return t.resize(b, length, kept)
	}
	if err := t.store(b, kept, 0); err != nil {
		return err
	}
	return t.nodes.BalanceNodes(b.node)
}

// appendNodes inserts one default-capacity node per run right after prev,
// in order. A null prev inserts them first.
func (t *Tree[T]) appendNodes(prev alloc.Ptr, runs [][]T) error {
	def := t.defaultLength()
	for _, run := range runs {
		node, err := t.createNode(def, run)
		if err != nil {
			return err
		}
		if err := t.nodes.InsertAfter(t.root, node, prev); err != nil {
			return err
		}
		prev = node
	}
	return nil
}

// shatter replaces b's node with default-capacity nodes evenly holding items.
func (t *Tree[T]) shatter(b *buffer[T], items []T) error {
	if len(items) > 0 {
		runs := spread(items, ceilDiv(len(items), t.defaultLength()))
		if err := t.appendNodes(b.node, runs); err != nil {
			return err
		}
	}
	return t.deleteNode(b.node)
}

// InsertSorted inserts v before the first item not ordered before it by cmp
// and returns its index.
func (t *Tree[T]) InsertSorted(v T, cmp func(a, b T) int) (int64, error) {
	i, _, err := t.Search(func(x T) int { return cmp(x, v) })
	if err != nil {
		return 0, err
	}
	return i, t.Insert(i, v)
}

func clone[T any](s []T) []T {
	return append([]T(nil), s...)
}
