package content

import (
	"sort"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/tree"
)

// Search finds the first item for which compare returns >= 0, assuming the
// sequence is sorted so that compare is non-decreasing along it. It returns
// the item's index, or Len() when there is none, and whether compare
// returned exactly 0 there.
func (t *Tree[T]) Search(compare func(v T) int) (int64, bool, error) {
	top, err := t.nodes.RootChild(t.root)
	if err != nil || top == alloc.Null {
		return 0, false, err
	}

	// Rightmost node whose first item still sorts before the target.
	var before alloc.Ptr
	for node := top; node != alloc.Null; {
		b, err := t.load(node)
		if err != nil {
			return 0, false, err
		}
		first, err := t.item(b, 0)
		if err != nil {
			return 0, false, err
		}
		br, err := t.nodes.Branches(node)
		if err != nil {
			return 0, false, err
		}
		if compare(first) < 0 {
			before = node
			node = br.Child(tree.Forward)
		} else {
			node = br.Child(tree.Backward)
		}
	}

	if before == alloc.Null {
		first, err := t.Get(0)
		if err != nil {
			return 0, false, err
		}
		return 0, compare(first) == 0, nil
	}

	b, err := t.load(before)
	if err != nil {
		return 0, false, err
	}
	items, err := t.all(b)
	if err != nil {
		return 0, false, err
	}
	base, err := t.nodes.IndexOf(before)
	if err != nil {
		return 0, false, err
	}
	if off := sort.Search(len(items), func(i int) bool { return compare(items[i]) >= 0 }); off < len(items) {
		return base + int64(off), compare(items[off]) == 0, nil
	}

	// Every item of the node sorts before; the answer opens the next node.
	idx := base + int64(len(items))
	next, err := t.nodes.Neighbor(before, tree.Forward)
	if err != nil || next == alloc.Null {
		return idx, false, err
	}
	nb, err := t.load(next)
	if err != nil {
		return 0, false, err
	}
	first, err := t.item(nb, 0)
	if err != nil {
		return 0, false, err
	}
	return idx, compare(first) == 0, nil
}
