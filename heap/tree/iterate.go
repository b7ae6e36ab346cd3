package tree

import (
	"errors"
	"fmt"

	"github.com/joshuapare/heapkit/heap/alloc"
)

// ErrStop can be returned by a visit callback to end a traversal early
// without error.
var ErrStop = errors.New("tree: stop")

// Walk visits the nodes of the tree anchored at root in direction d order
// until fn returns an error. An explicit stack bounds memory by tree depth.
func (a *Accessor) Walk(root alloc.Ptr, d Direction, fn func(node alloc.Ptr) error) error {
	top, err := a.RootChild(root)
	if err != nil {
		return err
	}
	var stack []alloc.Ptr
	for node := top; node != alloc.Null || len(stack) > 0; {
		for node != alloc.Null {
			stack = append(stack, node)
			b, err := a.Branches(node)
			if err != nil {
				return err
			}
			node = b.Children[d.Opposite()]
		}
		node = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if err := fn(node); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
		b, err := a.Branches(node)
		if err != nil {
			return err
		}
		node = b.Children[d]
	}
	return nil
}

// PostOrder visits every node after both of its subtrees, so fn may free
// the node it is given.
func (a *Accessor) PostOrder(root alloc.Ptr, fn func(node alloc.Ptr) error) error {
	top, err := a.RootChild(root)
	if err != nil || top == alloc.Null {
		return err
	}
	type frame struct {
		node     alloc.Ptr
		expanded bool
	}
	stack := []frame{{node: top}}
	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		if f.expanded {
			node := f.node
			stack = stack[:len(stack)-1]
			if err := fn(node); err != nil {
				return err
			}
			continue
		}
		f.expanded = true
		b, err := a.Branches(f.node)
		if err != nil {
			return err
		}
		for _, c := range []alloc.Ptr{b.Children[Forward], b.Children[Backward]} {
			if c != alloc.Null {
				stack = append(stack, frame{node: c})
			}
		}
	}
	return nil
}

// Locate finds the node holding item index i of the tree anchored at root
// and the offset of the item within it. Index total (one past the last item)
// resolves to the last node at offset equal to its local length.
func (a *Accessor) Locate(root alloc.Ptr, i int64) (alloc.Ptr, int64, error) {
	node, err := a.RootChild(root)
	if err != nil {
		return alloc.Null, 0, err
	}
	total, err := a.Length(node)
	if err != nil {
		return alloc.Null, 0, err
	}
	if node == alloc.Null || i < 0 || i > total {
		return alloc.Null, 0, fmt.Errorf("tree: index %d of %d: %w", i, total, ErrOutOfRange)
	}
	for {
		b, err := a.Branches(node)
		if err != nil {
			return alloc.Null, 0, err
		}
		left, err := a.Length(b.Children[Backward])
		if err != nil {
			return alloc.Null, 0, err
		}
		local, err := a.shape.LocalLength(node)
		if err != nil {
			return alloc.Null, 0, err
		}
		switch {
		case i < left:
			node = b.Children[Backward]
		case i < left+local || (i == left+local && b.Children[Forward] == alloc.Null):
			return node, i - left, nil
		default:
			i -= left + local
			node = b.Children[Forward]
		}
		if node == alloc.Null {
			return alloc.Null, 0, fmt.Errorf("tree: lengths disagree with structure: %w", alloc.ErrCorrupt)
		}
	}
}

// IndexOf returns the index of the first item of node within its tree.
func (a *Accessor) IndexOf(node alloc.Ptr) (int64, error) {
	b, err := a.Branches(node)
	if err != nil {
		return 0, err
	}
	idx, err := a.Length(b.Children[Backward])
	if err != nil {
		return 0, err
	}
	for {
		parent := b.Parent
		top, err := a.IsRoot(parent)
		if err != nil {
			return 0, err
		}
		if top {
			return idx, nil
		}
		pb, err := a.Branches(parent)
		if err != nil {
			return 0, err
		}
		if pb.Children[Forward] == node {
			left, err := a.Length(pb.Children[Backward])
			if err != nil {
				return 0, err
			}
			local, err := a.shape.LocalLength(parent)
			if err != nil {
				return 0, err
			}
			idx += left + local
		}
		node, b = parent, pb
	}
}

// Verify recomputes depth and length of every node bottom-up and checks the
// stored values, the parent links and the AVL height bound.
func (a *Accessor) Verify(root alloc.Ptr) error {
	if err := a.CheckRoot(root); err != nil {
		return err
	}
	type metrics struct {
		depth  int
		length int64
	}
	seen := make(map[alloc.Ptr]metrics)
	err := a.PostOrder(root, func(node alloc.Ptr) error {
		if err := a.CheckNode(node); err != nil {
			return err
		}
		b, err := a.Branches(node)
		if err != nil {
			return err
		}
		local, err := a.shape.LocalLength(node)
		if err != nil {
			return err
		}
		var kids [2]metrics
		for d, c := range b.Children {
			if c == alloc.Null {
				continue
			}
			m, ok := seen[c]
			if !ok {
				return &alloc.InvariantError{Addr: c, Msg: "child visited out of order"}
			}
			cb, err := a.Branches(c)
			if err != nil {
				return err
			}
			if cb.Parent != node {
				return &alloc.InvariantError{Addr: c, Msg: fmt.Sprintf("parent %s, want %s", cb.Parent, node)}
			}
			kids[d] = m
			delete(seen, c)
		}
		want := metrics{
			depth:  max(kids[0].depth, kids[1].depth) + 1,
			length: kids[0].length + kids[1].length + local,
		}
		if b.Depth != want.depth {
			return &alloc.InvariantError{Addr: node, Msg: fmt.Sprintf("depth %d, want %d", b.Depth, want.depth)}
		}
		if b.Length != want.length {
			return &alloc.InvariantError{Addr: node, Msg: fmt.Sprintf("length %d, want %d", b.Length, want.length)}
		}
		if delta := kids[1].depth - kids[0].depth; delta > 1 || delta < -1 {
			return &alloc.InvariantError{Addr: node, Msg: fmt.Sprintf("depth delta %d", delta)}
		}
		seen[node] = want
		return nil
	})
	if err != nil {
		return err
	}
	top, err := a.RootChild(root)
	if err != nil || top == alloc.Null {
		return err
	}
	tb, err := a.Branches(top)
	if err != nil {
		return err
	}
	if tb.Parent != root {
		return &alloc.InvariantError{Addr: top, Msg: fmt.Sprintf("top node parent %s, want root %s", tb.Parent, root)}
	}
	return nil
}
