package tree

import (
	"fmt"

	"github.com/joshuapare/heapkit/heap/alloc"
)

// Extreme returns the farthest node from node in direction d, or node itself
// when it has no child that way.
func (a *Accessor) Extreme(node alloc.Ptr, d Direction) (alloc.Ptr, error) {
	for {
		b, err := a.Branches(node)
		if err != nil {
			return alloc.Null, err
		}
		next := b.Children[d]
		if next == alloc.Null {
			return node, nil
		}
		node = next
	}
}

// First returns the first node in traversal order, or null for an empty tree.
func (a *Accessor) First(root alloc.Ptr) (alloc.Ptr, error) {
	return a.edge(root, Backward)
}

// Last returns the last node in traversal order, or null for an empty tree.
func (a *Accessor) Last(root alloc.Ptr) (alloc.Ptr, error) {
	return a.edge(root, Forward)
}

func (a *Accessor) edge(root alloc.Ptr, d Direction) (alloc.Ptr, error) {
	top, err := a.RootChild(root)
	if err != nil || top == alloc.Null {
		return alloc.Null, err
	}
	return a.Extreme(top, d)
}

// Neighbor returns the node next to node in direction d, or null at either
// end of the tree.
func (a *Accessor) Neighbor(node alloc.Ptr, d Direction) (alloc.Ptr, error) {
	b, err := a.Branches(node)
	if err != nil {
		return alloc.Null, err
	}
	if c := b.Children[d]; c != alloc.Null {
		return a.Extreme(c, d.Opposite())
	}
	for {
		parent := b.Parent
		top, err := a.IsRoot(parent)
		if err != nil {
			return alloc.Null, err
		}
		if top {
			return alloc.Null, nil
		}
		pb, err := a.Branches(parent)
		if err != nil {
			return alloc.Null, err
		}
		if pb.Children[d.Opposite()] == node {
			return parent, nil
		}
		node, b = parent, pb
	}
}

// replaceChild points the slot of parent that holds old at repl.
func (a *Accessor) replaceChild(parent, old, repl alloc.Ptr) error {
	top, err := a.IsRoot(parent)
	if err != nil {
		return err
	}
	if top {
		return a.SetRootChild(parent, repl)
	}
	pb, err := a.Branches(parent)
	if err != nil {
		return err
	}
	var side Direction
	switch old {
	case pb.Children[Backward]:
		side = Backward
	case pb.Children[Forward]:
		side = Forward
	default:
		return fmt.Errorf("tree: %s is not a child of %s: %w", old, parent, alloc.ErrCorrupt)
	}
	return a.setChild(parent, side, repl)
}

// rotate lifts the d child of node into node's place and returns it.
func (a *Accessor) rotate(node alloc.Ptr, d Direction) (alloc.Ptr, error) {
	b, err := a.Branches(node)
	if err != nil {
		return alloc.Null, err
	}
	pivot := b.Children[d]
	if pivot == alloc.Null {
		return alloc.Null, fmt.Errorf("tree: rotate %s %s without child: %w", node, d, alloc.ErrCorrupt)
	}
	pb, err := a.Branches(pivot)
	if err != nil {
		return alloc.Null, err
	}
	inner := pb.Children[d.Opposite()]

	if err := a.replaceChild(b.Parent, node, pivot); err != nil {
		return alloc.Null, err
	}
	if err := a.setChild(node, d, inner); err != nil {
		return alloc.Null, err
	}
	if err := a.setChild(pivot, d.Opposite(), node); err != nil {
		return alloc.Null, err
	}
	if _, err := a.UpdateMetrics(node); err != nil {
		return alloc.Null, err
	}
	if _, err := a.UpdateMetrics(pivot); err != nil {
		return alloc.Null, err
	}
	return pivot, nil
}

// balance fixes node whose d subtree is too deep and returns the new subtree top.
func (a *Accessor) balance(node alloc.Ptr, d Direction) (alloc.Ptr, error) {
	b, err := a.Branches(node)
	if err != nil {
		return alloc.Null, err
	}
	child := b.Children[d]
	cb, err := a.Branches(child)
	if err != nil {
		return alloc.Null, err
	}
	outer, err := a.depthOf(cb.Children[d])
	if err != nil {
		return alloc.Null, err
	}
	inner, err := a.depthOf(cb.Children[d.Opposite()])
	if err != nil {
		return alloc.Null, err
	}
	if inner > outer {
		if _, err := a.rotate(child, d.Opposite()); err != nil {
			return alloc.Null, err
		}
	}
	return a.rotate(node, d)
}

// BalanceNodes walks from start up to the root anchor, refreshing metrics
// and rotating every node whose subtrees differ in depth by more than one.
func (a *Accessor) BalanceNodes(start alloc.Ptr) error {
	node := start
	for node != alloc.Null {
		top, err := a.IsRoot(node)
		if err != nil {
			return err
		}
		if top {
			return nil
		}
		b, err := a.UpdateMetrics(node)
		if err != nil {
			return err
		}
		left, err := a.depthOf(b.Children[Backward])
		if err != nil {
			return err
		}
		right, err := a.depthOf(b.Children[Forward])
		if err != nil {
			return err
		}
		switch delta := right - left; {
		case delta > 1:
			node, err = a.balance(node, Forward)
		case delta < -1:
			node, err = a.balance(node, Backward)
		}
		if err != nil {
			return err
		}
		if node, err = a.parentOf(node); err != nil {
			return err
		}
	}
	return nil
}

func (a *Accessor) parentOf(node alloc.Ptr) (alloc.Ptr, error) {
	b, err := a.Branches(node)
	return b.Parent, err
}

// InsertNode links the unlinked node next to next: before it when d is
// Forward, after it when d is Backward. It fills next's empty child slot
// facing node, or else hangs node below next's neighbor on that side.
func (a *Accessor) InsertNode(node, next alloc.Ptr, d Direction) error {
	nb, err := a.Branches(next)
	if err != nil {
		return err
	}
	if nb.Children[d.Opposite()] == alloc.Null {
		if err := a.setChild(next, d.Opposite(), node); err != nil {
			return err
		}
	} else {
		neighbor, err := a.Neighbor(next, d.Opposite())
		if err != nil {
			return err
		}
		if err := a.setChild(neighbor, d, node); err != nil {
			return err
		}
	}
	return a.BalanceNodes(node)
}

// InsertAfter links node right after prev in the tree anchored at root. A
// null prev inserts node first.
func (a *Accessor) InsertAfter(root, node, prev alloc.Ptr) error {
	return a.insertBeside(root, node, prev, Backward)
}

// InsertBefore links node right before next in the tree anchored at root. A
// null next appends node last.
func (a *Accessor) InsertBefore(root, node, next alloc.Ptr) error {
	return a.insertBeside(root, node, next, Forward)
}

func (a *Accessor) insertBeside(root, node, anchor alloc.Ptr, d Direction) error {
	nb, err := a.Branches(node)
	if err != nil {
		return err
	}
	if nb.Parent != alloc.Null || nb.Children != [2]alloc.Ptr{} {
		return fmt.Errorf("tree: insert %s: %w", node, ErrLinked)
	}
	if anchor != alloc.Null {
		return a.InsertNode(node, anchor, d)
	}
	// Null anchor: first when inserting after, last when inserting before.
	edge, err := a.edge(root, d)
	if err != nil {
		return err
	}
	if edge == alloc.Null {
		if err := a.SetRootChild(root, node); err != nil {
			return err
		}
		return a.BalanceNodes(node)
	}
	return a.InsertNode(node, edge, d.Opposite())
}

// RemoveNode unlinks node from its tree and rebalances. The node alloc is
// left for the caller to free; its branches are cleared.
func (a *Accessor) RemoveNode(node alloc.Ptr) error {
	b, err := a.Branches(node)
	if err != nil {
		return err
	}
	left, right := b.Children[Backward], b.Children[Forward]

	var rebalanceFrom alloc.Ptr
	switch {
	case right == alloc.Null:
		if err := a.replaceChild(b.Parent, node, left); err != nil {
			return err
		}
		rebalanceFrom = b.Parent

	default:
		succ, err := a.Extreme(right, Backward)
		if err != nil {
			return err
		}
		if succ == right {
			rebalanceFrom = succ
		} else {
			sb, err := a.Branches(succ)
			if err != nil {
				return err
			}
			// succ has no left child; its right subtree takes its place.
			if err := a.setChild(sb.Parent, Backward, sb.Children[Forward]); err != nil {
				return err
			}
			if err := a.setChild(succ, Forward, right); err != nil {
				return err
			}
			rebalanceFrom = sb.Parent
		}
		if err := a.setChild(succ, Backward, left); err != nil {
			return err
		}
		if err := a.replaceChild(b.Parent, node, succ); err != nil {
			return err
		}
	}

	if err := a.writeBranches(node, Branches{Depth: 1, Length: 0}); err != nil {
		return err
	}
	return a.BalanceNodes(rebalanceFrom)
}
