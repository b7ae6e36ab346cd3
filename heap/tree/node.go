package tree

import (
	"fmt"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/internal/format"
)

// Direction selects a side of a node in in-order traversal.
type Direction int

const (
	Backward Direction = 0 // left, towards the first node
	Forward  Direction = 1 // right, towards the last node
)

// Opposite returns the other direction.
func (d Direction) Opposite() Direction { return 1 - d }

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Shape describes one concrete node kind.
type Shape interface {
	// RootType is the alloc type of the tree's root anchor.
	RootType() alloc.Type
	// NodeType is the alloc type of the tree's nodes.
	NodeType() alloc.Type
	// LocalLength returns the items node contributes by itself.
	LocalLength(node alloc.Ptr) (int64, error)
}

// Branches is the structural part of a node payload.
type Branches struct {
	Children [2]alloc.Ptr
	Parent   alloc.Ptr
	Depth    int
	Length   int64
}

// Child returns the child in direction d.
func (b Branches) Child(d Direction) alloc.Ptr { return b.Children[d] }

func decodeBranches(raw []byte) Branches {
	return Branches{
		Children: [2]alloc.Ptr{
			alloc.Ptr(format.ReadU48(raw, format.NodeLeftOffset)),
			alloc.Ptr(format.ReadU48(raw, format.NodeRightOffset)),
		},
		Parent: alloc.Ptr(format.ReadU48(raw, format.NodeParentOffset)),
		Depth:  int(raw[format.NodeDepthOffset]),
		Length: int64(format.ReadU48(raw, format.NodeLengthOffset)),
	}
}

func (b Branches) encode(raw []byte) {
	format.PutU48(raw, format.NodeLeftOffset, uint64(b.Children[Backward]))
	format.PutU48(raw, format.NodeRightOffset, uint64(b.Children[Forward]))
	format.PutU48(raw, format.NodeParentOffset, uint64(b.Parent))
	raw[format.NodeDepthOffset] = byte(b.Depth)
	format.PutU48(raw, format.NodeLengthOffset, uint64(b.Length))
}

// Accessor runs tree operations for one node shape in one heap.
type Accessor struct {
	h     *alloc.Heap
	shape Shape
}

// New returns an Accessor for trees of the given shape stored in h.
func New(h *alloc.Heap, shape Shape) *Accessor {
	return &Accessor{h: h, shape: shape}
}

// Heap returns the heap the trees live in.
func (a *Accessor) Heap() *alloc.Heap { return a.h }

// Shape returns the node shape.
func (a *Accessor) Shape() Shape { return a.shape }

// CreateRoot allocates an empty root anchor.
func (a *Accessor) CreateRoot() (alloc.Ptr, error) {
	return a.h.CreateFixed(a.shape.RootType(), make([]byte, format.RootSize))
}

// CreateNode allocates an unlinked leaf node owning content, which
// contributes length items.
func (a *Accessor) CreateNode(content alloc.Ptr, length int64) (alloc.Ptr, error) {
	var raw [format.NodeSize]byte
	Branches{Depth: 1, Length: length}.encode(raw[:])
	format.PutU48(raw[:], format.NodeContentOffset, uint64(content))
	return a.h.CreateFixed(a.shape.NodeType(), raw[:])
}

// Branches reads the structural fields of node.
func (a *Accessor) Branches(node alloc.Ptr) (Branches, error) {
	if node == alloc.Null {
		return Branches{}, alloc.ErrNullPointer
	}
	var raw [format.NodeBranchesSize]byte
	if err := a.h.ReadPayload(node, 0, raw[:]); err != nil {
		return Branches{}, err
	}
	return decodeBranches(raw[:]), nil
}

func (a *Accessor) writeBranches(node alloc.Ptr, b Branches) error {
	var raw [format.NodeBranchesSize]byte
	b.encode(raw[:])
	return a.h.WritePayload(node, 0, raw[:])
}

// Content returns the content pointer of node.
func (a *Accessor) Content(node alloc.Ptr) (alloc.Ptr, error) {
	return a.h.ReadPtr(node.Payload().Add(format.NodeContentOffset))
}

// SetContent repoints node at a new content alloc.
func (a *Accessor) SetContent(node, content alloc.Ptr) error {
	return a.h.WritePtr(node.Payload().Add(format.NodeContentOffset), content)
}

// RootChild returns the top node of the tree anchored at root.
func (a *Accessor) RootChild(root alloc.Ptr) (alloc.Ptr, error) {
	return a.h.ReadPtr(root.Payload().Add(format.RootChildOffset))
}

// SetRootChild makes child the top node of the tree anchored at root.
func (a *Accessor) SetRootChild(root, child alloc.Ptr) error {
	if err := a.h.WritePtr(root.Payload().Add(format.RootChildOffset), child); err != nil {
		return err
	}
	if child == alloc.Null {
		return nil
	}
	return a.setParent(child, root)
}

// SetNodeChild makes child the d child of node and refreshes node's metrics.
func (a *Accessor) SetNodeChild(node alloc.Ptr, d Direction, child alloc.Ptr) error {
	if err := a.setChild(node, d, child); err != nil {
		return err
	}
	_, err := a.UpdateMetrics(node)
	return err
}

func (a *Accessor) setChild(node alloc.Ptr, d Direction, child alloc.Ptr) error {
	if err := a.h.WritePtr(node.Payload().Add(int(d)*format.PointerSize), child); err != nil {
		return err
	}
	if child == alloc.Null {
		return nil
	}
	return a.setParent(child, node)
}

func (a *Accessor) setParent(node, parent alloc.Ptr) error {
	return a.h.WritePtr(node.Payload().Add(format.NodeParentOffset), parent)
}

// IsRoot reports whether p is the tree's root anchor rather than a node.
// The boundary is detected by the alloc type, not by a stored flag.
func (a *Accessor) IsRoot(p alloc.Ptr) (bool, error) {
	t, err := a.h.Type(p)
	if err != nil {
		return false, err
	}
	return t != a.shape.NodeType(), nil
}

// CheckNode verifies that p addresses a node of this shape.
func (a *Accessor) CheckNode(p alloc.Ptr) error {
	if _, err := a.h.Expect(p, a.shape.NodeType()); err != nil {
		return fmt.Errorf("%w: %w", ErrNotNode, err)
	}
	return nil
}

// CheckRoot verifies that p addresses a root anchor of this shape.
func (a *Accessor) CheckRoot(p alloc.Ptr) error {
	if _, err := a.h.Expect(p, a.shape.RootType()); err != nil {
		return fmt.Errorf("%w: %w", ErrNotRoot, err)
	}
	return nil
}

func (a *Accessor) depthOf(node alloc.Ptr) (int, error) {
	if node == alloc.Null {
		return 0, nil
	}
	var b [1]byte
	if err := a.h.ReadPayload(node, format.NodeDepthOffset, b[:]); err != nil {
		return 0, err
	}
	return int(b[0]), nil
}

// Length returns the number of items in the subtree rooted at node.
func (a *Accessor) Length(node alloc.Ptr) (int64, error) {
	if node == alloc.Null {
		return 0, nil
	}
	var b [format.PointerSize]byte
	if err := a.h.ReadPayload(node, format.NodeLengthOffset, b[:]); err != nil {
		return 0, err
	}
	return int64(format.ReadU48(b[:], 0)), nil
}

// TotalLength returns the number of items in the tree anchored at root.
func (a *Accessor) TotalLength(root alloc.Ptr) (int64, error) {
	top, err := a.RootChild(root)
	if err != nil {
		return 0, err
	}
	return a.Length(top)
}

// UpdateMetrics recomputes the depth and length of node from its direct
// children and its own items.
func (a *Accessor) UpdateMetrics(node alloc.Ptr) (Branches, error) {
	b, err := a.Branches(node)
	if err != nil {
		return b, err
	}
	local, err := a.shape.LocalLength(node)
	if err != nil {
		return b, err
	}
	b.Depth = 0
	b.Length = local
	for _, c := range b.Children {
		if c == alloc.Null {
			continue
		}
		cb, err := a.Branches(c)
		if err != nil {
			return b, err
		}
		b.Depth = max(b.Depth, cb.Depth)
		b.Length += cb.Length
	}
	b.Depth++
	return b, a.writeBranches(node, b)
}
