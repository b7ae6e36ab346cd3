package tree

import "errors"

var (
	// ErrNotNode indicates a pointer that does not address a node of the tree's shape.
	ErrNotNode = errors.New("tree: not a node")

	// ErrNotRoot indicates a pointer that does not address a root anchor of the tree's shape.
	ErrNotRoot = errors.New("tree: not a root")

	// ErrLinked indicates an insertion of a node that is already part of a tree.
	ErrLinked = errors.New("tree: node already linked")
)

// ErrOutOfRange indicates an item index outside the tree.
var ErrOutOfRange = errors.New("tree: index out of range")
