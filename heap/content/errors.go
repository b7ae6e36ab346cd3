package content

import "errors"

var (
	// ErrIndexOutOfRange indicates an item index outside the sequence.
	ErrIndexOutOfRange = errors.New("content: index out of range")

	// ErrEmptyTree indicates an operation that needs at least one item.
	ErrEmptyTree = errors.New("content: empty tree")

	// ErrBadRange indicates a deletion range with end before start.
	ErrBadRange = errors.New("content: bad range")

	// ErrBadKind indicates a Kind whose codec cannot describe an item.
	ErrBadKind = errors.New("content: bad kind")
)
