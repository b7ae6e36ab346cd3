package heap

import "errors"

var (
	// ErrUninitialized indicates a read-only open of storage that holds no heap yet.
	ErrUninitialized = errors.New("heap: storage not initialized")

	// ErrClosed is returned by operations on a closed Store.
	ErrClosed = errors.New("heap: store closed")
)
