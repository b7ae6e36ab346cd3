package alloc

import "errors"

var (
	// ErrNullPointer indicates an operation was given the null address.
	ErrNullPointer = errors.New("alloc: null pointer")

	// ErrBadPointer indicates an address that cannot be the start of an alloc.
	ErrBadPointer = errors.New("alloc: bad pointer")

	// ErrDoubleFree indicates an attempt to free a span that is already free.
	ErrDoubleFree = errors.New("alloc: double free")

	// ErrTypeMismatch indicates an alloc carries a different type tag than expected.
	ErrTypeMismatch = errors.New("alloc: type mismatch")

	// ErrBadSize indicates a negative or unrepresentable allocation size.
	ErrBadSize = errors.New("alloc: bad size")

	// ErrNoSpace indicates the storage cannot grow to satisfy an allocation.
	ErrNoSpace = errors.New("alloc: address space exhausted")

	// ErrCorrupt indicates persisted heap state that violates a layout invariant.
	ErrCorrupt = errors.New("alloc: corrupt heap")
)

// InvariantError describes an allocator invariant found broken by Verify.
type InvariantError struct {
	Addr Ptr
	Msg  string
}

func (e *InvariantError) Error() string {
	return "alloc: invariant violated at " + e.Addr.String() + ": " + e.Msg
}
