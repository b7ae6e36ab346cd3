package content

import (
	"errors"
	"fmt"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/tree"
	"github.com/joshuapare/heapkit/internal/format"
)

// Tree is an ordered, indexable sequence of items of type T stored in a heap.
//
// A Tree is a handle: it holds the root pointer only, so any number of
// handles may be opened on the same root. Like the heap itself, a tree is
// not safe for concurrent use.
type Tree[T any] struct {
	h     *alloc.Heap
	kind  Kind[T]
	opts  Options
	nodes *tree.Accessor
	root  alloc.Ptr
}

// Create allocates an empty tree of the given kind in h. A nil opts selects
// DefaultOptions.
func Create[T any](h *alloc.Heap, kind Kind[T], opts *Options) (*Tree[T], error) {
	t, err := newTree(h, kind, opts)
	if err != nil {
		return nil, err
	}
	if t.root, err = t.nodes.CreateRoot(); err != nil {
		return nil, fmt.Errorf("content: create %s root: %w", kind.Name, err)
	}
	return t, nil
}

// Open attaches to the tree anchored at root.
func Open[T any](h *alloc.Heap, kind Kind[T], root alloc.Ptr, opts *Options) (*Tree[T], error) {
	t, err := newTree(h, kind, opts)
	if err != nil {
		return nil, err
	}
	if err := t.nodes.CheckRoot(root); err != nil {
		return nil, fmt.Errorf("content: open %s tree: %w", kind.Name, err)
	}
	t.root = root
	return t, nil
}

func newTree[T any](h *alloc.Heap, kind Kind[T], opts *Options) (*Tree[T], error) {
	if kind.Codec.Size <= 0 || kind.Codec.Encode == nil || kind.Codec.Decode == nil {
		return nil, fmt.Errorf("content: kind %q: %w", kind.Name, ErrBadKind)
	}
	o := DefaultOptions
	if opts != nil {
		o = *opts
	}
	s := shape{h: h, root: kind.Root, node: kind.Node, content: kind.Content}
	return &Tree[T]{
		h:     h,
		kind:  kind,
		opts:  o.normalized(),
		nodes: tree.New(h, s),
	}, nil
}

// Root returns the root pointer that identifies the tree.
func (t *Tree[T]) Root() alloc.Ptr { return t.root }

// Kind returns the tree's item kind.
func (t *Tree[T]) Kind() Kind[T] { return t.kind }

// Len returns the number of items in the tree.
func (t *Tree[T]) Len() (int64, error) {
	return t.nodes.TotalLength(t.root)
}

// find resolves item index i to its node's buffer and the offset within.
// Index Len() resolves to the end of the last buffer.
func (t *Tree[T]) find(i int64) (*buffer[T], int, error) {
	node, off, err := t.nodes.Locate(t.root, i)
	if err != nil {
		if errors.Is(err, tree.ErrOutOfRange) {
			return nil, 0, fmt.Errorf("content: %w: %w", ErrIndexOutOfRange, err)
		}
		return nil, 0, err
	}
	b, err := t.load(node)
	if err != nil {
		return nil, 0, err
	}
	return b, int(off), nil
}

// Get returns the item at index i.
func (t *Tree[T]) Get(i int64) (T, error) {
	var zero T
	b, off, err := t.find(i)
	if err != nil {
		return zero, err
	}
	if off >= b.count {
		return zero, fmt.Errorf("content: get %d: %w", i, ErrIndexOutOfRange)
	}
	return t.item(b, off)
}

// Set replaces the item at index i.
func (t *Tree[T]) Set(i int64, v T) error {
	b, off, err := t.find(i)
	if err != nil {
		return err
	}
	if off >= b.count {
		return fmt.Errorf("content: set %d: %w", i, ErrIndexOutOfRange)
	}
	raw := make([]byte, t.kind.Codec.Size)
	t.kind.Codec.Encode(raw, v)
	return t.h.WritePayload(b.content, format.ContentHeaderSize+off*t.kind.Codec.Size, raw)
}

// Each calls fn with every item in order until fn returns true.
func (t *Tree[T]) Each(fn func(i int64, v T) (stop bool)) error {
	var i int64
	return t.eachNode(tree.Forward, func(b *buffer[T], items []T) bool {
		for _, v := range items {
			if fn(i, v) {
				return true
			}
			i++
		}
		return false
	})
}

// EachReverse calls fn with every item from last to first until fn returns true.
func (t *Tree[T]) EachReverse(fn func(i int64, v T) (stop bool)) error {
	i, err := t.Len()
	if err != nil {
		return err
	}
	return t.eachNode(tree.Backward, func(b *buffer[T], items []T) bool {
		for j := len(items) - 1; j >= 0; j-- {
			i--
			if fn(i, items[j]) {
				return true
			}
		}
		return false
	})
}

func (t *Tree[T]) eachNode(d tree.Direction, fn func(b *buffer[T], items []T) (stop bool)) error {
	return t.nodes.Walk(t.root, d, func(node alloc.Ptr) error {
		b, err := t.load(node)
		if err != nil {
			return err
		}
		items, err := t.all(b)
		if err != nil {
			return err
		}
		if fn(b, items) {
			return tree.ErrStop
		}
		return nil
	})
}

// Items returns every item in order.
func (t *Tree[T]) Items() ([]T, error) {
	var out []T
	err := t.eachNode(tree.Forward, func(_ *buffer[T], items []T) bool {
		out = append(out, items...)
		return false
	})
	return out, err
}

// BufferInfo describes one content buffer.
type BufferInfo struct {
	Length int // capacity in items
	Count  int // items held
}

// Buffers reports the buffers of the tree in order.
func (t *Tree[T]) Buffers() ([]BufferInfo, error) {
	var out []BufferInfo
	err := t.nodes.Walk(t.root, tree.Forward, func(node alloc.Ptr) error {
		b, err := t.load(node)
		if err != nil {
			return err
		}
		out = append(out, BufferInfo{Length: b.length, Count: b.count})
		return nil
	})
	return out, err
}

// Verify checks the tree structure and every buffer's header.
func (t *Tree[T]) Verify() error {
	if err := t.nodes.Verify(t.root); err != nil {
		return err
	}
	return t.nodes.Walk(t.root, tree.Forward, func(node alloc.Ptr) error {
		b, err := t.load(node)
		if err != nil {
			return err
		}
		if b.count == 0 {
			return &alloc.InvariantError{Addr: node, Msg: "node with empty buffer"}
		}
		owner, err := t.h.ReadPtr(b.content.Payload().Add(format.ContentParentOffset))
		if err != nil {
			return err
		}
		if owner != node {
			return &alloc.InvariantError{Addr: b.content, Msg: fmt.Sprintf("buffer owned by %s, linked from %s", owner, node)}
		}
		return nil
	})
}

// DeleteTree frees every node, buffer and the root. When cleanUp is not nil
// it receives the items of each buffer before the buffer is freed, so
// callers can release resources the items refer to.
func (t *Tree[T]) DeleteTree(cleanUp func(items []T) error) error {
	err := t.nodes.PostOrder(t.root, func(node alloc.Ptr) error {
		b, err := t.load(node)
		if err != nil {
			return err
		}
		if cleanUp != nil {
			items, err := t.all(b)
			if err != nil {
				return err
			}
			if err := cleanUp(items); err != nil {
				return err
			}
		}
		if err := t.h.DeleteAlloc(b.content); err != nil {
			return err
		}
		return t.h.DeleteAlloc(node)
	})
	if err != nil {
		return fmt.Errorf("content: delete %s tree: %w", t.kind.Name, err)
	}
	if err := t.h.DeleteAlloc(t.root); err != nil {
		return err
	}
	t.root = alloc.Null
	return nil
}
