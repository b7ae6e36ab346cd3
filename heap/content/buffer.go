package content

import (
	"fmt"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/internal/format"
)

// shape adapts a Kind to the node shape the tree package balances.
type shape struct {
	h       *alloc.Heap
	root    alloc.Type
	node    alloc.Type
	content alloc.Type
}

func (s shape) RootType() alloc.Type { return s.root }
func (s shape) NodeType() alloc.Type { return s.node }

// LocalLength is the item count of the node's content buffer.
func (s shape) LocalLength(node alloc.Ptr) (int64, error) {
	content, err := s.h.ReadPtr(node.Payload().Add(format.NodeContentOffset))
	if err != nil {
		return 0, err
	}
	n, err := readCount(s.h, content)
	return int64(n), err
}

func readCount(h *alloc.Heap, content alloc.Ptr) (int, error) {
	var b [4]byte
	if err := h.ReadPayload(content, format.ContentCountOffset, b[:]); err != nil {
		return 0, err
	}
	return int(format.ReadU32(b[:], 0)), nil
}

// buffer caches one node's content buffer for the duration of an operation.
type buffer[T any] struct {
	node    alloc.Ptr
	content alloc.Ptr
	length  int // capacity in items
	count   int
	items   []T // nil until loaded
}

// load reads the header of the buffer owned by node.
func (t *Tree[T]) load(node alloc.Ptr) (*buffer[T], error) {
	content, err := t.nodes.Content(node)
	if err != nil {
		return nil, err
	}
	hd, err := t.h.Expect(content, t.kind.Content)
	if err != nil {
		return nil, fmt.Errorf("content: buffer of node %s: %w", node, err)
	}
	count, err := readCount(t.h, content)
	if err != nil {
		return nil, err
	}
	b := &buffer[T]{
		node:    node,
		content: content,
		length:  (hd.Size - format.ContentHeaderSize) / t.kind.Codec.Size,
		count:   count,
	}
	if count > b.length {
		return nil, &alloc.InvariantError{Addr: content, Msg: fmt.Sprintf("item count %d exceeds buffer length %d", count, b.length)}
	}
	return b, nil
}

// all returns the buffer's items, reading them on first use.
func (t *Tree[T]) all(b *buffer[T]) ([]T, error) {
	if b.items != nil {
		return b.items, nil
	}
	raw := make([]byte, b.count*t.kind.Codec.Size)
	if err := t.h.ReadPayload(b.content, format.ContentHeaderSize, raw); err != nil {
		return nil, err
	}
	b.items = t.kind.Codec.decodeAll(raw)
	return b.items, nil
}

// item reads a single item, served from the cache when loaded.
func (t *Tree[T]) item(b *buffer[T], i int) (T, error) {
	if b.items != nil {
		return b.items[i], nil
	}
	raw := make([]byte, t.kind.Codec.Size)
	if err := t.h.ReadPayload(b.content, format.ContentHeaderSize+i*t.kind.Codec.Size, raw); err != nil {
		var zero T
		return zero, err
	}
	return t.kind.Codec.Decode(raw), nil
}

// store replaces the buffer's items in place, rewriting slots from index
// from onward. items must fit the buffer's capacity.
func (t *Tree[T]) store(b *buffer[T], items []T, from int) error {
	if len(items) > b.length {
		return fmt.Errorf("content: %d items in buffer of %d: %w", len(items), b.length, alloc.ErrCorrupt)
	}
	if from < len(items) {
		raw := t.kind.Codec.encodeAll(items[from:])
		if err := t.h.WritePayload(b.content, format.ContentHeaderSize+from*t.kind.Codec.Size, raw); err != nil {
			return err
		}
	}
	if len(items) != b.count {
		var c [4]byte
		format.PutU32(c[:], 0, uint32(len(items)))
		if err := t.h.WritePayload(b.content, format.ContentCountOffset, c[:]); err != nil {
			return err
		}
	}
	b.items = items
	b.count = len(items)
	return nil
}

// createContent allocates a buffer of the given capacity holding items.
func (t *Tree[T]) createContent(owner alloc.Ptr, length int, items []T) (alloc.Ptr, error) {
	if length < len(items) {
		length = len(items)
	}
	var hdr [format.ContentHeaderSize]byte
	format.PutU48(hdr[:], format.ContentParentOffset, uint64(owner))
	format.PutU32(hdr[:], format.ContentCountOffset, uint32(len(items)))
	content, err := t.h.CreateTail(t.kind.Content, hdr[:], t.kind.Codec.Size, length)
	if err != nil {
		return alloc.Null, err
	}
	if len(items) > 0 {
		if err := t.h.WritePayload(content, format.ContentHeaderSize, t.kind.Codec.encodeAll(items)); err != nil {
			return alloc.Null, err
		}
	}
	return content, nil
}

// resize moves the buffer's content to a new alloc of capacity length
// holding items and refreshes the tree aggregates above it.
func (t *Tree[T]) resize(b *buffer[T], length int, items []T) error {
	content, err := t.createContent(b.node, length, items)
	if err != nil {
		return err
	}
	if err := t.nodes.SetContent(b.node, content); err != nil {
		return err
	}
	if err := t.h.DeleteAlloc(b.content); err != nil {
		return err
	}
	b.content, b.length, b.count, b.items = content, max(length, len(items)), len(items), items
	return t.nodes.BalanceNodes(b.node)
}

// createNode allocates a node and its buffer of capacity length holding items.
func (t *Tree[T]) createNode(length int, items []T) (alloc.Ptr, error) {
	content, err := t.createContent(alloc.Null, length, items)
	if err != nil {
		return alloc.Null, err
	}
	node, err := t.nodes.CreateNode(content, int64(len(items)))
	if err != nil {
		_ = t.h.DeleteAlloc(content)
		return alloc.Null, err
	}
	if err := t.h.WritePtr(content.Payload().Add(format.ContentParentOffset), node); err != nil {
		return alloc.Null, err
	}
	return node, nil
}

// deleteNode unlinks node and frees it together with its buffer.
func (t *Tree[T]) deleteNode(node alloc.Ptr) error {
	content, err := t.nodes.Content(node)
	if err != nil {
		return err
	}
	if err := t.nodes.RemoveNode(node); err != nil {
		return err
	}
	if err := t.h.DeleteAlloc(content); err != nil {
		return err
	}
	return t.h.DeleteAlloc(node)
}

// defaultLength is the capacity, in items, of a newly created buffer.
func (t *Tree[T]) defaultLength() int {
	size := t.kind.Codec.Size
	return max(1, (t.opts.DefaultContentSize+size-1)/size)
}

// maximumMoveLength is the capacity above which a buffer is shattered
// rather than edited.
func (t *Tree[T]) maximumMoveLength() int {
	return t.opts.MaximumMoveFactor * t.defaultLength()
}

// spread splits items into n runs whose lengths differ by at most one.
func spread[T any](items []T, n int) [][]T {
	runs := make([][]T, n)
	for j := range n {
		runs[j] = items[len(items)*j/n : len(items)*(j+1)/n]
	}
	return runs
}

// chunk splits items into runs of size, the last one possibly shorter.
func chunk[T any](items []T, size int) [][]T {
	var runs [][]T
	for len(items) > 0 {
		n := min(size, len(items))
		runs = append(runs, items[:n])
		items = items[n:]
	}
	return runs
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }
