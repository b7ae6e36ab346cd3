package heap

import (
	"context"
	"fmt"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/content"
	"github.com/joshuapare/heapkit/heap/storage"
	"github.com/joshuapare/heapkit/heap/tree"
	"github.com/joshuapare/heapkit/internal/logger"
)

// Options configures a Store. A nil *Options selects the defaults.
type Options struct {
	// Alloc tunes the allocator; nil selects alloc.DefaultConfig.
	Alloc *alloc.Config

	// Content tunes buffer sizing of trees; nil selects content.DefaultOptions.
	Content *content.Options

	// ReadOnly opens file storage read-only and refuses to initialize
	// storage that holds no heap.
	ReadOnly bool
}

// Store is an open heap.
type Store struct {
	st      storage.Storage
	h       *alloc.Heap
	opts    Options
	created bool
	closed  bool
}

// Open attaches a Store to st, creating the heap when st has never been
// marked with a version.
func Open(st storage.Storage, opts *Options) (*Store, error) {
	var o Options
	if opts != nil {
		o = *opts
	}
	s := &Store{st: st, opts: o}

	var err error
	if _, ok := st.Version(); ok {
		s.h, err = alloc.Load(st, o.Alloc)
		if err != nil {
			return nil, fmt.Errorf("heap: load: %w", err)
		}
		logger.Debug("heap: loaded", "size", st.Size(), "trailing", s.h.Trailing())
		return s, nil
	}

	if o.ReadOnly {
		return nil, ErrUninitialized
	}
	if s.h, err = alloc.Create(st, o.Alloc); err != nil {
		return nil, fmt.Errorf("heap: create: %w", err)
	}
	if err := st.MarkVersion(); err != nil {
		return nil, fmt.Errorf("heap: mark version: %w", err)
	}
	s.created = true
	logger.Debug("heap: created", "size", st.Size())
	return s, nil
}

// OpenFile opens or creates a heap file at path.
func OpenFile(path string, opts *Options) (*Store, error) {
	var ro bool
	if opts != nil {
		ro = opts.ReadOnly
	}
	f, err := storage.OpenFile(path, &storage.FileOptions{ReadOnly: ro})
	if err != nil {
		return nil, err
	}
	s, err := Open(f, opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return s, nil
}

// Heap returns the allocator of the store.
func (s *Store) Heap() *alloc.Heap { return s.h }

// Storage returns the storage the store lives in.
func (s *Store) Storage() storage.Storage { return s.st }

// Created reports whether Open initialized a fresh heap.
func (s *Store) Created() bool { return s.created }

// Check verifies the allocator invariants.
func (s *Store) Check() error {
	if s.closed {
		return ErrClosed
	}
	return s.h.Verify()
}

// Trim returns unused trailing pages to the storage.
func (s *Store) Trim() error {
	if s.closed {
		return ErrClosed
	}
	return s.h.Trim()
}

// Flush makes written data durable when the storage buffers writes.
func (s *Store) Flush(ctx context.Context) error {
	if s.closed {
		return ErrClosed
	}
	if f, ok := s.st.(storage.Flusher); ok {
		return f.Flush(ctx)
	}
	return nil
}

// Close flushes and releases the storage. Further use of the store or its
// trees fails.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	flushErr := s.Flush(context.Background())
	s.closed = true
	if c, ok := s.st.(storage.Closer); ok {
		if err := c.Close(); err != nil {
			return err
		}
	}
	return flushErr
}

// NewBytes creates an empty string tree.
func (s *Store) NewBytes() (*content.Tree[byte], error) {
	return content.Create(s.h, content.Bytes, s.opts.Content)
}

// OpenBytes opens the string tree anchored at root.
func (s *Store) OpenBytes(root alloc.Ptr) (*content.Tree[byte], error) {
	return content.Open(s.h, content.Bytes, root, s.opts.Content)
}

// NewList creates an empty list of heap pointers.
func (s *Store) NewList() (*content.Tree[alloc.Ptr], error) {
	return content.Create(s.h, content.Pointers, s.opts.Content)
}

// OpenList opens the list anchored at root.
func (s *Store) OpenList(root alloc.Ptr) (*content.Tree[alloc.Ptr], error) {
	return content.Open(s.h, content.Pointers, root, s.opts.Content)
}

// PutString stores str as a new string tree and returns its root.
func (s *Store) PutString(str string) (alloc.Ptr, error) {
	t, err := s.NewBytes()
	if err != nil {
		return alloc.Null, err
	}
	if err := t.Append([]byte(str)...); err != nil {
		if delErr := t.DeleteTree(nil); delErr != nil {
			return alloc.Null, fmt.Errorf("%w (freeing root: %v)", err, delErr)
		}
		return alloc.Null, err
	}
	return t.Root(), nil
}

// ReadString returns the content of the string tree anchored at root.
func (s *Store) ReadString(root alloc.Ptr) (string, error) {
	t, err := s.OpenBytes(root)
	if err != nil {
		return "", err
	}
	b, err := t.Items()
	return string(b), err
}

// Delete frees the tree anchored at root, recursing into lists and
// dictionaries so that every string, list and dictionary they reference is
// freed too. Raw allocs are freed as they are.
func (s *Store) Delete(root alloc.Ptr) error {
	typ, err := s.h.Type(root)
	if err != nil {
		return err
	}
	switch typ {
	case alloc.TypeStringRoot:
		t, err := s.OpenBytes(root)
		if err != nil {
			return err
		}
		return t.DeleteTree(nil)
	case alloc.TypeListRoot:
		t, err := s.OpenList(root)
		if err != nil {
			return err
		}
		return t.DeleteTree(s.deleteAll)
	case alloc.TypeDictRoot:
		d, err := s.OpenDict(root)
		if err != nil {
			return err
		}
		return d.Drop()
	case alloc.TypeVectorRoot:
		t, err := content.Open(s.h, content.Uint64s, root, s.opts.Content)
		if err != nil {
			return err
		}
		return t.DeleteTree(nil)
	default:
		return s.h.DeleteAlloc(root)
	}
}

func (s *Store) deleteAll(items []alloc.Ptr) error {
	for _, p := range items {
		if p == alloc.Null {
			continue
		}
		if err := s.Delete(p); err != nil {
			return err
		}
	}
	return nil
}

// VerifyTree checks the structure of the tree anchored at root. Roots that
// are not trees are rejected with tree.ErrNotRoot.
func (s *Store) VerifyTree(root alloc.Ptr) error {
	typ, err := s.h.Type(root)
	if err != nil {
		return err
	}
	switch typ {
	case alloc.TypeStringRoot:
		t, err := s.OpenBytes(root)
		if err != nil {
			return err
		}
		return t.Verify()
	case alloc.TypeListRoot:
		t, err := s.OpenList(root)
		if err != nil {
			return err
		}
		return t.Verify()
	case alloc.TypeDictRoot:
		d, err := s.OpenDict(root)
		if err != nil {
			return err
		}
		return d.Verify()
	case alloc.TypeVectorRoot:
		t, err := content.Open(s.h, content.Uint64s, root, s.opts.Content)
		if err != nil {
			return err
		}
		return t.Verify()
	default:
		return fmt.Errorf("heap: %s is a %s alloc: %w", root, typ, tree.ErrNotRoot)
	}
}

// IsTreeRoot reports whether typ tags the root of a tree kind the store
// understands.
func IsTreeRoot(typ alloc.Type) bool {
	switch typ {
	case alloc.TypeStringRoot, alloc.TypeListRoot, alloc.TypeDictRoot, alloc.TypeVectorRoot:
		return true
	}
	return false
}
