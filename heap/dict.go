package heap

import (
	"fmt"
	"strings"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/content"
)

// Dict maps string keys to heap pointers. Entries are kept sorted by key;
// every key is stored as its own string tree.
type Dict struct {
	s *Store
	t *content.Tree[content.Entry]
}

// NewDict creates an empty dictionary.
func (s *Store) NewDict() (*Dict, error) {
	t, err := content.Create(s.h, content.Entries, s.opts.Content)
	if err != nil {
		return nil, err
	}
	return &Dict{s: s, t: t}, nil
}

// OpenDict opens the dictionary anchored at root.
func (s *Store) OpenDict(root alloc.Ptr) (*Dict, error) {
	t, err := content.Open(s.h, content.Entries, root, s.opts.Content)
	if err != nil {
		return nil, err
	}
	return &Dict{s: s, t: t}, nil
}

// Root returns the root pointer that identifies the dictionary.
func (d *Dict) Root() alloc.Ptr { return d.t.Root() }

// Len returns the number of entries.
func (d *Dict) Len() (int64, error) { return d.t.Len() }

// find locates key, returning the index where it is or would be inserted.
// Comparator failures are reported through the returned error.
func (d *Dict) find(key string) (int64, bool, error) {
	var readErr error
	idx, found, err := d.t.Search(func(e content.Entry) int {
		if readErr != nil {
			return 0
		}
		k, err := d.s.ReadString(e.Key)
		if err != nil {
			readErr = err
			return 0
		}
		return strings.Compare(k, key)
	})
	if readErr != nil {
		return 0, false, readErr
	}
	return idx, found, err
}

// Get returns the value stored under key.
func (d *Dict) Get(key string) (alloc.Ptr, bool, error) {
	idx, found, err := d.find(key)
	if err != nil || !found {
		return alloc.Null, false, err
	}
	e, err := d.t.Get(idx)
	return e.Value, err == nil, err
}

// Set stores value under key and returns the value it replaced, if any.
// The replaced value is not freed.
func (d *Dict) Set(key string, value alloc.Ptr) (alloc.Ptr, error) {
	idx, found, err := d.find(key)
	if err != nil {
		return alloc.Null, err
	}
	if found {
		e, err := d.t.Get(idx)
		if err != nil {
			return alloc.Null, err
		}
		old := e.Value
		e.Value = value
		return old, d.t.Set(idx, e)
	}
	k, err := d.s.PutString(key)
	if err != nil {
		return alloc.Null, err
	}
	if err := d.t.Insert(idx, content.Entry{Key: k, Value: value}); err != nil {
		if delErr := d.s.Delete(k); delErr != nil {
			return alloc.Null, fmt.Errorf("%w (freeing key: %v)", err, delErr)
		}
		return alloc.Null, err
	}
	return alloc.Null, nil
}

// Remove deletes key and returns its value, which is not freed.
func (d *Dict) Remove(key string) (alloc.Ptr, bool, error) {
	idx, found, err := d.find(key)
	if err != nil || !found {
		return alloc.Null, false, err
	}
	e, err := d.t.Get(idx)
	if err != nil {
		return alloc.Null, false, err
	}
	if err := d.t.DeleteAt(idx); err != nil {
		return alloc.Null, false, err
	}
	if err := d.s.Delete(e.Key); err != nil {
		return alloc.Null, false, err
	}
	return e.Value, true, nil
}

// Keys returns every key in order.
func (d *Dict) Keys() ([]string, error) {
	entries, err := d.t.Items()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		k, err := d.s.ReadString(e.Key)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// Drop frees the dictionary, its keys and, recursively, every tree its
// values point to.
func (d *Dict) Drop() error {
	return d.t.DeleteTree(func(entries []content.Entry) error {
		for _, e := range entries {
			if err := d.s.Delete(e.Key); err != nil {
				return err
			}
			if e.Value != alloc.Null {
				if err := d.s.Delete(e.Value); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Verify checks the dictionary's tree and that its keys are strictly ordered.
func (d *Dict) Verify() error {
	if err := d.t.Verify(); err != nil {
		return err
	}
	keys, err := d.Keys()
	if err != nil {
		return err
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1] >= keys[i] {
			return &alloc.InvariantError{Addr: d.Root(), Msg: "keys out of order: " + keys[i-1] + " >= " + keys[i]}
		}
	}
	return nil
}
