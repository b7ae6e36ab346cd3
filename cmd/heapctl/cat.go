package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/content"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "cat <file> <root>",
		Short: "Print the value anchored at a root pointer",
		Long: `The cat command prints the tree anchored at root. Strings print as
text, lists print one element per line, dictionaries print key = value
lines and vectors print one number per line. Elements that are strings
are shown as quoted text; other elements are shown as pointers.

Example:
  heapctl cat data.heap 0x3F6`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCat(args)
		},
	})
}

func runCat(args []string) error {
	root, err := parsePtr(args[1])
	if err != nil {
		return err
	}
	s, err := openStore(args[0], true)
	if err != nil {
		return err
	}
	defer s.Close()

	v, err := render(s, root)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(v)
	}
	switch v := v.(type) {
	case string:
		fmt.Fprintln(stdout, v)
	case []any:
		for _, item := range v {
			fmt.Fprintln(stdout, display(item))
		}
	case map[string]any:
		keys, err := dictKeys(s, root)
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Fprintf(stdout, "%s = %s\n", k, display(v[k]))
		}
	}
	return nil
}

// render loads the tree at root one level deep: list and dictionary
// elements that are strings are inlined, anything else stays a pointer.
func render(s *heap.Store, root alloc.Ptr) (any, error) {
	typ, err := s.Heap().Type(root)
	if err != nil {
		return nil, err
	}
	switch typ {
	case alloc.TypeStringRoot:
		return s.ReadString(root)
	case alloc.TypeListRoot:
		list, err := s.OpenList(root)
		if err != nil {
			return nil, err
		}
		ptrs, err := list.Items()
		if err != nil {
			return nil, err
		}
		out := make([]any, len(ptrs))
		for i, p := range ptrs {
			if out[i], err = element(s, p); err != nil {
				return nil, err
			}
		}
		return out, nil
	case alloc.TypeDictRoot:
		d, err := s.OpenDict(root)
		if err != nil {
			return nil, err
		}
		keys, err := d.Keys()
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(keys))
		for _, k := range keys {
			p, _, err := d.Get(k)
			if err != nil {
				return nil, err
			}
			if out[k], err = element(s, p); err != nil {
				return nil, err
			}
		}
		return out, nil
	case alloc.TypeVectorRoot:
		t, err := content.Open(s.Heap(), content.Uint64s, root, nil)
		if err != nil {
			return nil, err
		}
		nums, err := t.Items()
		if err != nil {
			return nil, err
		}
		out := make([]any, len(nums))
		for i, n := range nums {
			out[i] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s is a %s alloc, not a tree root", root, typ)
	}
}

func element(s *heap.Store, p alloc.Ptr) (any, error) {
	if p == alloc.Null {
		return nil, nil
	}
	typ, err := s.Heap().Type(p)
	if err != nil {
		return nil, err
	}
	if typ == alloc.TypeStringRoot {
		return s.ReadString(p)
	}
	return p, nil
}

func display(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	case alloc.Ptr:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func dictKeys(s *heap.Store, root alloc.Ptr) ([]string, error) {
	d, err := s.OpenDict(root)
	if err != nil {
		return nil, err
	}
	return d.Keys()
}
