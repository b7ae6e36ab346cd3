package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/heap/alloc"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "verify <file>",
		Short: "Check allocator and tree invariants",
		Long: `The verify command checks every allocator invariant: neighbor links,
free buckets, degrees and the trailing span. It then verifies the
structure of each string, list, dictionary and vector tree in the heap.

Example:
  heapctl verify data.heap`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(args)
		},
	})
}

type verifyJSON struct {
	File   string   `json:"file"`
	Valid  bool     `json:"valid"`
	Trees  int      `json:"trees"`
	Errors []string `json:"errors,omitempty"`
}

func runVerify(args []string) error {
	path := args[0]
	s, err := openStore(path, true)
	if err != nil {
		return err
	}
	defer s.Close()

	result := verifyJSON{File: path}
	if err := s.Check(); err != nil {
		result.Errors = append(result.Errors, err.Error())
	} else {
		var roots []alloc.Ptr
		err := s.Heap().Walk(func(si alloc.SpanInfo) error {
			if !si.Free && si.Size >= 0 && heap.IsTreeRoot(si.Type) {
				roots = append(roots, si.Addr)
			}
			return nil
		})
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
		}
		for _, root := range roots {
			printVerbose("Verifying tree %s\n", root)
			if err := s.VerifyTree(root); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("tree %s: %v", root, err))
			}
			result.Trees++
		}
	}
	result.Valid = len(result.Errors) == 0

	if jsonOut {
		if err := printJSON(result); err != nil {
			return err
		}
	} else if result.Valid {
		printInfo("%s: ok (%d trees)\n", path, result.Trees)
	} else {
		for _, e := range result.Errors {
			printInfo("  %s\n", e)
		}
	}
	if !result.Valid {
		return errors.New("verification failed")
	}
	return nil
}
