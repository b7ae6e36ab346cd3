package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rmTrim bool

func init() {
	cmd := &cobra.Command{
		Use:   "rm <file> <root>...",
		Short: "Free the trees anchored at root pointers",
		Long: `The rm command frees each tree anchored at the given roots. Lists and
dictionaries are freed together with every value they reference.
With --trim unused trailing pages are returned to the file afterwards.

Example:
  heapctl rm data.heap 0x3F6
  heapctl rm data.heap 0x3F6 0x52A --trim`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRm(args)
		},
	}
	cmd.Flags().BoolVar(&rmTrim, "trim", false, "Shrink the file after freeing")
	rootCmd.AddCommand(cmd)
}

func runRm(args []string) error {
	path := args[0]
	s, err := openStore(path, false)
	if err != nil {
		return err
	}

	for _, arg := range args[1:] {
		root, err := parsePtr(arg)
		if err != nil {
			_ = s.Close()
			return err
		}
		if err := s.Delete(root); err != nil {
			_ = s.Close()
			return fmt.Errorf("failed to free %s: %w", root, err)
		}
		printVerbose("Freed %s\n", root)
	}
	if rmTrim {
		if err := s.Trim(); err != nil {
			_ = s.Close()
			return fmt.Errorf("failed to trim: %w", err)
		}
	}
	size := s.Storage().Size()
	if err := s.Close(); err != nil {
		return fmt.Errorf("failed to close heap: %w", err)
	}
	printInfo("Freed %d roots (%d bytes)\n", len(args)-1, size)
	return nil
}
