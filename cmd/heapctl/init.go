package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var initForce bool

func init() {
	cmd := &cobra.Command{
		Use:   "init <file>",
		Short: "Create an empty heap file",
		Long: `The init command creates a new heap file holding an empty heap.

Example:
  heapctl init data.heap
  heapctl init data.heap --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(args)
		},
	}
	cmd.Flags().BoolVar(&initForce, "force", false, "Replace an existing file")
	rootCmd.AddCommand(cmd)
}

func runInit(args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err == nil {
		if !initForce {
			return fmt.Errorf("%s already exists (use --force to replace it)", path)
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}

	s, err := openStore(path, false)
	if err != nil {
		return err
	}
	size := s.Storage().Size()
	if err := s.Close(); err != nil {
		return fmt.Errorf("failed to close heap: %w", err)
	}

	if jsonOut {
		return printJSON(map[string]any{"file": path, "size": size})
	}
	printInfo("Created %s (%d bytes)\n", path, size)
	return nil
}
