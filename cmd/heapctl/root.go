package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/internal/logger"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
	logFile string

	stdout io.Writer = os.Stdout
)

var rootCmd = &cobra.Command{
	Use:   "heapctl",
	Short: "Inspect and edit heapkit files",
	Long: `heapctl is a tool for inspecting and editing heapkit files: single-file
heaps holding strings, lists and dictionaries. It reports allocator usage,
lists spans, verifies every invariant and stores or prints values.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		return logger.Init(logger.Options{
			Enabled: verbose || logFile != "",
			Path:    logFile,
			Level:   level,
		})
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and debug logging")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// openStore opens the heap file at path.
func openStore(path string, readOnly bool) (*heap.Store, error) {
	printVerbose("Opening heap: %s\n", path)
	s, err := heap.OpenFile(path, &heap.Options{ReadOnly: readOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to open heap: %w", err)
	}
	return s, nil
}

// parsePtr accepts decimal or 0x-prefixed hexadecimal addresses.
func parsePtr(s string) (alloc.Ptr, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return alloc.Null, fmt.Errorf("invalid pointer %q: %w", s, err)
	}
	return alloc.Ptr(v), nil
}
