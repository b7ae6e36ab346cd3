package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/alloc"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Display heap usage",
		Long: `The info command reports storage size, used and free span totals,
free bytes per degree and the number of allocs of each type.

Example:
  heapctl info data.heap
  heapctl info data.heap --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args)
		},
	}
}

type degreeJSON struct {
	Degree int   `json:"degree"`
	Spans  int   `json:"spans"`
	Bytes  int64 `json:"bytes"`
}

type infoJSON struct {
	File       string         `json:"file"`
	Storage    int64          `json:"storage"`
	UsedSpans  int            `json:"used_spans"`
	UsedBytes  int64          `json:"used_bytes"`
	FreeSpans  int            `json:"free_spans"`
	FreeBytes  int64          `json:"free_bytes"`
	Trailing   string         `json:"trailing"`
	FreeByDeg  []degreeJSON   `json:"free_by_degree"`
	AllocTypes map[string]int `json:"alloc_types"`
}

func runInfo(args []string) error {
	path := args[0]
	s, err := openStore(path, true)
	if err != nil {
		return err
	}
	defer s.Close()

	u, err := s.Heap().Usage()
	if err != nil {
		return fmt.Errorf("failed to walk heap: %w", err)
	}

	out := infoJSON{
		File:       path,
		Storage:    u.Storage,
		UsedSpans:  u.UsedSpans,
		UsedBytes:  u.UsedBytes,
		FreeSpans:  u.FreeSpans,
		FreeBytes:  u.FreeBytes,
		Trailing:   u.Trailing.String(),
		AllocTypes: make(map[string]int, len(u.AllocTypes)),
	}
	for typ, n := range u.AllocTypes {
		out.AllocTypes[typ.String()] = n
	}
	degrees := make([]int, 0, len(u.FreeByDeg))
	for d := range u.FreeByDeg {
		degrees = append(degrees, d)
	}
	slices.Sort(degrees)
	for _, d := range degrees {
		du := u.FreeByDeg[d]
		out.FreeByDeg = append(out.FreeByDeg, degreeJSON{Degree: d, Spans: du.Spans, Bytes: du.Bytes})
	}

	if jsonOut {
		return printJSON(out)
	}

	printInfo("\nHeap: %s\n", path)
	printInfo("%s\n", strings.Repeat("─", 60))
	printInfo("  Storage:     %d bytes\n", out.Storage)
	printInfo("  Used:        %d spans, %d bytes\n", out.UsedSpans, out.UsedBytes)
	printInfo("  Free:        %d spans, %d bytes\n", out.FreeSpans, out.FreeBytes)
	printInfo("  Trailing:    %s\n", out.Trailing)

	if len(out.FreeByDeg) > 0 {
		printInfo("\nFree spans by degree:\n")
		for _, d := range out.FreeByDeg {
			printInfo("  %3d  %6d spans  %10d bytes  (>= %d)\n",
				d.Degree, d.Spans, d.Bytes, alloc.DegreeToSize(d.Degree))
		}
	}

	if len(out.AllocTypes) > 0 {
		printInfo("\nAllocs by type:\n")
		names := make([]string, 0, len(out.AllocTypes))
		for name := range out.AllocTypes {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			printInfo("  %-16s %d\n", name, out.AllocTypes[name])
		}
	}
	printInfo("\n")
	return nil
}
