package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/alloc"
)

var spansFree bool

func init() {
	cmd := &cobra.Command{
		Use:   "spans <file>",
		Short: "List every span in address order",
		Long: `The spans command walks the heap from the first span to the trailing
span and prints the address, payload size, degree and state of each.

Example:
  heapctl spans data.heap
  heapctl spans data.heap --free --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSpans(args)
		},
	}
	cmd.Flags().BoolVar(&spansFree, "free", false, "Only list bucketed free spans (the trailing span is left out)")
	rootCmd.AddCommand(cmd)
}

type spanJSON struct {
	Addr      string `json:"addr"`
	Size      int64  `json:"size"`
	Degree    int    `json:"degree"`
	State     string `json:"state"`
	Type      string `json:"type,omitempty"`
	AllocSize int    `json:"alloc_size,omitempty"`
}

func spanState(s alloc.SpanInfo) string {
	switch {
	case s.Size < 0:
		return "trailing"
	case s.Free:
		return "free"
	default:
		return "used"
	}
}

func runSpans(args []string) error {
	s, err := openStore(args[0], true)
	if err != nil {
		return err
	}
	defer s.Close()

	var spans []spanJSON
	err = s.Heap().Walk(func(si alloc.SpanInfo) error {
		if spansFree && (!si.Free || si.Size < 0) {
			return nil
		}
		out := spanJSON{
			Addr:   si.Addr.String(),
			Size:   si.Size,
			Degree: si.Degree,
			State:  spanState(si),
		}
		if !si.Free && si.Size >= 0 {
			out.Type = si.Type.String()
			out.AllocSize = si.AllocSize
		}
		spans = append(spans, out)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk heap: %w", err)
	}

	if jsonOut {
		return printJSON(spans)
	}
	printInfo("%-14s %-10s %-4s %-9s %s\n", "ADDR", "SIZE", "DEG", "STATE", "TYPE")
	for _, sp := range spans {
		size := fmt.Sprint(sp.Size)
		if sp.Size < 0 {
			size = "-"
		}
		printInfo("%-14s %-10s %-4d %-9s %s\n", sp.Addr, size, sp.Degree, sp.State, sp.Type)
	}
	printVerbose("%d spans\n", len(spans))
	return nil
}
