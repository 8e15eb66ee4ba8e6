package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cubed-guy/text-os/kernel/alloc"
)

var (
	classesSize  uint64
	classesAlign uint64
)

func init() {
	cmd := newClassesCmd()
	cmd.Flags().Uint64Var(&classesSize, "size", 0, "Show which class serves a request of this size")
	cmd.Flags().Uint64Var(&classesAlign, "align", 1, "Alignment of the --size request")
	rootCmd.AddCommand(cmd)
}

func newClassesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classes",
		Short: "Show the fixed_size allocator's size classes",
		Long: `The classes command lists the block sizes of the fixed_size allocator.
With --size it reports which class would serve a request, or that the
request bypasses the classes.

Example:
  heapctl classes
  heapctl classes --size 3 --align 1
  heapctl classes --config boot.yaml --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClasses(cmd.Flags().Changed("size"))
		},
	}
}

// ClassesReport is the JSON form of the classes command.
type ClassesReport struct {
	Config     string   `json:"config"`
	BlockSizes []uint64 `json:"block_sizes"`
	Request    *struct {
		Size     uint64 `json:"size"`
		Align    uint64 `json:"align"`
		Block    uint64 `json:"block,omitempty"`
		Fallback bool   `json:"fallback"`
	} `json:"request,omitempty"`
}

func runClasses(withRequest bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	hc, err := cfg.HeapConfig()
	if err != nil {
		return err
	}
	a, err := alloc.NewSegregated(hc.SizeClasses)
	if err != nil {
		return err
	}

	report := ClassesReport{Config: a.Config().Name, BlockSizes: a.BlockSizes()}
	if withRequest {
		l, err := alloc.NewLayout(classesSize, classesAlign)
		if err != nil {
			return err
		}
		block, ok := a.ClassFor(l)
		report.Request = &struct {
			Size     uint64 `json:"size"`
			Align    uint64 `json:"align"`
			Block    uint64 `json:"block,omitempty"`
			Fallback bool   `json:"fallback"`
		}{Size: l.Size, Align: l.Align, Block: block, Fallback: !ok}
	}

	if jsonOut {
		return printJSON(report)
	}

	printInfo("Size classes (%s):\n", report.Config)
	for i, b := range report.BlockSizes {
		printInfo("  %2d  %d bytes\n", i, b)
	}
	if r := report.Request; r != nil {
		if r.Fallback {
			printInfo("%s: served by the linked-list fallback\n", describe(r.Size, r.Align))
		} else {
			printInfo("%s: served by the %d-byte class\n", describe(r.Size, r.Align), r.Block)
		}
	}
	return nil
}

func describe(size, align uint64) string {
	return fmt.Sprintf("size %d align %d", size, align)
}
