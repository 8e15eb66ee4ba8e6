package main

import (
	"fmt"
	"strings"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/cubed-guy/text-os/kernel/alloc"
	"github.com/cubed-guy/text-os/kernel/boot"
)

func init() {
	rootCmd.AddCommand(newExerciseCmd())
}

func newExerciseCmd() *cobra.Command {
	var names []string
	for _, w := range boot.Workloads {
		names = append(names, w.Name)
	}
	return &cobra.Command{
		Use:   "exercise [workload...]",
		Short: "Run heap workloads",
		Long: fmt.Sprintf(`The exercise command boots the machine and runs heap workloads against it,
then prints allocator statistics. With no arguments every workload runs.

Workloads: %s

Example:
  heapctl exercise
  heapctl exercise many_boxes --allocator bump`, strings.Join(names, ", ")),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExercise(args)
		},
	}
}

// ExerciseReport is the JSON form of an exercise run.
type ExerciseReport struct {
	Allocator string        `json:"allocator"`
	Results   []boot.Result `json:"results"`
	Stats     alloc.Stats   `json:"stats"`
}

func runExercise(args []string) error {
	workloads := boot.Workloads
	if len(args) > 0 {
		workloads = nil
		for _, name := range args {
			w, ok := boot.FindWorkload(name)
			if !ok {
				return fmt.Errorf("unknown workload %q", name)
			}
			workloads = append(workloads, w)
		}
	}

	m, err := bootMachine()
	if err != nil {
		return err
	}
	defer m.Close()

	report := ExerciseReport{Allocator: string(m.Heap.Config().Allocator)}
	for _, w := range workloads {
		printVerbose("Running %s: %s\n", w.Name, w.Description)
		r, err := w.Run(m.Heap)
		if err != nil {
			return fmt.Errorf("%s: %w", w.Name, err)
		}
		log.Info().Str("workload", w.Name).Int("allocations", r.Allocations).Msg("workload passed")
		report.Results = append(report.Results, r)
	}
	report.Stats = m.Heap.Stats()

	if jsonOut {
		return printJSON(report)
	}

	printInfo("%s allocator\n", report.Allocator)
	for _, r := range report.Results {
		printInfo("  %-18s ok  %d allocations, peak %d bytes\n", r.Name, r.Allocations, r.PeakBytes)
	}
	s := report.Stats
	printInfo("Stats:\n")
	printInfo("  alloc calls:  %d (%d failed)\n", s.AllocCalls, s.AllocFailed)
	printInfo("  free calls:   %d\n", s.FreeCalls)
	printInfo("  bytes:        %d allocated, %d freed\n", s.BytesAllocated, s.BytesFreed)
	printInfo("  live:         %d\n", s.Live)
	return nil
}
