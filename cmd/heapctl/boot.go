package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cubed-guy/text-os/kernel/boot"
)

func init() {
	rootCmd.AddCommand(newBootCmd())
}

func newBootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "boot",
		Short: "Boot the machine and report the heap mapping",
		Long: `The boot command builds the simulated machine, maps the heap and prints
the memory map, frame usage and heap placement.

Example:
  heapctl boot
  heapctl boot --allocator bump --backing mmap
  heapctl boot --config boot.yaml --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoot()
		},
	}
}

// BootReport is the JSON form of a boot.
type BootReport struct {
	Allocator    string         `json:"allocator"`
	Backing      string         `json:"backing"`
	PhysicalSize uint64         `json:"physical_size"`
	HeapStart    string         `json:"heap_start"`
	HeapSize     uint64         `json:"heap_size"`
	HeapPages    int            `json:"heap_pages"`
	PageTables   int            `json:"page_tables"`
	FramesUsed   int            `json:"frames_used"`
	MemoryMap    []RegionReport `json:"memory_map"`
}

// RegionReport is one memory map entry.
type RegionReport struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Kind  string `json:"kind"`
}

func newBootReport(m *boot.Machine) BootReport {
	region := m.Heap.Region()
	r := BootReport{
		Allocator:    string(m.Heap.Config().Allocator),
		Backing:      string(m.Phys.Backing()),
		PhysicalSize: m.Phys.Size(),
		HeapStart:    fmt.Sprintf("%#x", uint64(region.Start)),
		HeapSize:     region.Size,
		HeapPages:    m.Heap.Pages(),
		PageTables:   m.PageTable.Tables(),
		FramesUsed:   m.Frames.Allocated(),
	}
	for _, mr := range m.MemoryMap {
		r.MemoryMap = append(r.MemoryMap, RegionReport{
			Start: fmt.Sprintf("%#x", uint64(mr.Start)),
			End:   fmt.Sprintf("%#x", uint64(mr.End)),
			Kind:  mr.Kind.String(),
		})
	}
	return r
}

func runBoot() error {
	m, err := bootMachine()
	if err != nil {
		return err
	}
	defer m.Close()

	report := newBootReport(m)
	if jsonOut {
		return printJSON(report)
	}

	printInfo("Physical memory: %d bytes (%s)\n", report.PhysicalSize, report.Backing)
	for _, mr := range report.MemoryMap {
		printInfo("  %s - %s  %s\n", mr.Start, mr.End, mr.Kind)
	}
	printInfo("Heap: %s, %d bytes, %s allocator\n", report.HeapStart, report.HeapSize, report.Allocator)
	printInfo("  pages mapped: %d\n", report.HeapPages)
	printInfo("  page tables:  %d\n", report.PageTables)
	printInfo("  frames used:  %d\n", report.FramesUsed)
	return nil
}
