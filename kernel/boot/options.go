package boot

import (
	"github.com/cubed-guy/text-os/internal/config"
	"github.com/cubed-guy/text-os/kernel/heap"
	"github.com/cubed-guy/text-os/kernel/memory"
)

// Options controls how the machine is assembled.
type Options struct {
	// PhysicalSize is the simulated physical memory size in bytes.
	// Must be a non-zero multiple of the page size.
	PhysicalSize uint64

	// Backing selects where physical memory comes from (default: go).
	Backing memory.Backing

	// MemoryMap describes physical memory. Nil uses memory.DefaultMemoryMap.
	MemoryMap memory.MemoryMap

	// Heap configures the kernel heap.
	Heap heap.Config

	// Global boots the process-wide heap (heap.Global) instead of a
	// private one. It can succeed only once per process.
	Global bool
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{
		PhysicalSize: config.DefaultPhysicalSize,
		Backing:      memory.BackingGo,
		Heap:         heap.DefaultConfig(),
	}
}

// OptionsFromConfig converts a validated boot configuration.
func OptionsFromConfig(cfg config.Config) (Options, error) {
	hc, err := cfg.HeapConfig()
	if err != nil {
		return Options{}, err
	}
	backing, err := cfg.Backing()
	if err != nil {
		return Options{}, err
	}
	m, err := cfg.MemoryMap()
	if err != nil {
		return Options{}, err
	}
	return Options{
		PhysicalSize: uint64(cfg.Physical.Size),
		Backing:      backing,
		MemoryMap:    m,
		Heap:         hc,
	}, nil
}
