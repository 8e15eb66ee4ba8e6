package heap

import (
	"fmt"

	"github.com/cubed-guy/text-os/internal/format"
	"github.com/cubed-guy/text-os/kernel/alloc"
	"github.com/cubed-guy/text-os/kernel/memory"
)

// Default heap placement. The start address is arbitrary but recognisable
// in page-table dumps.
const (
	DefaultStart alloc.Addr = 0x4eab_a2ea_0000
	DefaultSize  uint64     = 128 * 1024
)

// AllocatorKind selects the strategy behind a Heap.
type AllocatorKind string

const (
	KindBump       AllocatorKind = "bump"
	KindLinkedList AllocatorKind = "linked_list"
	KindFixedSize  AllocatorKind = "fixed_size"
)

// Kinds lists every AllocatorKind.
var Kinds = []AllocatorKind{KindBump, KindLinkedList, KindFixedSize}

// ParseAllocatorKind parses an allocator kind name. An empty string yields
// KindFixedSize.
func ParseAllocatorKind(s string) (AllocatorKind, error) {
	if s == "" {
		return KindFixedSize, nil
	}
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAllocator, s)
}

// Config controls heap placement and strategy.
type Config struct {
	// Start is the first virtual address of the heap.
	Start alloc.Addr

	// Size is the heap length in bytes. Every page touching
	// [Start, Start+Size) is mapped during Init.
	Size uint64

	// Allocator selects the allocation strategy (default: fixed_size).
	Allocator AllocatorKind

	// SizeClasses configures the fixed_size allocator. Nil uses
	// alloc.DefaultConfig; ignored by other kinds.
	SizeClasses *alloc.SizeClassConfig
}

// DefaultConfig returns the default heap configuration.
func DefaultConfig() Config {
	return Config{
		Start:     DefaultStart,
		Size:      DefaultSize,
		Allocator: KindFixedSize,
	}
}

// Region returns the heap region described by c.
func (c Config) Region() alloc.Region {
	return alloc.Region{Start: c.Start, Size: c.Size}
}

// Validate checks the region and allocator settings.
func (c Config) Validate() error {
	if err := c.Region().Validate(); err != nil {
		return err
	}
	if !c.Start.IsCanonical() || !(c.Start + alloc.Addr(c.Size-1)).IsCanonical() {
		return fmt.Errorf("heap %v: %w", c.Region(), memory.ErrNonCanonical)
	}
	kind, err := ParseAllocatorKind(string(c.Allocator))
	if err != nil {
		return err
	}
	// Both list allocators seed a free node at Start.
	if kind != KindBump {
		if !format.IsAligned(uint64(c.Start), format.NodeAlign) {
			return fmt.Errorf("heap %v: start not %d-byte aligned: %w", c.Region(), format.NodeAlign, alloc.ErrBadRegion)
		}
		if c.Size < format.NodeSize {
			return fmt.Errorf("heap %v: smaller than a %d-byte free node: %w", c.Region(), format.NodeSize, alloc.ErrBadRegion)
		}
	}
	if c.SizeClasses != nil {
		if err := c.SizeClasses.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// newAllocator builds the locked allocator selected by c.
func (c Config) newAllocator() (alloc.HeapAllocator, error) {
	kind, err := ParseAllocatorKind(string(c.Allocator))
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindBump:
		return alloc.NewLocked(alloc.NewBump()), nil
	case KindLinkedList:
		return alloc.NewLocked(alloc.NewFreeList()), nil
	default:
		a, err := alloc.NewSegregated(c.SizeClasses)
		if err != nil {
			return nil, err
		}
		return alloc.NewLocked(a), nil
	}
}
