package alloc

import (
	"fmt"
	"math/bits"

	"github.com/cubed-guy/text-os/internal/format"
)

// SizeClassConfig defines the block sizes of a SegregatedAllocator.
// Classes are the powers of two from MinBlock to MaxBlock inclusive.
type SizeClassConfig struct {
	// Name for this configuration (for diagnostics)
	Name string

	MinBlock uint64 // Smallest block; must hold a link word
	MaxBlock uint64 // Largest block; bigger requests go to the fallback
}

// Predefined configurations.
var (
	// PowerOfTwo: 8, 16, 32, 64, 128, 256, 512, 1024, 2048 (9 classes).
	ConfigPowerOfTwo = SizeClassConfig{
		Name:     "PowerOfTwo",
		MinBlock: 8,
		MaxBlock: 2048,
	}

	// Coarse: 16 through 4096 (9 classes). Fewer tiny blocks, more slack.
	ConfigCoarse = SizeClassConfig{
		Name:     "Coarse",
		MinBlock: 16,
		MaxBlock: 4096,
	}

	// Default configuration (used if none specified).
	DefaultConfig = ConfigPowerOfTwo
)

// Validate checks that both bounds are powers of two, MinBlock can hold a
// link word and MinBlock <= MaxBlock.
func (c SizeClassConfig) Validate() error {
	switch {
	case !format.IsPowerOfTwo(c.MinBlock) || !format.IsPowerOfTwo(c.MaxBlock):
		return fmt.Errorf("%w: bounds %d..%d must be powers of two", ErrBadSizeClass, c.MinBlock, c.MaxBlock)
	case c.MinBlock < format.LinkSize:
		return fmt.Errorf("%w: min block %d cannot hold a %d-byte link", ErrBadSizeClass, c.MinBlock, format.LinkSize)
	case c.MinBlock > c.MaxBlock:
		return fmt.Errorf("%w: min block %d exceeds max block %d", ErrBadSizeClass, c.MinBlock, c.MaxBlock)
	}
	return nil
}

// sizeClassTable holds the computed block sizes, smallest first.
type sizeClassTable struct {
	config SizeClassConfig
	sizes  []uint64
}

// newSizeClassTable computes block sizes from config.
func newSizeClassTable(config SizeClassConfig) (*sizeClassTable, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	n := bits.TrailingZeros64(config.MaxBlock) - bits.TrailingZeros64(config.MinBlock) + 1
	table := &sizeClassTable{
		config: config,
		sizes:  make([]uint64, 0, n),
	}
	for size := config.MinBlock; size <= config.MaxBlock && size != 0; size <<= 1 {
		table.sizes = append(table.sizes, size)
	}
	return table, nil
}

// classFor returns the index of the smallest class whose block covers both
// size and align. ok is false when the request exceeds the largest class.
func (t *sizeClassTable) classFor(size, align uint64) (int, bool) {
	required := max(size, align)

	// Binary search for the smallest block >= required
	lo, hi := 0, len(t.sizes)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		if required <= t.sizes[mid] {
			if mid == 0 || required > t.sizes[mid-1] {
				return mid, true
			}
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	return len(t.sizes), false
}

// blockSize returns the block size of class i.
func (t *sizeClassTable) blockSize(i int) uint64 {
	return t.sizes[i]
}

// String returns a human-readable description of the size class table.
func (t *sizeClassTable) String() string {
	return t.config.Name
}

// NumClasses returns the number of size classes.
func (t *sizeClassTable) NumClasses() int {
	return len(t.sizes)
}
