// Package format holds the fixed binary layouts shared by the heap allocators
// and the page-table simulation: word and page geometry, the intrusive
// free-block node layout, and alignment arithmetic. Nothing here touches
// memory directly; callers pair these constants with a word accessor.
package format

const (
	// WordSize is the width of every load and store issued against heap or
	// page-table memory. All intrusive headers are built from whole words.
	WordSize = 8

	// WordAlignmentMask is the bitmask used for aligning to word boundaries (WordSize - 1).
	WordAlignmentMask = WordSize - 1

	// PageShift is log2(PageSize).
	PageShift = 12

	// PageSize is the size of a 4 KiB page or frame.
	PageSize = 1 << PageShift

	// PageAlignmentMask is the bitmask used for aligning to 4KB boundaries (PageSize - 1).
	PageAlignmentMask = PageSize - 1
)

// Free-block node layout (free-list allocator). A node lives inside the free
// region it describes:
//
//	0x00  size  uint64  total bytes in the free region, node included
//	0x08  next  uint64  address of the next node, 0 = end of list
const (
	// NodeSizeOffset is the offset of the region size word.
	NodeSizeOffset = 0x00

	// NodeNextOffset is the offset of the next-node word.
	NodeNextOffset = 0x08

	// NodeSize is the number of bytes a free-block node occupies. It is the
	// minimum size of any free region.
	NodeSize = 0x10

	// NodeAlign is the natural alignment of a free-block node.
	NodeAlign = WordSize
)

// Size-class link layout (segregated allocator). A free fixed-size block only
// stores the address of the next free block of the same class:
//
//	0x00  next  uint64  address of the next block, 0 = end of list
const (
	// LinkNextOffset is the offset of the next-block word.
	LinkNextOffset = 0x00

	// LinkSize is the number of bytes a link occupies. The smallest size
	// class must be at least this large.
	LinkSize = WordSize
)
