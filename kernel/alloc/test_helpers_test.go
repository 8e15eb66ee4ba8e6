package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cubed-guy/text-os/internal/format"
	"github.com/cubed-guy/text-os/kernel/memory"
)

const testHeapStart = Addr(0x4eab_a2ea_0000)

// newTestHeap returns flat memory of size bytes mapped at testHeapStart and
// the region covering it.
func newTestHeap(t testing.TB, size uint64) (*memory.Flat, Region) {
	t.Helper()
	mem := memory.NewFlat(testHeapStart, make([]byte, size))
	return mem, Region{Start: testHeapStart, Size: size}
}

// block is one live allocation tracked by a liveSet.
type block struct {
	ptr    Addr
	layout Layout
	tag    uint64
}

// liveSet checks the guarantees every allocator gives for live blocks: they
// are inside the region, aligned, pairwise disjoint, and their contents are
// not disturbed by other allocations or frees.
type liveSet struct {
	t      testing.TB
	mem    Memory
	region Region
	blocks []block
}

func newLiveSet(t testing.TB, mem Memory, region Region) *liveSet {
	return &liveSet{t: t, mem: mem, region: region}
}

// claim records a fresh allocation and stamps tag into each of its words.
func (s *liveSet) claim(ptr Addr, layout Layout, tag uint64) {
	s.t.Helper()
	require.NotEqual(s.t, Null, ptr)
	require.True(s.t, format.IsAligned(uint64(ptr), layout.Align), "%#x not aligned to %d", uint64(ptr), layout.Align)
	require.True(s.t, s.region.Contains(ptr, layout.Size), "%#x+%d outside %v", uint64(ptr), layout.Size, s.region)
	for _, b := range s.blocks {
		overlap := ptr < b.ptr+Addr(b.layout.Size) && b.ptr < ptr+Addr(layout.Size)
		require.False(s.t, overlap, "%#x+%d overlaps live %#x+%d", uint64(ptr), layout.Size, uint64(b.ptr), b.layout.Size)
	}
	s.blocks = append(s.blocks, block{ptr: ptr, layout: layout, tag: tag})
	s.stamp(ptr, layout.Size, tag)
}

// release forgets block i (swap-remove) after checking its contents.
func (s *liveSet) release(i int) block {
	s.t.Helper()
	b := s.blocks[i]
	s.verify(b)
	s.blocks[i] = s.blocks[len(s.blocks)-1]
	s.blocks = s.blocks[:len(s.blocks)-1]
	return b
}

// verifyAll checks every live block still holds its tag.
func (s *liveSet) verifyAll() {
	s.t.Helper()
	for _, b := range s.blocks {
		s.verify(b)
	}
}

func (s *liveSet) verify(b block) {
	s.t.Helper()
	for off := uint64(0); off+format.WordSize <= b.layout.Size; off += format.WordSize {
		addr := b.ptr + Addr(off)
		if !format.IsAligned(uint64(addr), format.WordSize) {
			continue
		}
		require.Equal(s.t, b.tag, s.mem.Load64(addr), "block %#x clobbered at +%d", uint64(b.ptr), off)
	}
}

func (s *liveSet) stamp(ptr Addr, size, tag uint64) {
	for off := uint64(0); off+format.WordSize <= size; off += format.WordSize {
		addr := ptr + Addr(off)
		if format.IsAligned(uint64(addr), format.WordSize) {
			s.mem.Store64(addr, tag)
		}
	}
}

func layout(size, align uint64) Layout {
	return Layout{Size: size, Align: align}
}
