package alloc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBump(t *testing.T, size uint64) (*BumpAllocator, Region) {
	t.Helper()
	mem, region := newTestHeap(t, size)
	ba := NewBump()
	require.NoError(t, ba.Init(mem, region))
	return ba, region
}

func TestBump_SequentialAllocations(t *testing.T) {
	ba, region := newTestBump(t, 1024)

	p1, err := ba.Alloc(layout(10, 1))
	require.NoError(t, err)
	assert.Equal(t, region.Start, p1)

	// Next request is aligned up past the 10 bytes.
	p2, err := ba.Alloc(layout(8, 8))
	require.NoError(t, err)
	assert.Equal(t, region.Start+16, p2)

	p3, err := ba.Alloc(layout(1, 64))
	require.NoError(t, err)
	assert.Equal(t, region.Start+64, p3)

	assert.Equal(t, region.Start+65, ba.Next())
	assert.Equal(t, uint64(3), ba.Live())
}

func TestBump_ResetOnlyWhenAllFreed(t *testing.T) {
	ba, region := newTestBump(t, 1024)

	const n = 5
	ptrs := make([]Addr, n)
	for i := range n {
		p, err := ba.Alloc(layout(32, 8))
		require.NoError(t, err)
		ptrs[i] = p
	}

	// N-1 frees leave the pointer where it was.
	for i := range n - 1 {
		ba.Dealloc(ptrs[i], layout(32, 8))
	}
	assert.Equal(t, region.Start+n*32, ba.Next())
	assert.Equal(t, uint64(1), ba.Live())

	// The Nth free returns it to the start.
	ba.Dealloc(ptrs[n-1], layout(32, 8))
	assert.Equal(t, region.Start, ba.Next())
	assert.Equal(t, uint64(0), ba.Live())
	assert.Equal(t, uint64(1), ba.Stats().Resets)

	p, err := ba.Alloc(layout(32, 8))
	require.NoError(t, err)
	assert.Equal(t, region.Start, p)
}

func TestBump_ExactFitThenExhaustion(t *testing.T) {
	ba, region := newTestBump(t, 256)

	p, err := ba.Alloc(layout(256, 8))
	require.NoError(t, err)
	assert.Equal(t, region.Start, p)

	next := ba.Next()
	p, err = ba.Alloc(layout(1, 1))
	require.ErrorIs(t, err, ErrNoSpace)
	assert.Equal(t, Null, p)
	assert.Equal(t, next, ba.Next(), "failure must not move the pointer")
	assert.Equal(t, uint64(1), ba.Live())
}

func TestBump_OverflowIsFailure(t *testing.T) {
	ba, _ := newTestBump(t, 256)
	_, err := ba.Alloc(layout(8, 8))
	require.NoError(t, err)

	_, err = ba.Alloc(layout(math.MaxUint64, 1))
	require.ErrorIs(t, err, ErrNoSpace)

	_, err = ba.Alloc(layout(8, 1<<63))
	require.ErrorIs(t, err, ErrNoSpace)

	assert.Equal(t, uint64(2), ba.Stats().AllocFailed)
}

func TestBump_UnbalancedDeallocIgnored(t *testing.T) {
	ba, region := newTestBump(t, 256)
	ba.Dealloc(region.Start, layout(8, 8))
	assert.Equal(t, uint64(0), ba.Live())
	assert.Equal(t, region.Start, ba.Next())
}

func TestBump_InitRules(t *testing.T) {
	ba := NewBump()
	_, err := ba.Alloc(layout(8, 8))
	require.ErrorIs(t, err, ErrNotInitialized)

	mem, region := newTestHeap(t, 64)
	require.ErrorIs(t, ba.Init(mem, Region{Start: region.Start}), ErrBadRegion)
	require.NoError(t, ba.Init(mem, region))
	require.ErrorIs(t, ba.Init(mem, region), ErrAlreadyInitialized)
	assert.Equal(t, region, ba.Region())
}
