package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cubed-guy/text-os/kernel/alloc"
	"github.com/cubed-guy/text-os/kernel/memory"
)

const testPhysSize = 2 << 20

type machine struct {
	phys   *memory.Physical
	frames *memory.BootInfoFrameAllocator
	pt     *memory.PageTable
}

func newMachine(t *testing.T) machine {
	t.Helper()
	phys, err := memory.NewPhysical(testPhysSize, memory.BackingGo)
	require.NoError(t, err)
	t.Cleanup(func() { _ = phys.Close() })

	frames := memory.NewBootInfoFrameAllocator(memory.DefaultMemoryMap(testPhysSize))
	pt, err := memory.NewPageTable(phys, frames)
	require.NoError(t, err)
	return machine{phys: phys, frames: frames, pt: pt}
}

// limitedFrames hands out at most n frames from inner.
type limitedFrames struct {
	inner memory.FrameAllocator
	n     int
}

func (l *limitedFrames) AllocateFrame() (memory.Frame, bool) {
	if l.n == 0 {
		return memory.Frame{}, false
	}
	l.n--
	return l.inner.AllocateFrame()
}

func newTestHeap(t *testing.T, kind AllocatorKind) (*Heap, machine) {
	t.Helper()
	m := newMachine(t)
	cfg := DefaultConfig()
	cfg.Allocator = kind
	h, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, h.Init(m.pt, m.frames))
	return h, m
}

func TestHeap_InitMapsRegion(t *testing.T) {
	h, m := newTestHeap(t, KindFixedSize)
	region := h.Region()

	assert.True(t, h.Initialized())
	assert.Equal(t, 32, h.Pages())
	assert.Equal(t, 32, m.pt.Mapped())

	for _, addr := range []alloc.Addr{region.Start, region.End() - 1} {
		_, err := m.pt.Translate(addr)
		require.NoError(t, err, "%v", addr)
		flags, err := m.pt.FlagsOf(addr)
		require.NoError(t, err)
		assert.True(t, flags.Has(memory.FlagPresent|memory.FlagWritable))
	}
	_, err := m.pt.Translate(region.End())
	require.ErrorIs(t, err, memory.ErrNotMapped)
}

func TestHeap_UnalignedRegionMapsCoveringPages(t *testing.T) {
	m := newMachine(t)
	h, err := New(Config{Start: DefaultStart + 0x800, Size: 0x1000, Allocator: KindLinkedList})
	require.NoError(t, err)
	require.NoError(t, h.Init(m.pt, m.frames))
	assert.Equal(t, 2, h.Pages())

	p, err := h.Alloc(alloc.Layout{Size: 0x1000, Align: 8})
	require.NoError(t, err)
	assert.Equal(t, DefaultStart+0x800, p)
}

// TestHeap_IncreasingAllocationsFreedInReverse allocates 500 blocks of
// growing size, checks none overlap, then frees them last to first.
func TestHeap_IncreasingAllocationsFreedInReverse(t *testing.T) {
	for _, kind := range Kinds {
		t.Run(string(kind), func(t *testing.T) {
			h, _ := newTestHeap(t, kind)
			region := h.Region()
			mem := h.Memory()

			type live struct {
				ptr    alloc.Addr
				layout alloc.Layout
			}
			var blocks []live
			for i := range 500 {
				l := alloc.Layout{Size: uint64(8 + i/4), Align: 8}
				p, err := h.Alloc(l)
				require.NoError(t, err, "allocation %d", i)
				require.True(t, region.Contains(p, l.Size))
				for _, b := range blocks {
					require.False(t, p < b.ptr+alloc.Addr(b.layout.Size) && b.ptr < p+alloc.Addr(l.Size),
						"allocation %d at %v overlaps %v", i, p, b.ptr)
				}
				mem.Store64(p, uint64(i))
				blocks = append(blocks, live{ptr: p, layout: l})
			}
			for i := len(blocks) - 1; i >= 0; i-- {
				require.Equal(t, uint64(i), mem.Load64(blocks[i].ptr))
				h.Dealloc(blocks[i].ptr, blocks[i].layout)
			}

			s := h.Stats()
			assert.Equal(t, uint64(500), s.AllocCalls)
			assert.Equal(t, uint64(500), s.FreeCalls)
			assert.Zero(t, s.Live)
		})
	}
}

func TestHeap_AllocBeforeInit(t *testing.T) {
	h, err := New(DefaultConfig())
	require.NoError(t, err)

	p, err := h.Alloc(alloc.Layout{Size: 8, Align: 8})
	require.ErrorIs(t, err, ErrNotInitialized)
	assert.Equal(t, alloc.Null, p)
	assert.Nil(t, h.Memory())
	assert.Equal(t, alloc.Stats{}, h.Stats())
	assert.PanicsWithValue(t, "heap: dealloc before init", func() {
		h.Dealloc(DefaultStart, alloc.Layout{Size: 8, Align: 8})
	})
}

func TestHeap_InitTwice(t *testing.T) {
	h, m := newTestHeap(t, KindBump)
	mapped := m.pt.Mapped()

	require.ErrorIs(t, h.Init(m.pt, m.frames), ErrAlreadyInitialized)
	assert.Equal(t, mapped, m.pt.Mapped(), "second Init must not map anything")
	require.ErrorIs(t, h.Configure(DefaultConfig()), ErrAlreadyInitialized)
}

func TestHeap_InitWhileInitializing(t *testing.T) {
	m := newMachine(t)
	h, err := New(DefaultConfig())
	require.NoError(t, err)

	h.state.Store(stateInitializing)
	require.ErrorIs(t, h.Init(m.pt, m.frames), ErrInitInProgress)
	require.ErrorIs(t, h.Configure(DefaultConfig()), ErrInitInProgress)
	assert.Zero(t, m.pt.Mapped())

	// The in-flight Init failed.
	h.state.Store(stateEmpty)
	require.NoError(t, h.Init(m.pt, m.frames))
}

func TestHeap_NoFrames(t *testing.T) {
	m := newMachine(t)
	h, err := New(DefaultConfig())
	require.NoError(t, err)

	err = h.Init(m.pt, memory.EmptyFrameAllocator{})
	require.ErrorIs(t, err, memory.ErrFrameAllocationFailed)
	assert.False(t, h.Initialized())
	assert.Zero(t, m.pt.Mapped())

	_, err = h.Alloc(alloc.Layout{Size: 8, Align: 8})
	require.ErrorIs(t, err, ErrNotInitialized)

	// Nothing was mapped, so a retry with real frames succeeds.
	require.NoError(t, h.Init(m.pt, m.frames))
	assert.True(t, h.Initialized())
}

func TestHeap_PartialMappingStays(t *testing.T) {
	m := newMachine(t)
	h, err := New(DefaultConfig())
	require.NoError(t, err)

	// Three intermediate tables plus four heap pages.
	err = h.Init(m.pt, &limitedFrames{inner: m.frames, n: 7})
	require.ErrorIs(t, err, memory.ErrFrameAllocationFailed)
	assert.Equal(t, 4, m.pt.Mapped())
	assert.False(t, h.Initialized())

	err = h.Init(m.pt, m.frames)
	require.ErrorIs(t, err, memory.ErrPageAlreadyMapped)
	assert.False(t, h.Initialized())
}

func TestHeap_Configure(t *testing.T) {
	m := newMachine(t)
	h, err := New(DefaultConfig())
	require.NoError(t, err)

	cfg := Config{Start: 0x4444_0000_0000, Size: 4 * 4096, Allocator: KindLinkedList}
	require.NoError(t, h.Configure(cfg))
	require.Error(t, h.Configure(Config{Start: 0x1000, Size: 0}))
	assert.Equal(t, cfg, h.Config())

	require.NoError(t, h.Init(m.pt, m.frames))
	assert.Equal(t, 4, h.Pages())
	p, err := h.Alloc(alloc.Layout{Size: 64, Align: 8})
	require.NoError(t, err)
	assert.Equal(t, cfg.Start, p)
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"zero size", Config{Start: DefaultStart}, alloc.ErrBadRegion},
		{"null start", Config{Size: 4096}, alloc.ErrBadRegion},
		{"non-canonical", Config{Start: 0x0000_8000_0000_0000, Size: 4096}, memory.ErrNonCanonical},
		{"crosses hole", Config{Start: 0x0000_7fff_ffff_f000, Size: 0x2000}, memory.ErrNonCanonical},
		{"unaligned list start", Config{Start: DefaultStart + 4, Size: 4096, Allocator: KindLinkedList}, alloc.ErrBadRegion},
		{"unaligned class start", Config{Start: DefaultStart + 4, Size: 4096}, alloc.ErrBadRegion},
		{"smaller than a node", Config{Start: DefaultStart, Size: 8, Allocator: KindLinkedList}, alloc.ErrBadRegion},
		{"bad kind", Config{Start: DefaultStart, Size: 4096, Allocator: "slab"}, ErrUnknownAllocator},
		{"bad classes", Config{Start: DefaultStart, Size: 4096, SizeClasses: &alloc.SizeClassConfig{MinBlock: 3, MaxBlock: 8}}, alloc.ErrBadSizeClass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.cfg.Validate(), tt.want)
			_, err := New(tt.cfg)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestConfig_ValidateBumpAnyAlignment(t *testing.T) {
	cfg := Config{Start: DefaultStart + 4, Size: 8, Allocator: KindBump}
	require.NoError(t, cfg.Validate())
}

func TestParseAllocatorKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseAllocatorKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	got, err := ParseAllocatorKind("")
	require.NoError(t, err)
	assert.Equal(t, KindFixedSize, got)

	_, err = ParseAllocatorKind("buddy")
	require.ErrorIs(t, err, ErrUnknownAllocator)
}

func TestGlobal(t *testing.T) {
	assert.Same(t, Global(), Global())
	assert.Equal(t, DefaultConfig(), Global().Config())

	// The global heap is left uninitialized; boot tests initialize their own.
	_, err := Alloc(alloc.Layout{Size: 8, Align: 8})
	require.ErrorIs(t, err, ErrNotInitialized)
}
