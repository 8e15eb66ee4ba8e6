package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPhysical_Backings(t *testing.T) {
	for _, backing := range []Backing{BackingGo, BackingMalloc, BackingMmap} {
		t.Run(string(backing), func(t *testing.T) {
			phys, err := NewPhysical(4*4096, backing)
			require.NoError(t, err)
			defer func() { require.NoError(t, phys.Close()) }()

			require.Equal(t, uint64(4*4096), phys.Size())
			require.Equal(t, backing, phys.Backing())

			for i, b := range phys.Bytes() {
				if b != 0 {
					t.Fatalf("byte %d not zeroed: %#x", i, b)
				}
			}

			phys.WriteU64(0x1008, 0xdeadbeefcafef00d)
			assert.Equal(t, uint64(0xdeadbeefcafef00d), phys.ReadU64(0x1008))
			assert.Equal(t, byte(0x0d), phys.Bytes()[0x1008], "little-endian layout")
		})
	}
}

func TestNewPhysical_RejectsBadSize(t *testing.T) {
	_, err := NewPhysical(0, BackingGo)
	require.ErrorIs(t, err, ErrBadSize)

	_, err = NewPhysical(4095, BackingGo)
	require.ErrorIs(t, err, ErrBadSize)

	_, err = NewPhysical(4096, Backing("tape"))
	require.ErrorIs(t, err, ErrUnknownBacking)
}

func TestParseBacking(t *testing.T) {
	b, err := ParseBacking("")
	require.NoError(t, err)
	require.Equal(t, BackingGo, b)

	b, err = ParseBacking("mmap")
	require.NoError(t, err)
	require.Equal(t, BackingMmap, b)

	_, err = ParseBacking("swap")
	require.ErrorIs(t, err, ErrUnknownBacking)
}

func TestPhysical_Faults(t *testing.T) {
	phys, err := NewPhysical(4096, BackingGo)
	require.NoError(t, err)

	f := catchFault(t, func() { phys.ReadU64(3) })
	require.ErrorIs(t, f, ErrMisaligned)
	require.False(t, f.Write)

	f = catchFault(t, func() { phys.WriteU64(4096, 1) })
	require.ErrorIs(t, f, ErrOutOfRange)
	require.True(t, f.Write)

	// Last word is accessible.
	phys.WriteU64(4088, 7)
	require.Equal(t, uint64(7), phys.ReadU64(4088))
}

func TestPhysical_ZeroFrameAndClose(t *testing.T) {
	phys, err := NewPhysical(2*4096, BackingGo)
	require.NoError(t, err)

	phys.WriteU64(4096, 42)
	phys.WriteU64(0, 1)
	phys.ZeroFrame(Frame{Start: 4096})
	require.Zero(t, phys.ReadU64(4096))
	require.Equal(t, uint64(1), phys.ReadU64(0), "other frames untouched")

	require.True(t, phys.ContainsFrame(Frame{Start: 4096}))
	require.False(t, phys.ContainsFrame(Frame{Start: 8192}))

	require.NoError(t, phys.Close())
	require.NoError(t, phys.Close(), "second Close is a no-op")
}

func TestFlat(t *testing.T) {
	const base = VirtAddr(0x4000_0000)
	m := NewFlat(base, make([]byte, 64))

	m.Store64(base+8, 0x1122)
	require.Equal(t, uint64(0x1122), m.Load64(base+8))
	require.Equal(t, base, m.Base())
	require.Equal(t, uint64(64), m.Size())

	require.ErrorIs(t, catchFault(t, func() { m.Load64(base - 8) }), ErrNotMapped)
	require.ErrorIs(t, catchFault(t, func() { m.Load64(base + 64) }), ErrNotMapped)
	require.ErrorIs(t, catchFault(t, func() { m.Store64(base+4, 0) }), ErrMisaligned)

	m.Store64(base+56, 9)
	require.Equal(t, uint64(9), m.Load64(base+56), "last word is in range")
}
