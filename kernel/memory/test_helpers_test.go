package memory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// catchFault runs fn and returns the *Fault it panicked with, failing the
// test if fn returns normally or panics with something else.
func catchFault(t *testing.T, fn func()) (f *Fault) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a memory fault")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		require.True(t, errors.As(err, &f), "panic value %v is not a *Fault", r)
	}()
	fn()
	return nil
}

// newTestMachine builds physical memory with the default map, a frame
// allocator and an empty page table.
func newTestMachine(t *testing.T, size uint64) (*Physical, *BootInfoFrameAllocator, *PageTable) {
	t.Helper()
	phys, err := NewPhysical(size, BackingGo)
	require.NoError(t, err)
	t.Cleanup(func() { _ = phys.Close() })

	frames := NewBootInfoFrameAllocator(DefaultMemoryMap(size))
	pt, err := NewPageTable(phys, frames)
	require.NoError(t, err)
	return phys, frames, pt
}
