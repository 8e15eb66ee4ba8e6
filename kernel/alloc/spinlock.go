package alloc

import (
	"runtime"
	"sync/atomic"
)

// SpinLock is a busy-wait mutual exclusion lock. Waiters yield the processor
// between attempts instead of sleeping, so it suits short critical sections
// such as a single allocation.
//
// It is not reentrant: a holder that locks again deadlocks. The zero value
// is unlocked.
type SpinLock struct {
	state atomic.Int32
}

// Lock acquires the lock, spinning until it is free.
func (l *SpinLock) Lock() {
	for !l.state.CompareAndSwap(0, 1) {
		runtime.Gosched()
	}
}

// TryLock acquires the lock if it is free and reports whether it did.
func (l *SpinLock) TryLock() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Unlock releases the lock. Unlocking an unlocked SpinLock panics.
func (l *SpinLock) Unlock() {
	if l.state.Swap(0) == 0 {
		panic("alloc: unlock of unlocked SpinLock")
	}
}
