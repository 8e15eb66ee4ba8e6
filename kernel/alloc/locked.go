package alloc

// Locked wraps an allocator so it can be shared. Every operation runs with
// the lock held, which makes the inner allocator's mutations appear atomic.
type Locked[A HeapAllocator] struct {
	lock  SpinLock
	inner A
}

// NewLocked wraps inner.
func NewLocked[A HeapAllocator](inner A) *Locked[A] {
	return &Locked[A]{inner: inner}
}

// Init initializes the inner allocator under the lock.
func (l *Locked[A]) Init(mem Memory, region Region) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.inner.Init(mem, region)
}

// Alloc allocates from the inner allocator under the lock.
func (l *Locked[A]) Alloc(layout Layout) (Addr, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.inner.Alloc(layout)
}

// Dealloc deallocates through the inner allocator under the lock.
func (l *Locked[A]) Dealloc(ptr Addr, layout Layout) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.inner.Dealloc(ptr, layout)
}

// With runs fn with exclusive access to the inner allocator. fn must not call
// back into l.
func (l *Locked[A]) With(fn func(inner A)) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fn(l.inner)
}

// Stats returns the inner allocator's statistics, or the zero Stats when it
// keeps none.
func (l *Locked[A]) Stats() Stats {
	l.lock.Lock()
	defer l.lock.Unlock()
	if r, ok := any(l.inner).(StatsReporter); ok {
		return r.Stats()
	}
	return Stats{}
}

var (
	_ HeapAllocator = (*Locked[*BumpAllocator])(nil)
	_ HeapAllocator = (*BumpAllocator)(nil)
	_ HeapAllocator = (*FreeListAllocator)(nil)
	_ HeapAllocator = (*SegregatedAllocator)(nil)
	_ HeapAllocator = NullAllocator{}
	_ StatsReporter = (*Locked[*SegregatedAllocator])(nil)
)
