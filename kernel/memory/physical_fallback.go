//go:build !linux && !darwin && !freebsd

package memory

// mapAnonymous falls back to off-heap malloc where mmap is not available.
func mapAnonymous(size int) ([]byte, func() error, error) {
	return mallocBytes(size)
}
