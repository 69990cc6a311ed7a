//go:build !unix

package arena

import "unsafe"

type unsupportedAllocator struct{}

// DefaultAllocator returns an allocator that always fails on platforms
// without anonymous memory mappings. Callers can still supply their own
// Allocator through WithAllocator.
func DefaultAllocator() Allocator {
	return unsupportedAllocator{}
}

func (unsupportedAllocator) Allocate(int, int) (unsafe.Pointer, error) {
	return nil, ErrUnsupported
}

func (unsupportedAllocator) Free(unsafe.Pointer, int, int) error {
	return ErrUnsupported
}
