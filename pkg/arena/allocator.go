package arena

import (
	"errors"
	"unsafe"
)

var (
	// ErrInvalidSize reports a non-positive arena size.
	ErrInvalidSize = errors.New("arena: size must be positive")

	// ErrInvalidAlignment reports an alignment that is not a power of two or
	// that the allocator cannot honour.
	ErrInvalidAlignment = errors.New("arena: invalid alignment")

	// ErrAllocFailed reports that the allocator could not provide memory.
	ErrAllocFailed = errors.New("arena: allocation failed")

	// ErrReleased is returned by Close when the arena was already released.
	ErrReleased = errors.New("arena: already released")

	// ErrUnsupported is returned by the default allocator on platforms
	// without anonymous memory mappings.
	ErrUnsupported = errors.New("arena: platform not supported")
)

// Allocator hands out raw memory outside the Go heap.
//
// Free is always called with the exact size and alignment that were passed to
// the Allocate call which produced p.
type Allocator interface {
	Allocate(size, align int) (unsafe.Pointer, error)
	Free(p unsafe.Pointer, size, align int) error
}

func validAlignment(align int) bool {
	return align > 0 && align&(align-1) == 0
}
