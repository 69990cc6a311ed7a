//go:build unix

package arena

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// MmapAllocator backs arenas with private anonymous mappings. Mappings are
// page aligned, so any power-of-two alignment up to the page size is
// satisfied without padding.
type MmapAllocator struct {
	// Populate pre-faults the mapping (MAP_POPULATE on Linux) so the first
	// RDMA registration does not pay for page faults.
	Populate bool
}

// DefaultAllocator returns the allocator used when no WithAllocator option is
// given.
func DefaultAllocator() Allocator {
	return MmapAllocator{}
}

func (m MmapAllocator) Allocate(size, align int) (unsafe.Pointer, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	if !validAlignment(align) || align > unix.Getpagesize() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAlignment, align)
	}

	flags := unix.MAP_PRIVATE | unix.MAP_ANON
	if m.Populate {
		flags |= populateFlag
	}
	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, flags)
	if err != nil {
		return nil, err
	}
	return unsafe.Pointer(unsafe.SliceData(b)), nil
}

func (m MmapAllocator) Free(p unsafe.Pointer, size, _ int) error {
	if p == nil {
		return nil
	}
	// unix.Munmap looks the mapping up by its last byte, so the slice must
	// span exactly the mapped length.
	return unix.Munmap(unsafe.Slice((*byte)(p), size))
}
