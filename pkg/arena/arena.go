package arena

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// Arena is a fixed-size region of raw memory with a stable base address.
//
// The zero value is not usable; construct arenas with New or TryNew and
// release them with Close, typically deferred by the owner.
type Arena struct {
	base  unsafe.Pointer
	size  int
	align int
	alloc Allocator

	released atomic.Bool
}

// goroutineShareable marks types whose lifecycle bookkeeping has been audited
// for use from several goroutines at once.
//
// Audit for *Arena: base, size, align and alloc are written once in TryNew
// and only read afterwards. The region itself is never aliased by Go-heap
// state. The only mutable lifecycle field is released, an atomic flag that
// lets exactly one Close reach the allocator.
type goroutineShareable interface {
	goroutineShareable()
}

func (*Arena) goroutineShareable() {}

var _ goroutineShareable = (*Arena)(nil)

type options struct {
	align int
	alloc Allocator
}

// Option customises arena construction.
type Option func(*options)

// WithAlignment requests an alignment for the base address. The default is
// 1 byte. align must be a power of two.
func WithAlignment(align int) Option {
	return func(o *options) { o.align = align }
}

// WithAllocator replaces the default allocator.
func WithAllocator(a Allocator) Option {
	return func(o *options) {
		if a != nil {
			o.alloc = a
		}
	}
}

// New allocates an arena of exactly size bytes. It panics if size is not
// positive or the allocator cannot provide the memory: an arena feeding a
// zero-copy hardware path has no degraded mode to fall back to.
func New(size int, opts ...Option) *Arena {
	a, err := TryNew(size, opts...)
	if err != nil {
		panic(err)
	}
	return a
}

// TryNew is New for callers that want to handle allocation failure
// themselves.
func TryNew(size int, opts ...Option) (*Arena, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}

	o := options{align: 1, alloc: DefaultAllocator()}
	for _, opt := range opts {
		opt(&o)
	}
	if !validAlignment(o.align) {
		return nil, fmt.Errorf("%w: %d is not a power of two", ErrInvalidAlignment, o.align)
	}

	p, err := o.alloc.Allocate(size, o.align)
	if err != nil {
		return nil, fmt.Errorf("%w: %d bytes: %w", ErrAllocFailed, size, err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %d bytes: allocator returned nil", ErrAllocFailed, size)
	}

	return &Arena{base: p, size: size, align: o.align, alloc: o.alloc}, nil
}

// Offset returns base+delta. There is no bounds check: delta must stay in
// [0, Size()], and Offset(Size()) must never be dereferenced.
func (a *Arena) Offset(delta int) unsafe.Pointer {
	return unsafe.Add(a.base, delta)
}

// Addr is Offset as an integer address, the form the transfer engine uses
// for transfer requests.
func (a *Arena) Addr(delta int) uintptr {
	return uintptr(a.base) + uintptr(delta)
}

// Base returns the address of the first byte.
func (a *Arena) Base() uintptr {
	return uintptr(a.base)
}

// Size returns the number of bytes requested at creation.
func (a *Arena) Size() int {
	return a.size
}

// Align returns the alignment requested at creation.
func (a *Arena) Align() int {
	return a.align
}

// Bytes returns a slice aliasing the whole region. The slice is invalid after
// Close and its contents are not synchronized.
func (a *Arena) Bytes() []byte {
	return unsafe.Slice((*byte)(a.base), a.size)
}

// Released reports whether Close has already run.
func (a *Arena) Released() bool {
	return a.released.Load()
}

// Close returns the region to its allocator using the size and alignment
// recorded at creation. Only the first call frees memory; later calls return
// ErrReleased.
func (a *Arena) Close() error {
	if a == nil {
		return nil
	}
	if !a.released.CompareAndSwap(false, true) {
		return ErrReleased
	}
	return a.alloc.Free(a.base, a.size, a.align)
}

func (a *Arena) String() string {
	return fmt.Sprintf("arena{base=%#x size=%d align=%d}", a.Base(), a.size, a.align)
}
