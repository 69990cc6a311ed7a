package transfer

import (
	"errors"
	"runtime"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

type fakeRegistrar struct {
	mu          sync.Mutex
	live        map[unsafe.Pointer]uint64
	locations   map[string]int
	registers   int
	unregisters int
	fail        func(addr unsafe.Pointer) error
}

func newFakeRegistrar() *fakeRegistrar {
	return &fakeRegistrar{live: map[unsafe.Pointer]uint64{}, locations: map[string]int{}}
}

func (f *fakeRegistrar) RegisterLocalMemory(addr unsafe.Pointer, length uint64, location string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registers++
	if f.fail != nil {
		if err := f.fail(addr); err != nil {
			return err
		}
	}
	if _, dup := f.live[addr]; dup {
		return errors.New("already registered")
	}
	f.live[addr] = length
	f.locations[location]++
	return nil
}

func (f *fakeRegistrar) UnregisterLocalMemory(addr unsafe.Pointer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unregisters++
	if _, ok := f.live[addr]; !ok {
		return errors.New("not registered")
	}
	delete(f.live, addr)
	return nil
}

func (f *fakeRegistrar) snapshot() map[unsafe.Pointer]uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[unsafe.Pointer]uint64, len(f.live))
	for k, v := range f.live {
		out[k] = v
	}
	return out
}

func TestRegisteredMemorySplitsIntoChunks(t *testing.T) {
	buf := make([]byte, 10)
	base := unsafe.Pointer(&buf[0])
	reg := newFakeRegistrar()
	mem := NewRegisteredMemory(reg, 4, nil, false)

	require.NoError(t, mem.Add(base, 10, "cpu:1"))
	require.Equal(t, map[unsafe.Pointer]uint64{
		base:                4,
		unsafe.Add(base, 4): 4,
		unsafe.Add(base, 8): 2,
	}, reg.snapshot())
	require.Equal(t, 3, reg.locations["cpu:1"])
	require.Equal(t, 1, mem.Len())

	require.NoError(t, mem.Remove(base, 10))
	require.Empty(t, reg.snapshot())
	require.Zero(t, mem.Len())
	runtime.KeepAlive(buf)
}

func TestRegisteredMemoryReferenceCounts(t *testing.T) {
	buf := make([]byte, 16)
	base := unsafe.Pointer(&buf[0])
	reg := newFakeRegistrar()
	mem := NewRegisteredMemory(reg, 8, nil, false)

	require.NoError(t, mem.Add(base, 16, "cpu:0"))
	require.NoError(t, mem.Add(base, 16, "cpu:0"))
	require.Equal(t, 2, reg.registers)

	require.NoError(t, mem.Remove(base, 16))
	require.Len(t, reg.snapshot(), 2)

	require.NoError(t, mem.Remove(base, 16))
	require.Empty(t, reg.snapshot())
	require.ErrorIs(t, mem.Remove(base, 16), ErrNotRegistered)
	runtime.KeepAlive(buf)
}

func TestRegisteredMemoryRejectsOverlap(t *testing.T) {
	buf := make([]byte, 32)
	base := unsafe.Pointer(&buf[0])
	reg := newFakeRegistrar()
	mem := NewRegisteredMemory(reg, 64, nil, true)

	require.NoError(t, mem.Add(unsafe.Add(base, 8), 16, "cpu:0"))

	err := mem.Add(base, 9, "cpu:0")
	require.ErrorIs(t, err, ErrAddressOverlapped)
	require.NotContains(t, err.Error(), "0x")
	require.ErrorIs(t, mem.Add(unsafe.Add(base, 23), 4, "cpu:0"), ErrAddressOverlapped)
	require.ErrorIs(t, mem.Add(unsafe.Add(base, 8), 8, "cpu:0"), ErrAddressOverlapped)

	// Adjacent ranges do not overlap.
	require.NoError(t, mem.Add(base, 8, "cpu:0"))
	require.NoError(t, mem.Add(unsafe.Add(base, 24), 8, "cpu:0"))
	require.Equal(t, 3, mem.Len())
	runtime.KeepAlive(buf)
}

func TestRegisteredMemoryRollsBackPartialFailure(t *testing.T) {
	buf := make([]byte, 40)
	base := unsafe.Pointer(&buf[0])
	bad := unsafe.Add(base, 20)
	boom := errors.New("nic offline")

	reg := newFakeRegistrar()
	reg.fail = func(addr unsafe.Pointer) error {
		if addr == bad {
			return boom
		}
		return nil
	}
	mem := NewRegisteredMemory(reg, 10, nil, false)

	err := mem.Add(base, 40, "cpu:0")
	require.ErrorIs(t, err, boom)
	require.Empty(t, reg.snapshot())
	require.Equal(t, 3, reg.unregisters)
	require.Zero(t, mem.Len())

	// The range is free again once the fault clears.
	reg.fail = nil
	require.NoError(t, mem.Add(base, 40, "cpu:0"))
	require.Len(t, reg.snapshot(), 4)
	runtime.KeepAlive(buf)
}

func TestRegisteredMemoryConcurrentAddRegistersOnce(t *testing.T) {
	buf := make([]byte, 64)
	base := unsafe.Pointer(&buf[0])
	reg := newFakeRegistrar()
	mem := NewRegisteredMemory(reg, 16, nil, false)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = mem.Add(base, 64, "cpu:0")
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, 4, reg.registers)

	for range workers - 1 {
		require.NoError(t, mem.Remove(base, 64))
	}
	require.Len(t, reg.snapshot(), 4)
	require.NoError(t, mem.Remove(base, 64))
	require.Empty(t, reg.snapshot())
	runtime.KeepAlive(buf)
}

func TestRegisteredMemoryInvalidArguments(t *testing.T) {
	buf := make([]byte, 8)
	base := unsafe.Pointer(&buf[0])

	mem := NewRegisteredMemory(newFakeRegistrar(), 0, nil, false)
	require.ErrorIs(t, mem.Add(base, 8, "cpu:0"), ErrInvalidArgument)

	mem = NewRegisteredMemory(newFakeRegistrar(), 8, nil, false)
	require.ErrorIs(t, mem.Add(nil, 8, "cpu:0"), ErrInvalidArgument)
	require.ErrorIs(t, mem.Add(base, 0, "cpu:0"), ErrInvalidArgument)
	require.ErrorIs(t, mem.Remove(nil, 8), ErrInvalidArgument)
	runtime.KeepAlive(buf)
}
