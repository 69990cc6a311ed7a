// Package arena provides fixed-size raw memory regions intended for
// zero-copy registration with the Mooncake transfer engine.
//
// An Arena owns one contiguous block of memory that lives outside the Go
// heap. Its base address never moves, so addresses obtained from Offset can
// be handed to the native engine (for example to registerLocalMemory) and
// remain valid until the arena is closed.
//
// # Lifecycle
//
//	a := arena.New(1 << 20)
//	defer a.Close()
//
//	ptr := a.Offset(0)        // base
//	end := a.Offset(a.Size()) // one past the end, never dereference
//
// New panics when the memory cannot be obtained. Long-running services that
// prefer to surface the failure use TryNew instead.
//
// # Concurrency
//
// An *Arena may be shared freely between goroutines. Offset, Addr, Base and
// Size read immutable fields. Close releases the region at most once. Nothing
// synchronizes access to the bytes inside the region; whatever protocol moves
// data through the registered memory owns that problem.
//
// # Caller contracts
//
// The following are not checked at run time:
//
//   - offsets outside [0, Size()]
//   - using any address obtained from Offset after Close
//   - calling Close concurrently from two goroutines on the same arena
//     while other goroutines still use the region
package arena
