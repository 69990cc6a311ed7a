package transfer

import (
	"unsafe"

	"github.com/kvcache-ai/mooncake-te-go/internal/bindings"
)

// nativeAPI is the set of engine entry points the facade calls. Production
// code uses bindingsAPI; tests substitute an in-memory engine.
type nativeAPI struct {
	CreateEngine               func(metadataURI, localServerName, nicPriorityMatrix string) (unsafe.Pointer, error)
	DestroyEngine              func(engine unsafe.Pointer)
	RegisterLocalMemory        func(engine, addr unsafe.Pointer, length uint64, location string) error
	UnregisterLocalMemory      func(engine, addr unsafe.Pointer) error
	RegisterLocalMemoryBatch   func(engine unsafe.Pointer, bufs []bindings.Buffer, location string) error
	UnregisterLocalMemoryBatch func(engine unsafe.Pointer, addrs []unsafe.Pointer) error
	AllocateBatchID            func(engine unsafe.Pointer, batchSize int) (uint64, error)
	SubmitTransfer             func(engine unsafe.Pointer, batchID uint64, reqs []bindings.Request) error
	GetTransferStatus          func(engine unsafe.Pointer, batchID uint64, taskID int) (bindings.Status, error)
	FreeBatchID                func(engine unsafe.Pointer, batchID uint64) error
	GetSegmentID               func(engine unsafe.Pointer, name string) (int32, error)
}

var bindingsAPI = nativeAPI{
	CreateEngine:               bindings.CreateEngine,
	DestroyEngine:              bindings.DestroyEngine,
	RegisterLocalMemory:        bindings.RegisterLocalMemory,
	UnregisterLocalMemory:      bindings.UnregisterLocalMemory,
	RegisterLocalMemoryBatch:   bindings.RegisterLocalMemoryBatch,
	UnregisterLocalMemoryBatch: bindings.UnregisterLocalMemoryBatch,
	AllocateBatchID:            bindings.AllocateBatchID,
	SubmitTransfer:             bindings.SubmitTransfer,
	GetTransferStatus:          bindings.GetTransferStatus,
	FreeBatchID:                bindings.FreeBatchID,
	GetSegmentID:               bindings.GetSegmentID,
}

// Built reports whether the native engine is linked into this binary.
func Built() bool { return bindings.Built }
