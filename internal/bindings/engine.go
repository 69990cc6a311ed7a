//go:build cgo && linux && mooncake

package bindings

/*
#include <stdlib.h>
#include <stddef.h>
#include <stdint.h>
*/
import "C"

import (
	"unsafe"
)

// Built reports whether the native engine is linked in.
const Built = true

func cstring(s string) (*C.char, func()) {
	p := C.CString(s)
	return p, func() { C.free(unsafe.Pointer(p)) }
}

// CreateEngine connects to the metadata service and returns the opaque
// engine handle.
func CreateEngine(metadataURI, localServerName, nicPriorityMatrix string) (unsafe.Pointer, error) {
	uri, freeURI := cstring(metadataURI)
	defer freeURI()
	name, freeName := cstring(localServerName)
	defer freeName()
	nics, freeNICs := cstring(nicPriorityMatrix)
	defer freeNICs()

	h := nativeCreateTransferEngine(uri, name, nics)
	if h == nil {
		return nil, ErrCreateFailed
	}
	return unsafe.Pointer(h), nil
}

// DestroyEngine releases the handle returned by CreateEngine.
func DestroyEngine(engine unsafe.Pointer) {
	if engine == nil {
		return
	}
	nativeDestroyTransferEngine(cTransferEngine(engine))
}

func RegisterLocalMemory(engine, addr unsafe.Pointer, length uint64, location string) error {
	loc, free := cstring(location)
	defer free()
	rc := nativeRegisterLocalMemory(cTransferEngine(engine), addr, C.size_t(length), loc)
	return check("registerLocalMemory", int(rc))
}

func UnregisterLocalMemory(engine, addr unsafe.Pointer) error {
	rc := nativeUnregisterLocalMemory(cTransferEngine(engine), addr)
	return check("unregisterLocalMemory", int(rc))
}

func RegisterLocalMemoryBatch(engine unsafe.Pointer, bufs []Buffer, location string) error {
	if len(bufs) == 0 {
		return nil
	}
	entries := make([]cBufferEntry, len(bufs))
	for i, b := range bufs {
		entries[i].addr = b.Addr
		entries[i].length = C.size_t(b.Length)
	}
	loc, free := cstring(location)
	defer free()
	rc := nativeRegisterLocalMemoryBatch(cTransferEngine(engine), &entries[0], C.size_t(len(entries)), loc)
	return check("registerLocalMemoryBatch", int(rc))
}

func UnregisterLocalMemoryBatch(engine unsafe.Pointer, addrs []unsafe.Pointer) error {
	if len(addrs) == 0 {
		return nil
	}
	list := make([]unsafe.Pointer, len(addrs))
	copy(list, addrs)
	rc := nativeUnregisterLocalMemoryBatch(cTransferEngine(engine), &list[0], C.size_t(len(list)))
	return check("unregisterLocalMemoryBatch", int(rc))
}

func AllocateBatchID(engine unsafe.Pointer, batchSize int) (uint64, error) {
	id := nativeAllocateBatchID(cTransferEngine(engine), C.size_t(batchSize))
	if uint64(id) == InvalidBatch {
		return 0, ErrInvalidBatch
	}
	return uint64(id), nil
}

func SubmitTransfer(engine unsafe.Pointer, batchID uint64, reqs []Request) error {
	if len(reqs) == 0 {
		return nil
	}
	entries := make([]cTransferRequest, len(reqs))
	for i, r := range reqs {
		entries[i].opcode = C.int(r.Opcode)
		entries[i].source = r.Source
		entries[i].target_id = cSegmentID(r.TargetID)
		entries[i].target_offset = C.uint64_t(r.TargetOffset)
		entries[i].length = C.uint64_t(r.Length)
	}
	rc := nativeSubmitTransfer(cTransferEngine(engine), cBatchID(batchID), &entries[0], C.size_t(len(entries)))
	return check("submitTransfer", int(rc))
}

func GetTransferStatus(engine unsafe.Pointer, batchID uint64, taskID int) (Status, error) {
	var st cTransferStatus
	rc := nativeGetTransferStatus(cTransferEngine(engine), cBatchID(batchID), C.size_t(taskID), &st)
	if err := check("getTransferStatus", int(rc)); err != nil {
		return Status{}, err
	}
	return Status{Code: int(st.status), TransferredBytes: uint64(st.transferred_bytes)}, nil
}

func FreeBatchID(engine unsafe.Pointer, batchID uint64) error {
	rc := nativeFreeBatchID(cTransferEngine(engine), cBatchID(batchID))
	return check("freeBatchID", int(rc))
}

func GetSegmentID(engine unsafe.Pointer, name string) (int32, error) {
	cname, free := cstring(name)
	defer free()
	id := nativeGetSegmentID(cTransferEngine(engine), cname)
	if err := check("getSegmentID", int(id)); err != nil {
		return 0, err
	}
	return int32(id), nil
}
