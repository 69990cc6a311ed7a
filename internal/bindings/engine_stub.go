//go:build !(cgo && linux && mooncake)

package bindings

import "unsafe"

// Built reports whether the native engine is linked in.
const Built = false

func CreateEngine(string, string, string) (unsafe.Pointer, error) {
	return nil, ErrNotBuilt
}

func DestroyEngine(unsafe.Pointer) {}

func RegisterLocalMemory(unsafe.Pointer, unsafe.Pointer, uint64, string) error {
	return ErrNotBuilt
}

func UnregisterLocalMemory(unsafe.Pointer, unsafe.Pointer) error {
	return ErrNotBuilt
}

func RegisterLocalMemoryBatch(unsafe.Pointer, []Buffer, string) error {
	return ErrNotBuilt
}

func UnregisterLocalMemoryBatch(unsafe.Pointer, []unsafe.Pointer) error {
	return ErrNotBuilt
}

func AllocateBatchID(unsafe.Pointer, int) (uint64, error) {
	return 0, ErrNotBuilt
}

func SubmitTransfer(unsafe.Pointer, uint64, []Request) error {
	return ErrNotBuilt
}

func GetTransferStatus(unsafe.Pointer, uint64, int) (Status, error) {
	return Status{}, ErrNotBuilt
}

func FreeBatchID(unsafe.Pointer, uint64) error {
	return ErrNotBuilt
}

func GetSegmentID(unsafe.Pointer, string) (int32, error) {
	return 0, ErrNotBuilt
}
