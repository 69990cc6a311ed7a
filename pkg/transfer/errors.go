package transfer

import (
	"errors"

	"github.com/kvcache-ai/mooncake-te-go/internal/bindings"
)

var (
	// ErrNotBuilt reports that the binary was built without the native
	// engine.
	ErrNotBuilt = errors.New("transfer: native engine not built")

	// ErrEngineClosed is returned by every method after Close.
	ErrEngineClosed = errors.New("transfer: engine closed")

	// ErrInvalidArgument reports a request the wrapper rejects before it
	// reaches the engine.
	ErrInvalidArgument = errors.New("transfer: invalid argument")

	// ErrAddressOverlapped reports a registration that partially overlaps an
	// existing one.
	ErrAddressOverlapped = errors.New("transfer: address overlapped")

	// ErrNotRegistered reports a Remove for a range that was never added.
	ErrNotRegistered = errors.New("transfer: address range not registered")

	// ErrTransferFailed reports a task that ended in a non-completed state.
	ErrTransferFailed = errors.New("transfer: task failed")

	// ErrEngine wraps native error codes; use errors.As with *EngineError
	// for the code.
	ErrEngine = bindings.ErrEngine
)

// EngineError carries the native return code of a failed call.
type EngineError = bindings.Error

func remapError(err error) error {
	if errors.Is(err, bindings.ErrNotBuilt) {
		return ErrNotBuilt
	}
	return err
}
