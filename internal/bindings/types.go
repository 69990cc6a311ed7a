package bindings

import (
	"errors"
	"fmt"
	"unsafe"
)

var (
	// ErrNotBuilt reports that the native engine was not linked into the
	// current binary.
	ErrNotBuilt = errors.New("bindings: native transfer engine not built (need cgo, linux and -tags mooncake)")

	// ErrEngine is wrapped by every *Error.
	ErrEngine = errors.New("bindings: transfer engine error")

	// ErrCreateFailed reports that createTransferEngine returned NULL.
	ErrCreateFailed = errors.New("bindings: createTransferEngine failed")

	// ErrInvalidBatch reports that allocateBatchID returned INVALID_BATCH.
	ErrInvalidBatch = errors.New("bindings: batch allocation failed")
)

// Return codes from the engine's error.h.
const (
	CodeInvalidArgument      = -1
	CodeTooManyRequests      = -2
	CodeAddressNotRegistered = -3
	CodeBatchBusy            = -4
	CodeDeviceNotFound       = -6
	CodeAddressOverlapped    = -7
	CodeDNSFail              = -101
	CodeSocketFail           = -102
	CodeMalformedJSON        = -103
	CodeRejectHandshake      = -104
	CodeMalformedResponse    = -105
	CodeMetadata             = -200
	CodeEndpoint             = -201
	CodeContext              = -202
	CodeNUMA                 = -300
	CodeClock                = -301
	CodeOutOfMemory          = -302
)

var codeNames = map[int]string{
	CodeInvalidArgument:      "invalid argument",
	CodeTooManyRequests:      "too many requests",
	CodeAddressNotRegistered: "address not registered",
	CodeBatchBusy:            "batch busy",
	CodeDeviceNotFound:       "device not found",
	CodeAddressOverlapped:    "address overlapped",
	CodeDNSFail:              "dns lookup failed",
	CodeSocketFail:           "socket failure",
	CodeMalformedJSON:        "malformed json",
	CodeRejectHandshake:      "handshake rejected",
	CodeMalformedResponse:    "malformed response",
	CodeMetadata:             "metadata service failure",
	CodeEndpoint:             "endpoint failure",
	CodeContext:              "rdma context failure",
	CodeNUMA:                 "numa failure",
	CodeClock:                "clock failure",
	CodeOutOfMemory:          "out of memory",
}

// Error is a negative return code from a native call.
type Error struct {
	Op   string
	Code int
}

func (e *Error) Error() string {
	name, ok := codeNames[e.Code]
	if !ok {
		name = "unknown error"
	}
	return fmt.Sprintf("%s: %s (code %d)", e.Op, name, e.Code)
}

func (e *Error) Unwrap() error { return ErrEngine }

func check(op string, rc int) error {
	if rc < 0 {
		return &Error{Op: op, Code: rc}
	}
	return nil
}

// Buffer is one entry of a batch registration.
type Buffer struct {
	Addr   unsafe.Pointer
	Length uint64
}

// Request mirrors struct transfer_request.
type Request struct {
	Opcode       int
	Source       unsafe.Pointer
	TargetID     int32
	TargetOffset uint64
	Length       uint64
}

// Status mirrors struct transfer_status.
type Status struct {
	Code             int
	TransferredBytes uint64
}
