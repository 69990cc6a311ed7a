package transfer

import (
	"fmt"
	"unsafe"
)

// Opcode selects the direction of a transfer relative to the local buffer.
type Opcode int

const (
	// OpRead copies from the remote segment into Source.
	OpRead Opcode = 0
	// OpWrite copies from Source into the remote segment.
	OpWrite Opcode = 1
)

func (o Opcode) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	default:
		return fmt.Sprintf("opcode(%d)", int(o))
	}
}

// Status is the state of one task in a batch.
type Status int

const (
	StatusWaiting   Status = 0
	StatusPending   Status = 1
	StatusInvalid   Status = 2
	StatusCanceled  Status = 3
	StatusCompleted Status = 4
	StatusTimeout   Status = 5
	StatusFailed    Status = 6
)

var statusNames = [...]string{"waiting", "pending", "invalid", "canceled", "completed", "timeout", "failed"}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Done reports whether the task will not change state again.
func (s Status) Done() bool {
	switch s {
	case StatusWaiting, StatusPending:
		return false
	default:
		return true
	}
}

// SegmentID names a registered memory segment on some node. LocalSegment
// addresses the caller's own memory.
type SegmentID int32

const LocalSegment SegmentID = 0

// BatchID identifies a group of submitted tasks.
type BatchID uint64

// Request is one task. Source must lie inside registered local memory,
// typically obtained from arena.Arena.Offset.
type Request struct {
	Opcode       Opcode
	Source       unsafe.Pointer
	Target       SegmentID
	TargetOffset uint64
	Length       uint64
}

// TaskStatus is the result of polling one task.
type TaskStatus struct {
	Status           Status
	TransferredBytes uint64
}
