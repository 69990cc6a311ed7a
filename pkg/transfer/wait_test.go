package transfer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type scriptedStatus struct {
	script map[int][]Status
	calls  map[int]int
	err    error
}

func (s *scriptedStatus) TransferStatus(_ BatchID, task int) (TaskStatus, error) {
	if s.err != nil {
		return TaskStatus{}, s.err
	}
	steps := s.script[task]
	i := min(s.calls[task], len(steps)-1)
	s.calls[task]++
	return TaskStatus{Status: steps[i]}, nil
}

func TestWaitBatchStopsPollingFinishedTasks(t *testing.T) {
	src := &scriptedStatus{
		script: map[int][]Status{
			0: {StatusCompleted},
			1: {StatusWaiting, StatusPending, StatusPending, StatusCompleted},
		},
		calls: map[int]int{},
	}
	got, err := WaitBatch(context.Background(), src, 1, 2, time.Microsecond)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, got[0].Status)
	require.Equal(t, StatusCompleted, got[1].Status)
	require.Equal(t, 1, src.calls[0])
	require.Equal(t, 4, src.calls[1])
}

func TestWaitBatchReportsFirstUnsuccessfulTask(t *testing.T) {
	src := &scriptedStatus{
		script: map[int][]Status{
			0: {StatusCompleted},
			1: {StatusTimeout},
			2: {StatusCanceled},
		},
		calls: map[int]int{},
	}
	got, err := WaitBatch(context.Background(), src, 5, 3, time.Microsecond)
	require.ErrorIs(t, err, ErrTransferFailed)
	require.Contains(t, err.Error(), "task 1: timeout")
	require.Len(t, got, 3)
}

func TestWaitBatchPropagatesPollErrors(t *testing.T) {
	boom := errors.New("poll failed")
	_, err := WaitBatch(context.Background(), &scriptedStatus{err: boom}, 1, 1, 0)
	require.ErrorIs(t, err, boom)

	_, err = WaitBatch(context.Background(), &scriptedStatus{}, 1, 0, 0)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestStatusAndOpcodeStrings(t *testing.T) {
	require.Equal(t, "read", OpRead.String())
	require.Equal(t, "write", OpWrite.String())
	require.Equal(t, "opcode(7)", Opcode(7).String())

	require.Equal(t, "canceled", StatusCanceled.String())
	require.Equal(t, "status(9)", Status(9).String())
	require.False(t, StatusPending.Done())
	require.True(t, StatusInvalid.Done())
}
