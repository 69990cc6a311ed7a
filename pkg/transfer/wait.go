package transfer

import (
	"context"
	"fmt"
	"time"
)

// StatusSource answers single task status polls. *Engine implements it.
type StatusSource interface {
	TransferStatus(batch BatchID, task int) (TaskStatus, error)
}

// WaitBatch polls tasks [0, tasks) of batch every interval until all are
// done. It returns the final statuses; if any task did not complete the error
// wraps ErrTransferFailed and names the first such task. A done ctx stops the
// wait with ctx.Err() and the statuses observed so far.
func WaitBatch(ctx context.Context, src StatusSource, batch BatchID, tasks int, interval time.Duration) ([]TaskStatus, error) {
	if tasks <= 0 {
		return nil, fmt.Errorf("%w: task count %d", ErrInvalidArgument, tasks)
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	out := make([]TaskStatus, tasks)
	pending := tasks
	var timer *time.Timer
	for {
		for i := range out {
			if out[i].Status.Done() {
				continue
			}
			st, err := src.TransferStatus(batch, i)
			if err != nil {
				return out, err
			}
			out[i] = st
			if st.Status.Done() {
				pending--
			}
		}
		if pending == 0 {
			break
		}

		if timer == nil {
			timer = time.NewTimer(interval)
			defer timer.Stop()
		} else {
			timer.Reset(interval)
		}
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		case <-timer.C:
		}
	}

	for i, st := range out {
		if st.Status != StatusCompleted {
			return out, fmt.Errorf("%w: batch %d task %d: %s", ErrTransferFailed, uint64(batch), i, st.Status)
		}
	}
	return out, nil
}
