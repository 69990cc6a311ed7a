//go:build !(cgo && linux && mooncake)

package bindings

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStubsReportNotBuilt(t *testing.T) {
	require.False(t, Built)

	_, err := CreateEngine("P2PHANDSHAKE", "localhost:12345", "")
	require.ErrorIs(t, err, ErrNotBuilt)
	require.ErrorIs(t, RegisterLocalMemory(nil, nil, 0, "cpu:0"), ErrNotBuilt)
	require.ErrorIs(t, UnregisterLocalMemory(nil, nil), ErrNotBuilt)
	require.ErrorIs(t, RegisterLocalMemoryBatch(nil, nil, "cpu:0"), ErrNotBuilt)
	require.ErrorIs(t, UnregisterLocalMemoryBatch(nil, nil), ErrNotBuilt)
	_, err = AllocateBatchID(nil, 1)
	require.ErrorIs(t, err, ErrNotBuilt)
	require.ErrorIs(t, SubmitTransfer(nil, 0, nil), ErrNotBuilt)
	_, err = GetTransferStatus(nil, 0, 0)
	require.ErrorIs(t, err, ErrNotBuilt)
	require.ErrorIs(t, FreeBatchID(nil, 0), ErrNotBuilt)
	_, err = GetSegmentID(nil, "peer")
	require.ErrorIs(t, err, ErrNotBuilt)

	DestroyEngine(nil)
}
