package bindings

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := check("registerLocalMemory", CodeAddressOverlapped)
	require.EqualError(t, err, "registerLocalMemory: address overlapped (code -7)")
	require.ErrorIs(t, err, ErrEngine)

	var e *Error
	require.True(t, errors.As(err, &e))
	require.Equal(t, CodeAddressOverlapped, e.Code)

	require.EqualError(t, check("freeBatchID", -999), "freeBatchID: unknown error (code -999)")
	require.NoError(t, check("submitTransfer", 0))
	require.NoError(t, check("getSegmentID", 3))
}
