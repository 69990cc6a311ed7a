package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kvcache-ai/mooncake-te-go/pkg/transfer"
)

func TestParseOpcode(t *testing.T) {
	op, err := parseOpcode("READ")
	require.NoError(t, err)
	require.Equal(t, transfer.OpRead, op)

	op, err = parseOpcode("write")
	require.NoError(t, err)
	require.Equal(t, transfer.OpWrite, op)

	_, err = parseOpcode("copy")
	require.Error(t, err)
}

func TestRejectsBadLength(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--arena-size", "1024", "--length", "4096"})
	require.ErrorContains(t, cmd.Execute(), "length 4096")
}

func TestRejectsUnknownOp(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--op", "copy"})
	require.ErrorContains(t, cmd.Execute(), "unknown op")
}
