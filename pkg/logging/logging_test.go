package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	l.With("component", "arena").Debug(context.Background(), "registered",
		Address("base", 0x7f00dead0000, false), Address("peer", 0x1000, true))

	out := buf.String()
	require.Contains(t, out, "component=arena")
	require.Contains(t, out, "base=0x7f00dead0000")
	require.Contains(t, out, "peer=")
	require.Contains(t, out, Placeholder())
	require.NotContains(t, out, "0x1000")
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error(context.Background(), "dropped", "k", 1)
	require.NotNil(t, l.With("k", 2))
}
