package logging

import (
	"context"
	"io"
	"log/slog"
	"strconv"
)

const redactedPlaceholder = "[redacted]"

// Logger is the logging surface used by the transfer engine wrapper. It is a
// small subset of slog so applications can plug in their own implementation.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}

// New returns a Logger backed by logger. Passing nil binds to
// slog.Default().
func New(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &slogLogger{logger: logger}
}

// Discard returns a Logger that drops every record.
func Discard() Logger {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type slogLogger struct {
	logger *slog.Logger
}

func (l *slogLogger) Debug(ctx context.Context, msg string, args ...any) {
	l.logger.DebugContext(ctx, msg, args...)
}

func (l *slogLogger) Info(ctx context.Context, msg string, args ...any) {
	l.logger.InfoContext(ctx, msg, args...)
}

func (l *slogLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.logger.WarnContext(ctx, msg, args...)
}

func (l *slogLogger) Error(ctx context.Context, msg string, args ...any) {
	l.logger.ErrorContext(ctx, msg, args...)
}

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{logger: l.logger.With(args...)}
}

// Redacted stands in for a value that must not reach the logs.
func Redacted(key string) slog.Attr {
	return slog.String(key, redactedPlaceholder)
}

// Placeholder returns the string that replaces redacted values.
func Placeholder() string {
	return redactedPlaceholder
}

// Address renders a raw memory address as 0x-prefixed hex, or as the
// redaction placeholder when redact is set. Registered addresses reveal
// memory layout, so deployments that ship logs off-host usually redact them.
func Address(key string, addr uintptr, redact bool) slog.Attr {
	if redact {
		return Redacted(key)
	}
	return slog.String(key, "0x"+strconv.FormatUint(uint64(addr), 16))
}
