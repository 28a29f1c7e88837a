/*
DESCRIPTION
  logging.go provides the capability logger used by every package in this
  module. Call sites pass a fixed set of key/value attributes rather than
  building format strings, so the underlying handler can decide, lazily,
  whether a record is worth formatting at all.

AUTHORS
  LCEVC enhancement core contributors.
*/

// Package logging provides a small capability-style logger with the
// severity levels used throughout the decoder: Error, Warning, Info,
// Debug and Verbose. It wraps log/slog rather than introducing a new
// logging library, so that callers already using slog elsewhere in their
// process can share a single handler.
package logging

import (
	"context"
	"log/slog"
	"os"
)

// Verbose sits one step below slog's Debug level. Hot-path call sites use
// it for per-TU tracing; handlers are expected to filter it out in any
// build that cares about decode throughput.
const Verbose = slog.Level(-8)

// Logger is the capability passed down through constructors in place of a
// package-global logging symbol.
type Logger struct {
	s *slog.Logger
}

// New wraps an existing *slog.Logger.
func New(s *slog.Logger) Logger {
	if s == nil {
		s = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return Logger{s: s}
}

// Discard returns a Logger whose records are never emitted.
func Discard() Logger {
	return Logger{s: slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func (l Logger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if l.s == nil {
		return
	}
	l.s.Log(ctx, level, msg, args...)
}

// Error logs at the Error severity.
func (l Logger) Error(msg string, args ...any) { l.log(context.Background(), slog.LevelError, msg, args...) }

// Warning logs at the Warning severity.
func (l Logger) Warning(msg string, args ...any) {
	l.log(context.Background(), slog.LevelWarn, msg, args...)
}

// Info logs at the Info severity.
func (l Logger) Info(msg string, args ...any) { l.log(context.Background(), slog.LevelInfo, msg, args...) }

// Debug logs at the Debug severity.
func (l Logger) Debug(msg string, args ...any) { l.log(context.Background(), slog.LevelDebug, msg, args...) }

// VerboseLog logs at the Verbose severity, one level below Debug. Hot-path
// callers (the C9 decode loop) should guard these calls with Enabled to
// avoid building the args slice when verbose logging is compiled out.
func (l Logger) VerboseLog(msg string, args ...any) { l.log(context.Background(), Verbose, msg, args...) }

// Enabled reports whether a record at level would be emitted, letting the
// hot path skip constructing arguments for calls that would be dropped.
func (l Logger) Enabled(level slog.Level) bool {
	if l.s == nil {
		return false
	}
	return l.s.Enabled(context.Background(), level)
}
