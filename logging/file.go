package logging

import (
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileConfig configures a rotated on-disk JSON log sink, mirroring the
// rotation settings the capture pipeline this core was extracted from uses
// for its own long-running logs.
type FileConfig struct {
	// Filename is the path to the active log file.
	Filename string

	// MaxSizeMB is the size in megabytes a log file is allowed to reach
	// before it is rotated.
	MaxSizeMB int

	// MaxBackups is the number of rotated files to retain.
	MaxBackups int

	// MaxAgeDays is the number of days to retain rotated files.
	MaxAgeDays int

	// Level is the minimum level emitted to the sink.
	Level slog.Level
}

// NewFileLogger returns a Logger backed by a lumberjack-rotated JSON file.
func NewFileLogger(cfg FileConfig) Logger {
	w := &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.Level})
	return New(slog.New(h))
}
