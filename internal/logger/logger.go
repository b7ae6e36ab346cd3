// Package logger holds the process-wide structured logger used by heapkit.
// Output is discarded until Init is called.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// L is the global logger instance. It's initialized to discard all output by default.
// Call Init() to enable logging.
var L = slog.New(slog.DiscardHandler)

var (
	mu      sync.Mutex
	logFile *os.File
)

// Options configures the logger initialization.
type Options struct {
	Enabled bool       // If false, all logging is discarded
	Path    string     // Log file path. Empty means stderr
	JSON    bool       // Use the JSON handler instead of text
	Level   slog.Level // Minimum log level. Default: LevelInfo when enabled
}

// Init configures logging. Call from main() before any log calls.
// If opts.Enabled is false, all log output is discarded.
func Init(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	closeFileLocked()
	if !opts.Enabled {
		L = slog.New(slog.DiscardHandler)
		return nil
	}

	var w io.Writer = os.Stderr
	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return err
		}
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = f
		w = f
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.Level}
	if opts.JSON {
		L = slog.New(slog.NewJSONHandler(w, handlerOpts))
	} else {
		L = slog.New(slog.NewTextHandler(w, handlerOpts))
	}
	return nil
}

// Close releases the log file opened by Init, if any, and resets L to discard.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	L = slog.New(slog.DiscardHandler)
	return closeFileLocked()
}

func closeFileLocked() error {
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) { L.Error(msg, args...) }
