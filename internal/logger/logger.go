// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package logger provides the process-wide structured logger. Records go to a
// JSON log file under the XDG state directory and, when requested, to stderr.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// TODO: Consider log rotation once runs routinely exceed a few MB of output.

var defaultLogger *slog.Logger

// Options controls where log records are written.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// Stderr mirrors records to stderr in addition to the log file.
	Stderr bool
	// NoFile disables the log file.
	NoFile bool
}

// LogFilePath determines the path for the application log file based on XDG spec.
func LogFilePath() (string, error) {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not get user home directory: %w", err)
		}
		stateDir = filepath.Join(homeDir, ".local", "state")
	}
	return filepath.Join(stateDir, "release-manager", "app.log"), nil
}

// ParseLevel maps a textual level to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

func openLogFile() (io.Writer, error) {
	logFilePath, err := LogFilePath()
	if err != nil {
		return nil, err
	}
	logDir := filepath.Dir(logFilePath)
	if err := os.MkdirAll(logDir, 0750); err != nil {
		return nil, fmt.Errorf("creating log directory %s: %w", logDir, err)
	}
	file, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", logFilePath, err)
	}
	return file, nil
}

// InitLogger configures the default logger. It must be called once before the
// release pipeline starts; file errors degrade to stderr logging.
func InitLogger(opts Options) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, using info.\n", err)
	}

	var writers []io.Writer
	if !opts.NoFile {
		file, fileErr := openLogFile()
		if fileErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v. File logging disabled.\n", fileErr)
		} else {
			writers = append(writers, file)
		}
	}
	if opts.Stderr || len(writers) == 0 {
		writers = append(writers, os.Stderr)
	}

	handler := slog.NewJSONHandler(io.MultiWriter(writers...), &slog.HandlerOptions{Level: level})
	defaultLogger = slog.New(handler)
}

// SetLogger replaces the default logger instance, mostly for tests.
func SetLogger(l *slog.Logger) {
	defaultLogger = l
}

// Discard silences all logging.
func Discard() {
	defaultLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func get() *slog.Logger {
	if defaultLogger == nil {
		InitLogger(Options{NoFile: true})
	}
	return defaultLogger
}

// Info logs an informational message.
func Info(msg string, args ...any) {
	get().Info(msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	get().Error(msg, args...)
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	get().Debug(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	get().Warn(msg, args...)
}

// Warnf logs a formatted warning message.
func Warnf(format string, v ...interface{}) {
	get().Warn(fmt.Sprintf(format, v...))
}
