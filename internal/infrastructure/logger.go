package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"assaymerge/internal/config"
)

// logStderr is the console sink. stdout is reserved for CSV written with
// `merge -o -`.
var logStderr io.Writer = os.Stderr

// logState is the process-wide logger and the file it may own
var logState struct {
	once   sync.Once
	logger *slog.Logger

	mu   sync.Mutex
	file *os.File
}

// InitializeLogger builds the process logger once and installs it as the
// slog default. Later calls return the first logger.
func InitializeLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	var err error
	logState.once.Do(func() {
		var logger *slog.Logger
		if logger, err = NewLogger(cfg); err == nil {
			logState.logger = logger
			slog.SetDefault(logger)
		}
	})
	return logState.logger, err
}

// GetLogger returns the process logger, or slog.Default before
// InitializeLogger has run.
func GetLogger() *slog.Logger {
	if logState.logger == nil {
		return slog.Default()
	}
	return logState.logger
}

// NewLogger builds a JSON logger for cfg. Output "file" and "both" open
// cfg.FilePath, which CloseLogFile releases.
func NewLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	var sink io.Writer = logStderr

	output := strings.ToLower(cfg.Output)
	if output == "file" || output == "both" {
		file, err := openLogFile(cfg.FilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		adoptLogFile(file)

		sink = file
		if output == "both" {
			sink = io.MultiWriter(logStderr, file)
		}
	}

	return NewJSONLogger(sink, cfg.Level, cfg.Development), nil
}

// NewJSONLogger returns a JSON logger on w whose records carry the trace
// and run IDs found in their context.
func NewJSONLogger(w io.Writer, level string, addSource bool) *slog.Logger {
	return slog.New(contextHandler{slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: addSource,
		Level:     levelFromString(level),
	})})
}

// contextHandler copies request-scoped IDs from the context onto records
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := GetTraceID(ctx); id != "" {
		r.AddAttrs(slog.String("trace_id", id))
	}
	if id := GetRunID(ctx); id != "" {
		r.AddAttrs(slog.String("run_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}

// levelFromString accepts debug, info, warn/warning and error; anything
// else is info.
func levelFromString(level string) slog.Level {
	var l slog.Level
	normalized := strings.ToLower(strings.TrimSpace(level))
	if normalized == "warning" {
		normalized = "warn"
	}
	if err := l.UnmarshalText([]byte(normalized)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// CloseLogFile closes the log file opened by NewLogger, if any
func CloseLogFile() error {
	logState.mu.Lock()
	defer logState.mu.Unlock()

	if logState.file == nil {
		return nil
	}
	err := logState.file.Close()
	logState.file = nil
	return err
}

// ResetLoggerForTesting forgets the process logger so tests can initialize
// it again.
func ResetLoggerForTesting() {
	CloseLogFile()
	logState.logger = nil
	logState.once = sync.Once{}
}

func adoptLogFile(file *os.File) {
	logState.mu.Lock()
	defer logState.mu.Unlock()
	if logState.file != nil {
		logState.file.Close()
	}
	logState.file = file
}

func openLogFile(path string) (*os.File, error) {
	if path == "" {
		path = config.DefaultLogFile
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}
