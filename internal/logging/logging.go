// Logger construction for the helper: discard unless enabled.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	// EnvLog enables logging: "1" or "true" logs to stderr, anything else
	// is a file path the log is appended to.
	EnvLog = "GDBMI_LOG"
	// EnvLogLevel is debug, info, warn or error.
	EnvLogLevel = "GDBMI_LOG_LEVEL"
)

// Logger is a slog.Logger that may own its output file.
type Logger struct {
	*slog.Logger
	file *os.File // nil when output is discarded or goes to stderr
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// New builds a logger from the environment, falling back to dest and level
// from the config file. The environment wins.
func New(dest, level string) (*Logger, error) {
	return newLogger(os.Stderr, dest, level)
}

func newLogger(stderr io.Writer, dest, level string) (*Logger, error) {
	if v := strings.TrimSpace(os.Getenv(EnvLog)); v != "" {
		dest = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		level = v
	}
	if dest == "" {
		return Discard(), nil
	}
	lvl, ok := parseLevel(level)
	if !ok && strings.TrimSpace(level) != "" {
		return nil, fmt.Errorf("unknown log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	if dest == "1" || strings.EqualFold(dest, "true") {
		return &Logger{Logger: slog.New(slog.NewTextHandler(stderr, opts))}, nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return nil, fmt.Errorf("mkdir log dir: %w", err)
	}
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	l := &Logger{Logger: slog.New(slog.NewTextHandler(f, opts)), file: f}
	l.Info("logging enabled", "path", dest)
	return l, nil
}

// Close closes the log file, if any.
func (l *Logger) Close() {
	if l.file != nil {
		l.Info("logging closed")
		_ = l.file.Close()
	}
}

// parseLevel defaults to debug when raw is empty or unknown.
func parseLevel(raw string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelDebug, false
	}
}
