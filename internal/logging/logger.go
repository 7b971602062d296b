// Package logging wires zerolog for the menucarbon engine.
//
// Loggers travel through context.Context so that every calculation step logs with
// the same trace ID. Packages obtain their logger with FromContext and add a
// "component" field via ComponentLogger.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Output targets understood by NewLogger.
const (
	OutputStderr = "stderr"
	OutputStdout = "stdout"
	OutputFile   = "file"

	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config describes how a logger is built.
type Config struct {
	Level  string
	Format string
	Output string
	File   string
	Caller bool
}

// LogResult is the outcome of NewLoggerWithPath.
type LogResult struct {
	Logger         zerolog.Logger
	UsingFile      bool
	FilePath       string
	FallbackUsed   bool
	FallbackReason string

	file *os.File
}

// Close releases the log file handle, if one was opened.
func (r *LogResult) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

//nolint:gochecknoglobals // Fallback logger for contexts without one attached.
var (
	defaultLogger   = zerolog.New(io.Discard)
	defaultLoggerMu sync.RWMutex
)

// SetDefault replaces the logger returned by FromContext when the context carries none.
func SetDefault(l zerolog.Logger) {
	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	defaultLogger = l
}

// Default returns the process default logger.
func Default() zerolog.Logger {
	defaultLoggerMu.RLock()
	defer defaultLoggerMu.RUnlock()
	return defaultLogger
}

// NewLogger builds a zerolog logger from cfg. File output errors fall back to stderr.
func NewLogger(cfg Config) zerolog.Logger {
	result := NewLoggerWithPath(cfg)
	return result.Logger
}

// NewLoggerWithPath builds a logger and reports where it writes.
// When a file cannot be opened the logger falls back to stderr and the reason is
// recorded so the CLI can tell the user.
func NewLoggerWithPath(cfg Config) LogResult {
	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		lvl = zerolog.InfoLevel
	}

	var (
		out    io.Writer = os.Stderr
		result LogResult
	)

	switch cfg.Output {
	case OutputStdout:
		out = os.Stdout
	case OutputFile:
		f, openErr := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if openErr != nil {
			result.FallbackUsed = true
			result.FallbackReason = openErr.Error()
		} else {
			out = f
			result.file = f
			result.UsingFile = true
			result.FilePath = cfg.File
		}
	}

	if cfg.Format == FormatConsole && !result.UsingFile {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(out).Level(lvl).With().Timestamp()
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	result.Logger = ctx.Logger()
	return result
}

// FromContext returns the logger stored in ctx, or the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
			return l
		}
	}
	l := Default()
	return &l
}

// ComponentLogger returns a child logger tagged with the component name.
func ComponentLogger(l zerolog.Logger, component string) zerolog.Logger {
	return l.With().Str("component", component).Logger()
}
