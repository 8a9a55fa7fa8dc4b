// Package logger is the process-wide structured logger for pinledger.
//
// Log lines go to stderr or a file; stdout is left to the reports the CLI
// prints, so `pinledger reconcile -o json | jq` never sees a log line.
// Credentials are masked before any handler writes them (see redact.go).
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// Config holds logger configuration.
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // text, json
	Output string // stderr (default), stdout, or a file path
}

var (
	level   slog.LevelVar
	current atomic.Pointer[slog.Logger]

	// mu serializes Init and owns the file opened by the last Init.
	mu        sync.Mutex
	closeFile func() error
)

func init() {
	current.Store(slog.New(newHandler(os.Stderr, "text", colorEnabled(os.Stderr))))
}

// ParseLevel maps DEBUG, INFO, WARN and ERROR, in any case, to slog levels.
// An empty string is INFO.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "", "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Init replaces the process logger. A log file opened by a previous Init is
// closed.
func Init(cfg Config) error {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return err
	}

	format := strings.ToLower(cfg.Format)
	switch format {
	case "":
		format = "text"
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", cfg.Format)
	}

	w, color, closer, err := openOutput(cfg.Output)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	if closeFile != nil {
		_ = closeFile()
	}
	closeFile = closer
	level.Set(lvl)
	current.Store(slog.New(newHandler(w, format, color)))
	return nil
}

// SetOutput sends uncolored logs to w. Tests use it to capture output.
func SetOutput(w io.Writer, lvl slog.Level, format string) {
	mu.Lock()
	defer mu.Unlock()
	level.Set(lvl)
	current.Store(slog.New(newHandler(w, format, false)))
}

func openOutput(out string) (io.Writer, bool, func() error, error) {
	switch strings.ToLower(out) {
	case "", "stderr":
		return os.Stderr, colorEnabled(os.Stderr), nil, nil
	case "stdout":
		return os.Stdout, colorEnabled(os.Stdout), nil, nil
	}
	f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, false, nil, fmt.Errorf("open log file %q: %w", out, err)
	}
	return f, false, f.Close, nil
}

func newHandler(w io.Writer, format string, color bool) slog.Handler {
	opts := &slog.HandlerOptions{Level: &level, ReplaceAttr: redact}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return newTextHandler(w, opts, color)
}

func Debug(msg string, args ...any) { emit(context.Background(), slog.LevelDebug, msg, args) }
func Info(msg string, args ...any)  { emit(context.Background(), slog.LevelInfo, msg, args) }
func Warn(msg string, args ...any)  { emit(context.Background(), slog.LevelWarn, msg, args) }
func Error(msg string, args ...any) { emit(context.Background(), slog.LevelError, msg, args) }

// DebugCtx logs at debug level, leading with the run and record fields
// carried by ctx.
func DebugCtx(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelDebug, msg, withRunFields(ctx, args))
}

func InfoCtx(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelInfo, msg, withRunFields(ctx, args))
}

func WarnCtx(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelWarn, msg, withRunFields(ctx, args))
}

func ErrorCtx(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelError, msg, withRunFields(ctx, args))
}

func emit(ctx context.Context, lvl slog.Level, msg string, args []any) {
	l := current.Load()
	if !l.Enabled(ctx, lvl) {
		return
	}
	l.Log(ctx, lvl, msg, args...)
}

func withRunFields(ctx context.Context, args []any) []any {
	lc := FromContext(ctx)
	if lc == nil {
		return args
	}

	out := make([]any, 0, 12+len(args))
	for _, f := range [...]struct{ key, val string }{
		{KeyRunID, lc.RunID},
		{KeyMode, lc.Mode},
		{KeyRecordID, lc.RecordID},
		{KeyCID, lc.CID},
		{KeyTraceID, lc.TraceID},
		{KeySpanID, lc.SpanID},
	} {
		if f.val != "" {
			out = append(out, f.key, f.val)
		}
	}
	return append(out, args...)
}
