package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiDim    = "\033[2m"
)

// leadingKeys are printed right after the message, in this order, wherever
// they were attached.
var leadingKeys = []string{KeyRunID, KeyMode, KeyRecordID, KeyCID}

// textHandler writes one line per record for a terminal:
//
//	12:04:05.123 INF Deleted orphaned record run_id=1a2b3c4d mode=repair record_id=42 cid=bafy... reason=not-pinned
//
// Run IDs are shortened to eight characters. Trace and span IDs are left
// to the JSON format.
type textHandler struct {
	opts  slog.HandlerOptions
	w     io.Writer
	mu    *sync.Mutex
	color bool
	attrs []slog.Attr
	group string
}

func newTextHandler(w io.Writer, opts *slog.HandlerOptions, color bool) *textHandler {
	h := &textHandler{w: w, mu: &sync.Mutex{}, color: color}
	if opts != nil {
		h.opts = *opts
	}
	return h
}

func (h *textHandler) Enabled(_ context.Context, l slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return l >= minLevel
}

func (h *textHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := slices.Clone(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		attrs = h.flatten(attrs, h.group, a)
		return true
	})

	lead := make(map[string]string, len(leadingKeys))
	rest := attrs[:0]
	for _, a := range attrs {
		switch {
		case a.Key == KeyTraceID || a.Key == KeySpanID:
		case slices.Contains(leadingKeys, a.Key):
			lead[a.Key] = formatValue(a.Value)
		default:
			rest = append(rest, a)
		}
	}

	buf := make([]byte, 0, 256)
	if !r.Time.IsZero() {
		buf = r.Time.AppendFormat(buf, "15:04:05.000")
		buf = append(buf, ' ')
	}
	buf = h.appendLevel(buf, r.Level)
	buf = append(buf, ' ')
	buf = append(buf, r.Message...)

	for _, k := range leadingKeys {
		v, ok := lead[k]
		if !ok {
			continue
		}
		if k == KeyRunID && len(v) > 8 {
			v = v[:8]
		}
		buf = h.appendPair(buf, k, v)
	}
	for _, a := range rest {
		buf = h.appendPair(buf, a.Key, formatValue(a.Value))
	}
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

// flatten resolves a, expands groups into dotted keys and applies
// ReplaceAttr to every leaf.
func (h *textHandler) flatten(dst []slog.Attr, group string, a slog.Attr) []slog.Attr {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return dst
	}
	if a.Value.Kind() == slog.KindGroup {
		g := group
		if a.Key != "" {
			g = joinKey(group, a.Key)
		}
		for _, ga := range a.Value.Group() {
			dst = h.flatten(dst, g, ga)
		}
		return dst
	}
	if h.opts.ReplaceAttr != nil {
		var groups []string
		if group != "" {
			groups = strings.Split(group, ".")
		}
		a = h.opts.ReplaceAttr(groups, a)
	}
	a.Key = joinKey(group, a.Key)
	return append(dst, a)
}

func (h *textHandler) appendLevel(buf []byte, l slog.Level) []byte {
	name, color := "ERR", ansiRed
	switch {
	case l < slog.LevelInfo:
		name, color = "DBG", ansiDim
	case l < slog.LevelWarn:
		name, color = "INF", ansiGreen
	case l < slog.LevelError:
		name, color = "WRN", ansiYellow
	}
	if !h.color {
		return append(buf, name...)
	}
	return append(append(append(buf, color...), name...), ansiReset...)
}

func (h *textHandler) appendPair(buf []byte, key, val string) []byte {
	if val == "" || strings.ContainsAny(val, " =\"\t\n") {
		val = strconv.Quote(val)
	}
	buf = append(buf, ' ')
	if h.color {
		buf = append(append(append(buf, ansiDim...), key...), ansiReset...)
	} else {
		buf = append(buf, key...)
	}
	return append(append(buf, '='), val...)
}

func (h *textHandler) WithAttrs(as []slog.Attr) slog.Handler {
	c := *h
	c.attrs = slices.Clone(h.attrs)
	for _, a := range as {
		c.attrs = h.flatten(c.attrs, h.group, a)
	}
	return &c
}

func (h *textHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.group = joinKey(h.group, name)
	return &c
}

func joinKey(group, key string) string {
	if group == "" {
		return key
	}
	return group + "." + key
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
	}
	return v.String()
}

// colorEnabled reports whether f is a terminal that accepts ANSI colors.
func colorEnabled(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
