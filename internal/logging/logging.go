// Package logging provides component-tagged slog loggers.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

var level = new(slog.LevelVar)

func init() {
	level.Set(slog.LevelWarn)
}

// Init installs the global slog logger writing to stderr.
// levelStr: "debug", "info", "warn", "error" (default: "warn").
// format: "text" or "json" (default: "text").
func Init(levelStr, format string) {
	InitWriter(os.Stderr, levelStr, format)
}

// InitWriter is Init with an explicit destination.
func InitWriter(w io.Writer, levelStr, format string) {
	level.Set(ParseLevel(levelStr))

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// For returns a logger tagged with the given component name. It delegates to
// slog.Default() on every call, so loggers held in package variables follow
// later changes to the default logger. Records below the package level (warn
// until Init or SetLevel says otherwise) are dropped even when the default
// handler would accept them.
func For(component string) *slog.Logger {
	return slog.New(&dynamicHandler{component: component})
}

// Or returns log, or the component logger when log is nil.
func Or(log *slog.Logger, component string) *slog.Logger {
	if log != nil {
		return log
	}
	return For(component)
}

// SetLevel changes the log level at runtime.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// ParseLevel converts a level name to a slog.Level. Unknown names yield warn.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

type dynamicHandler struct {
	component string
	attrs     []slog.Attr
}

func (h *dynamicHandler) Enabled(ctx context.Context, l slog.Level) bool {
	if l < level.Level() {
		return false
	}
	return slog.Default().Handler().Enabled(ctx, l)
}

func (h *dynamicHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(slog.String("component", h.component))
	r.AddAttrs(h.attrs...)
	return slog.Default().Handler().Handle(ctx, r)
}

func (h *dynamicHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &dynamicHandler{component: h.component, attrs: merged}
}

func (h *dynamicHandler) WithGroup(name string) slog.Handler {
	return h
}
