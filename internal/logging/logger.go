// Package logging builds the slog loggers the engine and CLI share.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// normalizeKeys maps the common "error" attribute key to "err" so log
// output stays consistent no matter who wrote the call site.
func normalizeKeys(groups []string, a slog.Attr) slog.Attr {
	if a.Key == "error" {
		a.Key = "err"
	}
	return a
}

// New creates the standard text logger. It writes to stderr so stdout
// stays free for story rendering.
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: normalizeKeys,
	}))
}

// NewJSON creates a JSON logger for scripted or headless runs, where
// the log stream is consumed by machines rather than players.
func NewJSON(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: normalizeKeys,
	}))
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
