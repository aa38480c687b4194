// Package logging builds the process logger.
package logging

import (
	"io"
	"log/slog"

	"github.com/lmittmann/tint"
)

// New returns a tint-backed logger. Callers should pass stderr when the stdio
// transport owns stdout.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:   level,
		NoColor: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				a.Value = slog.StringValue(a.Value.Time().UTC().Format("2006-01-02T15:04:05.000Z07:00"))
			}
			if s, ok := a.Value.Any().(string); ok && s == "" {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// Discard returns a logger that drops everything, for tests.
func Discard() *slog.Logger {
	return New(io.Discard, slog.LevelError+4)
}
