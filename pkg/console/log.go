package console

import (
	"io"
	"log/slog"
)

// NewLogger returns a logger writing to w, normally the same port the
// console answers on. Only warnings and errors are written so a host
// reading command replies rarely sees a log line between them; replies and
// log records are each written whole.
func NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelWarn}))
}
