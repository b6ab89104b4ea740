package sl

import (
	"io"
	"log/slog"
)

// NewDiscardLogger returns a logger that drops every record. Used by tests.
func NewDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
