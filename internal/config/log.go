package config

import (
	"io"
	"log/slog"
)

// SetupLog installs a text slog logger writing to w at the given level as the
// process default and returns it.
func SetupLog(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
