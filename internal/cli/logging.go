package cli

import (
	"io"
	"log/slog"

	"github.com/lmittmann/tint"
)

// newLogger builds the colorized slog logger used by all commands.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
	}))
}
