package logging

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// ParseLevel maps a config level name to a slog level. Unknown names map to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init installs a tint handler writing to w as the default logger.
// Verbose forces debug level and adds source locations.
func Init(w io.Writer, level string, verbose bool) {
	lvl := ParseLevel(level)
	if verbose {
		lvl = slog.LevelDebug
	}
	handler := tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		TimeFormat: time.Kitchen,
		AddSource:  verbose,
	})
	slog.SetDefault(slog.New(handler))
}
