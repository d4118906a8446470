package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// SlogLevelInfoFromString maps a level name to a slog.Level, falling back to Info
// for empty or unknown values.
func SlogLevelInfoFromString(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the application logger writing to stderr.
func NewLogger(level, format string) *slog.Logger {
	return NewLoggerWithWriter(os.Stderr, level, format)
}

func NewLoggerWithWriter(w io.Writer, level, format string) *slog.Logger {
	loggerOptions := &slog.HandlerOptions{
		Level: SlogLevelInfoFromString(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == FormatJSON {
		handler = slog.NewJSONHandler(w, loggerOptions)
	} else {
		handler = slog.NewTextHandler(w, loggerOptions)
	}

	return slog.New(handler)
}
