package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"order-intake/internal/config"
)

// New builds the process logger from LOG_LEVEL and LOG_FORMAT.
func New(logCfg *config.Log) *slog.Logger {
	return newWithWriter(logCfg, os.Stdout)
}

func newWithWriter(logCfg *config.Log, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(logCfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(logCfg.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler).With("service", "order-intake")
}

func parseLevel(level string) slog.Level {
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

func Resolve(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
