package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	ComponentMain    = "main"
	ComponentServer  = "server"
	ComponentWebhook = "webhook"
	ComponentFeed    = "feed"
)

// Configure builds the process logger and installs it as the slog default.
func Configure(format, level string) *slog.Logger {
	return configure(os.Stdout, format, level)
}

func configure(w io.Writer, format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	l := slog.New(handler)
	slog.SetDefault(l)
	return l
}

func ParseLevel(level string) slog.Level {
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
