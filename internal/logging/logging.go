package logging

import (
	"log/slog"
	"os"
)

// Init installs the default slog logger at the given level and returns
// it.
func Init(level string) *slog.Logger {
	l := slog.LevelInfo

	switch level {
	case "dev", "development", "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "warn", "warning":
		l = slog.LevelWarn
	case "error", "production", "prod":
		l = slog.LevelError
	}

	logger := slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: l,
		}),
	)
	slog.SetDefault(logger)
	return logger
}
