package logger

import (
	"log/slog"
	"os"
)

// New returns a structured JSON logger with source location enabled,
// tagged with the service name. Level should be a valid slog level
// string: DEBUG, INFO, WARN, ERROR. Unrecognized values default to INFO.
func New(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     lvl,
	})
	return slog.New(h).With("service", "audit-service")
}
