package config

import (
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// SetupLogger builds the engine logger: human-readable text on stderr
// plus JSON appended to the log file. Stdout carries the MCP transport
// and must stay clean, so nothing ever logs there.
// The returned cleanup closes the log file.
func SetupLogger(path string, level slog.Level) (*slog.Logger, func() error) {
	opts := &slog.HandlerOptions{Level: level}
	stderr := slog.NewTextHandler(os.Stderr, opts)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		slog.Error("log file unavailable, stderr only", "path", path, "error", err)
		return slog.New(stderr), func() error { return nil }
	}

	logger := slog.New(slogmulti.Fanout(stderr, slog.NewJSONHandler(file, opts)))
	return logger, file.Close
}
