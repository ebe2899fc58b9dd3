// Package logger configures the process wide slog logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup installs a text logger writing to logFile, which is "stdout",
// "stderr" or a path opened for append. The returned closer releases the
// log file.
func Setup(logLevel string, logFile string) (*slog.Logger, io.Closer, error) {
	var logWriter io.Writer
	var closer io.Closer = nopCloser{}
	handlerOptions := &slog.HandlerOptions{Level: getLogLevel(logLevel)}

	switch strings.ToLower(logFile) {
	case "", "stderr":
		logWriter = os.Stderr
	case "stdout":
		logWriter = os.Stdout
	default:
		f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) // #nosec G302 G304 -- log path comes from the config.
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		logWriter, closer = f, f
	}

	logger := slog.New(slog.NewTextHandler(logWriter, handlerOptions))
	slog.SetDefault(logger)
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func getLogLevel(logLevel string) slog.Level {
	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return level
}
