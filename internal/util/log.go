package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return lvl
}

func NewLogger(level string) zerolog.Logger {
	return zerolog.New(os.Stdout).With().Timestamp().Logger().Level(parseLevel(level))
}

// NewFileLogger writes human-readable lines to stdout and JSON lines to path.
// The returned closer flushes and closes the file.
func NewFileLogger(level, path string) (zerolog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Logger{}, nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Logger{}, nil, fmt.Errorf("open log file: %w", err)
	}
	console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.DateTime}
	logger := newTeeLogger(level, console, file)
	return logger, file, nil
}

func newTeeLogger(level string, console, sink io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.MultiLevelWriter(console, sink)).
		With().Timestamp().Logger().
		Level(parseLevel(level))
}
