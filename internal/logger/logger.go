// Package logger configures log/slog for the CLI and the reference backend,
// with optional file rotation via lumberjack.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	JSON  bool

	// Dir enables a rotating redops.log in addition to Output.
	Dir string

	// Output defaults to stderr so command output on stdout stays clean.
	Output io.Writer
}

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// New builds a logger. The returned closer releases the log file, if any.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	var writer io.Writer = cfg.Output
	if writer == nil {
		writer = os.Stderr
	}
	var closer io.Closer = nopCloser{}
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, nil, err
		}
		file := &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Dir, "redops.log"),
			MaxSize:    20, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
			Compress:   true,
		}
		writer = io.MultiWriter(writer, file)
		closer = file
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: level == slog.LevelDebug}
	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}
	return slog.New(handler), closer, nil
}

// Init installs a logger built from cfg as the slog default.
func Init(cfg Config) (io.Closer, error) {
	l, closer, err := New(cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(l)
	return closer, nil
}

// WithComponent returns the default logger tagged with a component name.
func WithComponent(component string) *slog.Logger {
	return slog.Default().With("component", component)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
