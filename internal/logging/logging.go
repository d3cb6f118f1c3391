// Package logging builds the zap loggers used by the greenleaf binaries.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel maps a level name to a zap level. "off" and "disabled" return ok=false.
func ParseLevel(name string) (lvl zapcore.Level, ok bool, err error) {
	switch name {
	case "off", "disabled", "none":
		return zapcore.InfoLevel, false, nil
	}
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		return zapcore.InfoLevel, false, fmt.Errorf("log level %q: %w", name, err)
	}
	return lvl, true, nil
}

// NewFile returns a JSON logger appending to path.
// The TUI owns stdout/stderr, so the client never logs to the terminal.
func NewFile(path, level string) (*zap.Logger, error) {
	lvl, ok, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if !ok {
		return zap.NewNop(), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	return cfg.Build()
}

// NewStderr returns a JSON logger writing to stderr, for the API server.
func NewStderr(level string) (*zap.Logger, error) {
	lvl, ok, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if !ok {
		return zap.NewNop(), nil
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
