// Package logging builds the slog.Logger used by the pixfx tool.
//
// Console output is slog text on the given writer. When a log file is
// configured, records are also written as JSON to a size-rotated file.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/goldstar105000117/pixfx/internal/config"
)

// ParseLevel maps a configuration level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("logging: unknown level %q", s)
}

// New returns a logger for cfg writing text records to console. The
// returned Closer releases the log file, if any, and is never nil.
func New(cfg config.LogConfig, console io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler = slog.NewTextHandler(console, opts)
	closer := io.Closer(nopCloser{})

	if cfg.File != "" {
		file := newFileWriter(cfg)
		h = multiHandler{h, slog.NewJSONHandler(file, opts)}
		closer = file
	}
	return slog.New(h), closer, nil
}

// newFileWriter returns a rotating writer for cfg.File. Zero limits fall
// back to 100 MB, 5 backups and 30 days.
func newFileWriter(cfg config.LogConfig) *lumberjack.Logger {
	size, backups, age := cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays
	if size <= 0 {
		size = 100
	}
	if backups <= 0 {
		backups = 5
	}
	if age <= 0 {
		age = 30
	}
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    size,
		MaxBackups: backups,
		MaxAge:     age,
		Compress:   cfg.Compress,
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// multiHandler fans a record out to every handler that accepts its level.
type multiHandler []slog.Handler

func (m multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range m {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (m multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(multiHandler, len(m))
	for i, h := range m {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (m multiHandler) WithGroup(name string) slog.Handler {
	out := make(multiHandler, len(m))
	for i, h := range m {
		out[i] = h.WithGroup(name)
	}
	return out
}
