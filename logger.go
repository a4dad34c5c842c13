package pixfx

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for pixfx and every bound engine.
// By default pixfx produces no log output. Pass nil to restore the
// silent default.
//
// Log levels used by pixfx:
//   - [slog.LevelDebug]: per-call diagnostics (slow batches, buffer sizes)
//   - [slog.LevelInfo]: lifecycle events (engine bound, adapter selected)
//   - [slog.LevelWarn]: recovered failures (native engine unavailable)
//   - [slog.LevelError]: no engine could be bound
//
// SetLogger is safe for concurrent use.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	boundMu.Lock()
	defer boundMu.Unlock()
	for e := range bound {
		propagateLogger(e, l)
	}
}

// Logger returns the current logger. Engine packages call this to share
// the same configuration.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by engines that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// Engines currently bound to a context, so SetLogger can reach them.
var (
	boundMu sync.Mutex
	bound   = make(map[Engine]struct{})
)

func trackEngine(e Engine) {
	boundMu.Lock()
	defer boundMu.Unlock()
	bound[e] = struct{}{}
	propagateLogger(e, Logger())
}

func untrackEngine(e Engine) {
	boundMu.Lock()
	defer boundMu.Unlock()
	delete(bound, e)
}

func propagateLogger(e Engine, l *slog.Logger) {
	if ls, ok := e.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
