package pixfx

import "context"

// BackendKind identifies which implementation family serves a processor.
type BackendKind uint8

const (
	// KindNative is a compiled accelerated engine (GPU compute).
	KindNative BackendKind = iota + 1

	// KindFallback is the pure in-process CPU implementation.
	KindFallback
)

func (k BackendKind) String() string {
	switch k {
	case KindNative:
		return "native"
	case KindFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Status is the lifecycle state of a BackendContext.
type Status int32

const (
	// StatusNotLoaded means no load attempt has completed.
	StatusNotLoaded Status = iota

	// StatusNativeReady means a native engine is bound.
	StatusNativeReady

	// StatusFallbackReady means native acquisition failed and the fallback
	// engine is bound.
	StatusFallbackReady

	// StatusLoadFailed means neither a native nor the fallback engine could
	// be bound. It is sticky until BackendContext.Retry.
	StatusLoadFailed
)

func (s Status) String() string {
	switch s {
	case StatusNotLoaded:
		return "not loaded"
	case StatusNativeReady:
		return "native ready"
	case StatusFallbackReady:
		return "fallback ready"
	case StatusLoadFailed:
		return "load failed"
	default:
		return "unknown"
	}
}

// Ready reports whether processors can be created and used.
func (s Status) Ready() bool {
	return s == StatusNativeReady || s == StatusFallbackReady
}

// Backend executes effects on buffers of one fixed size. Callers validate
// buffer length before calling; implementations may assume it.
//
// Every method mutates buf in place and never retains it. Alpha bytes
// are never written.
type Backend interface {
	Kind() BackendKind
	ApplyBrightness(buf []byte, factor float32) error
	ApplyContrast(buf []byte, factor float32) error
	ApplyTemperature(buf []byte, t float32) error
	ApplyBlur(buf []byte, radius float32) error

	// ApplyBatch applies brightness, contrast, temperature and blur in
	// that order, skipping neutral steps.
	ApplyBatch(buf []byte, p EffectParams) error

	// Close releases per-size resources.
	Close()
}

// Engine is a loaded processing implementation. One engine is bound to a
// BackendContext and shared by all processors created from it.
type Engine interface {
	// Name returns a short identifier such as "cpu" or "gpu".
	Name() string

	Kind() BackendKind

	// Init acquires the engine's resources. An error (or panic) makes the
	// loader move on to the next candidate.
	Init(ctx context.Context) error

	// NewBackend returns a backend for width x height buffers.
	NewBackend(width, height int) (Backend, error)

	// Close releases the engine. Backends created from it must not be
	// used afterwards.
	Close()
}

// EngineFactory creates an uninitialized engine.
type EngineFactory func() Engine
