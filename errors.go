package pixfx

import "errors"

var (
	// ErrBackendUnavailable reports that a native engine could not be
	// acquired. It is recorded by the loader (see BackendContext.NativeErr)
	// and never returned from processing calls: the loader recovers by
	// binding the fallback engine.
	ErrBackendUnavailable = errors.New("pixfx: native backend unavailable")

	// ErrInvalidDimensions is returned for a zero, negative or overflowing
	// width or height.
	ErrInvalidDimensions = errors.New("pixfx: invalid dimensions")

	// ErrBufferSizeMismatch is returned when a buffer is not exactly
	// width*height*4 bytes long.
	ErrBufferSizeMismatch = errors.New("pixfx: buffer size mismatch")

	// ErrProcessorUnusable is returned when no backend could be loaded,
	// or when a processor or its context has been closed.
	ErrProcessorUnusable = errors.New("pixfx: processor unusable")

	// ErrInvalidIterations is returned by Benchmark for a negative
	// iteration count.
	ErrInvalidIterations = errors.New("pixfx: invalid iteration count")
)
