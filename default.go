package pixfx

import (
	"context"
	"sync"
)

var defaultContext = sync.OnceValue(func() *BackendContext {
	return NewBackendContext()
})

// Default returns the process-wide context used by the package-level
// functions. It uses the registered native engines and the CPU fallback.
func Default() *BackendContext {
	return defaultContext()
}

// BackendStatus returns the status of the default context without
// triggering a load.
func BackendStatus() Status {
	return Default().Status()
}

// IsNativeAvailable reports whether the default context has a native
// engine bound.
func IsNativeAvailable() bool {
	return Default().IsNativeAvailable()
}

// NewProcessor creates a processor from the default context.
func NewProcessor(ctx context.Context, width, height int) (*ImageProcessor, error) {
	return Default().NewProcessor(ctx, width, height)
}

// Benchmark runs the benchmark harness on the default context.
func Benchmark(width, height, iterations int) (BenchmarkResult, error) {
	return Default().Benchmark(context.Background(), width, height, iterations)
}
