package pixfx

import (
	"context"
	"runtime"
	"sync"

	"github.com/goldstar105000117/pixfx/internal/kernels"
	"github.com/goldstar105000117/pixfx/internal/parallel"
)

// FallbackName is the engine name of the CPU implementation.
const FallbackName = "cpu"

// parallelMinPixels is the frame size from which the CPU engine splits
// work into row bands.
const parallelMinPixels = 256 * 256

// NewFallbackEngine returns the pure in-process engine. Its Init never
// fails. Frames of parallelMinPixels or more are processed in row bands
// on a worker pool sized to GOMAXPROCS; results are identical to a
// single-threaded pass.
func NewFallbackEngine() Engine {
	return &fallbackEngine{workers: runtime.GOMAXPROCS(0)}
}

type fallbackEngine struct {
	workers int

	mu   sync.Mutex
	pool *parallel.WorkerPool
}

func (e *fallbackEngine) Name() string      { return FallbackName }
func (e *fallbackEngine) Kind() BackendKind { return KindFallback }

func (e *fallbackEngine) Init(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pool == nil && e.workers > 1 {
		e.pool = parallel.NewWorkerPool(e.workers)
	}
	return nil
}

func (e *fallbackEngine) Close() {
	e.mu.Lock()
	pool := e.pool
	e.pool = nil
	e.mu.Unlock()
	if pool != nil {
		pool.Close()
	}
}

// runner returns the band runner for a frame of pixels pixels, or nil to
// run on the calling goroutine.
func (e *fallbackEngine) runner(pixels int) (kernels.Runner, int) {
	if pixels < parallelMinPixels {
		return nil, 1
	}
	e.mu.Lock()
	pool := e.pool
	e.mu.Unlock()
	if pool == nil {
		return nil, 1
	}
	return pool.ExecuteAll, pool.Workers() * 2
}

func (e *fallbackEngine) NewBackend(width, height int) (Backend, error) {
	if _, err := BufferLen(width, height); err != nil {
		return nil, err
	}
	return &fallbackBackend{engine: e, width: width, height: height}, nil
}

// fallbackBackend runs the kernels directly on the caller's buffer.
type fallbackBackend struct {
	engine        *fallbackEngine
	width, height int
}

func (b *fallbackBackend) Kind() BackendKind { return KindFallback }
func (b *fallbackBackend) Close()            {}

func (b *fallbackBackend) ApplyBrightness(buf []byte, factor float32) error {
	return b.run(buf, kernels.Params{Brightness: factor, Contrast: 1})
}

func (b *fallbackBackend) ApplyContrast(buf []byte, factor float32) error {
	return b.run(buf, kernels.Params{Brightness: 1, Contrast: factor})
}

func (b *fallbackBackend) ApplyTemperature(buf []byte, t float32) error {
	return b.run(buf, kernels.Params{Brightness: 1, Contrast: 1, Temperature: t})
}

func (b *fallbackBackend) ApplyBlur(buf []byte, radius float32) error {
	return b.run(buf, kernels.Params{Brightness: 1, Contrast: 1, BlurRadius: radius})
}

func (b *fallbackBackend) ApplyBatch(buf []byte, p EffectParams) error {
	return b.run(buf, p.kernelParams())
}

func (b *fallbackBackend) run(buf []byte, p kernels.Params) error {
	run, bands := b.engine.runner(b.width * b.height)
	kernels.BatchBands(buf, b.width, b.height, p, bands, run)
	return nil
}
