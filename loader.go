package pixfx

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// loadKey names the single in-flight load in a context's group.
const loadKey = "load"

// BackendContext owns backend selection for a session. It loads one engine
// (preferring native engines, falling back to the CPU engine), exposes the
// resulting Status, and creates processors bound to that engine.
//
// Concurrent Load calls share one attempt. Status is written only by the
// attempt and read atomically.
//
// A BackendContext is safe for concurrent use.
type BackendContext struct {
	useRegistry bool
	natives     []namedFactory
	fallback    EngineFactory
	startup     *startupBenchmark

	status atomic.Int32
	group  singleflight.Group

	mu        sync.RWMutex
	engine    Engine
	nativeErr error
	loadErr   error
	closed    bool
}

type startupBenchmark struct {
	width, height, iterations int
}

// Option configures a BackendContext.
type Option func(*BackendContext)

// WithNative makes the context try factory instead of the registered
// native engines. Repeated options are tried in order.
func WithNative(name string, factory EngineFactory) Option {
	return func(c *BackendContext) {
		c.useRegistry = false
		c.natives = append(c.natives, namedFactory{name: name, factory: factory})
	}
}

// WithoutNative disables native engines; the context binds the fallback.
func WithoutNative() Option {
	return func(c *BackendContext) {
		c.useRegistry = false
		c.natives = nil
	}
}

// WithFallback replaces the CPU fallback engine. A nil factory leaves the
// context without a fallback, so a native failure ends in StatusLoadFailed.
func WithFallback(factory EngineFactory) Option {
	return func(c *BackendContext) {
		c.fallback = factory
	}
}

// WithStartupBenchmark runs and logs a benchmark right after an engine is
// bound, as a warm-up and throughput check.
func WithStartupBenchmark(width, height, iterations int) Option {
	return func(c *BackendContext) {
		c.startup = &startupBenchmark{width: width, height: height, iterations: iterations}
	}
}

// NewBackendContext returns an unloaded context. Nothing is acquired until
// the first Load, NewProcessor or Benchmark call.
func NewBackendContext(opts ...Option) *BackendContext {
	c := &BackendContext{
		useRegistry: true,
		fallback:    NewFallbackEngine,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Status returns the current lifecycle state.
func (c *BackendContext) Status() Status {
	return Status(c.status.Load())
}

// IsNativeAvailable reports whether a native engine is bound.
func (c *BackendContext) IsNativeAvailable() bool {
	return c.Status() == StatusNativeReady
}

// EngineName returns the bound engine's name, or "" when none is bound.
func (c *BackendContext) EngineName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.engine == nil {
		return ""
	}
	return c.engine.Name()
}

// NativeErr returns why native acquisition failed in the last attempt.
// It wraps ErrBackendUnavailable, and is nil when a native engine is bound
// or no attempt has completed.
func (c *BackendContext) NativeErr() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nativeErr
}

// LoadErr returns why the last attempt ended in StatusLoadFailed.
func (c *BackendContext) LoadErr() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadErr
}

// Load binds an engine if none is bound yet and returns the resulting
// status. Concurrent calls share a single attempt.
//
// If ctx is done before the attempt finishes, Load returns ctx.Err() and
// the current status; the attempt keeps running and its result is kept.
//
// StatusLoadFailed is sticky: Load returns it with ErrProcessorUnusable
// without trying again. Use Retry for a fresh attempt.
func (c *BackendContext) Load(ctx context.Context) (Status, error) {
	switch s := c.Status(); s {
	case StatusNotLoaded:
		return c.resolve(ctx)
	case StatusLoadFailed:
		return s, c.unusable()
	default:
		return s, nil
	}
}

// Retry starts a fresh attempt after StatusLoadFailed. It is a no-op when
// an engine is already bound and behaves like Load when nothing was tried.
func (c *BackendContext) Retry(ctx context.Context) (Status, error) {
	s := c.Status()
	if s.Ready() {
		return s, nil
	}
	c.status.CompareAndSwap(int32(StatusLoadFailed), int32(StatusNotLoaded))
	return c.resolve(ctx)
}

func (c *BackendContext) resolve(ctx context.Context) (Status, error) {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return c.Status(), errClosed
	}

	// The attempt must outlive callers that stop waiting.
	attemptCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(loadKey, func() (any, error) {
		if s := c.Status(); s != StatusNotLoaded {
			return s, nil
		}
		return c.attempt(attemptCtx), nil
	})

	select {
	case res := <-ch:
		s := res.Val.(Status)
		if s == StatusLoadFailed {
			return s, c.unusable()
		}
		if !s.Ready() {
			return s, errClosed
		}
		return s, nil
	case <-ctx.Done():
		return c.Status(), ctx.Err()
	}
}

var errClosed = fmt.Errorf("%w: backend context closed", ErrProcessorUnusable)

func (c *BackendContext) unusable() error {
	if err := c.LoadErr(); err != nil {
		return fmt.Errorf("%w: %w", ErrProcessorUnusable, err)
	}
	return ErrProcessorUnusable
}

func (c *BackendContext) nativeCandidates() []namedFactory {
	if c.useRegistry {
		return registeredFactories()
	}
	return c.natives
}

// attempt runs one full acquisition and publishes its outcome.
func (c *BackendContext) attempt(ctx context.Context) Status {
	log := Logger()

	var nativeErrs []error
	candidates := c.nativeCandidates()
	for _, nf := range candidates {
		eng, err := initEngine(ctx, nf.factory)
		if err == nil {
			return c.bind(eng, StatusNativeReady, nil)
		}
		log.Warn("pixfx: native engine unavailable", "engine", nf.name, "err", err)
		nativeErrs = append(nativeErrs, fmt.Errorf("%s: %w", nf.name, err))
	}

	nativeErr := fmt.Errorf("%w: no native engine registered", ErrBackendUnavailable)
	if len(nativeErrs) > 0 {
		nativeErr = fmt.Errorf("%w: %w", ErrBackendUnavailable, errors.Join(nativeErrs...))
	}

	if c.fallback == nil {
		return c.fail(nativeErr, errors.New("no fallback engine configured"))
	}
	eng, err := initEngine(ctx, c.fallback)
	if err != nil {
		return c.fail(nativeErr, fmt.Errorf("fallback engine: %w", err))
	}
	if len(candidates) > 0 {
		log.Info("pixfx: using fallback engine", "engine", eng.Name())
	}
	return c.bind(eng, StatusFallbackReady, nativeErr)
}

func (c *BackendContext) bind(eng Engine, s Status, nativeErr error) Status {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		eng.Close()
		return StatusNotLoaded
	}
	c.engine = eng
	c.nativeErr = nativeErr
	c.loadErr = nil
	c.status.Store(int32(s))
	c.mu.Unlock()

	trackEngine(eng)
	Logger().Info("pixfx: engine bound", "engine", eng.Name(), "kind", eng.Kind(), "status", s)

	if c.startup != nil {
		c.runStartupBenchmark()
	}
	return s
}

func (c *BackendContext) fail(nativeErr, loadErr error) Status {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return StatusNotLoaded
	}
	c.nativeErr = nativeErr
	c.loadErr = loadErr
	c.status.Store(int32(StatusLoadFailed))
	c.mu.Unlock()
	Logger().Error("pixfx: no engine could be loaded", "native_err", nativeErr, "err", loadErr)
	return StatusLoadFailed
}

func (c *BackendContext) runStartupBenchmark() {
	sb := c.startup
	res, err := c.Benchmark(context.Background(), sb.width, sb.height, sb.iterations)
	if err != nil {
		Logger().Warn("pixfx: startup benchmark failed", "err", err)
		return
	}
	Logger().Info("pixfx: startup benchmark",
		"engine", res.Engine,
		"size", fmt.Sprintf("%dx%d", res.Width, res.Height),
		"iterations", res.Iterations,
		"elapsed", res.Elapsed)
}

// initEngine creates and initializes an engine, turning a panic inside
// the engine into an error.
func initEngine(ctx context.Context, factory EngineFactory) (eng Engine, err error) {
	defer func() {
		if r := recover(); r != nil {
			eng = nil
			err = fmt.Errorf("panic during init: %v", r)
		}
	}()
	if factory == nil {
		return nil, errors.New("nil engine factory")
	}
	eng = factory()
	if eng == nil {
		return nil, errors.New("factory returned nil engine")
	}
	if err := eng.Init(ctx); err != nil {
		eng.Close()
		return nil, err
	}
	return eng, nil
}

// NewProcessor returns a processor for width x height buffers bound to the
// context's engine, loading the engine first if needed.
func (c *BackendContext) NewProcessor(ctx context.Context, width, height int) (*ImageProcessor, error) {
	size, err := BufferLen(width, height)
	if err != nil {
		return nil, err
	}
	if _, err := c.Load(ctx); err != nil {
		return nil, err
	}

	c.mu.RLock()
	eng := c.engine
	c.mu.RUnlock()
	if eng == nil {
		return nil, errClosed
	}

	be, err := eng.NewBackend(width, height)
	if err != nil {
		return nil, fmt.Errorf("%w: %s backend for %dx%d: %w", ErrProcessorUnusable, eng.Name(), width, height, err)
	}
	Logger().Debug("pixfx: processor created", "engine", eng.Name(), "width", width, "height", height, "bytes", size)
	return &ImageProcessor{
		owner:   c,
		engine:  eng.Name(),
		width:   width,
		height:  height,
		size:    size,
		backend: be,
	}, nil
}

// Close releases the bound engine. Processors created from the context
// fail with ErrProcessorUnusable afterwards, and so do further loads.
func (c *BackendContext) Close() {
	c.mu.Lock()
	eng := c.engine
	c.engine = nil
	c.closed = true
	c.status.Store(int32(StatusNotLoaded))
	c.mu.Unlock()

	if eng != nil {
		untrackEngine(eng)
		eng.Close()
	}
}
