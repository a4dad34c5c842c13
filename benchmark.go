package pixfx

import (
	"context"
	"fmt"
	"time"
)

// benchmarkParams is the fixed workload used by Benchmark.
var benchmarkParams = EffectParams{
	Brightness:  1.2,
	Contrast:    1.1,
	Saturation:  1,
	Temperature: 0.1,
	BlurRadius:  1,
}

// BenchmarkParams returns the parameters every benchmark iteration applies.
func BenchmarkParams() EffectParams { return benchmarkParams }

// BenchmarkResult describes one benchmark run.
type BenchmarkResult struct {
	Backend    BackendKind
	Engine     string
	Width      int
	Height     int
	Iterations int
	Elapsed    time.Duration
}

// Milliseconds returns the elapsed wall-clock time in milliseconds.
func (r BenchmarkResult) Milliseconds() float64 {
	return float64(r.Elapsed) / float64(time.Millisecond)
}

// PixelsPerSecond returns processing throughput, or 0 for an empty run.
func (r BenchmarkResult) PixelsPerSecond() float64 {
	if r.Elapsed <= 0 || r.Iterations == 0 {
		return 0
	}
	return float64(r.Width) * float64(r.Height) * float64(r.Iterations) / r.Elapsed.Seconds()
}

func (r BenchmarkResult) String() string {
	return fmt.Sprintf("%s %dx%d x%d: %.2fms", r.Engine, r.Width, r.Height, r.Iterations, r.Milliseconds())
}

// Benchmark times iterations batch calls on a synthetic opaque gray frame
// using a processor of its own. Only wall-clock time is measured; the
// output pixels are discarded.
func (c *BackendContext) Benchmark(ctx context.Context, width, height, iterations int) (BenchmarkResult, error) {
	if iterations < 0 {
		return BenchmarkResult{}, fmt.Errorf("%w: %d", ErrInvalidIterations, iterations)
	}
	buf, err := NewGrayBuffer(width, height)
	if err != nil {
		return BenchmarkResult{}, err
	}
	proc, err := c.NewProcessor(ctx, width, height)
	if err != nil {
		return BenchmarkResult{}, err
	}
	defer proc.Close()

	res := BenchmarkResult{
		Backend:    proc.Kind(),
		Engine:     proc.Engine(),
		Width:      width,
		Height:     height,
		Iterations: iterations,
	}
	start := time.Now()
	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := proc.ApplyEffectsBatch(buf, benchmarkParams); err != nil {
			return res, err
		}
	}
	res.Elapsed = time.Since(start)

	Logger().Debug("pixfx: benchmark finished", "result", res.String())
	return res, nil
}
