package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/goldstar105000117/pixfx"
	"github.com/goldstar105000117/pixfx/internal/config"
	"github.com/goldstar105000117/pixfx/internal/store"
)

func runBench(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet()
	var (
		width      = fs.Int("width", 0, "frame width (default from config)")
		height     = fs.Int("height", 0, "frame height (default from config)")
		iterations = fs.Int("iterations", 0, "batch calls to time (default from config)")
		compare    = fs.Bool("compare", false, "run on the native and fallback backends")
		record     = fs.Bool("record", false, "store results in the history database")
	)
	err := a.setup(fs, args, func(set map[string]bool, cfg *config.Config) {
		if set["width"] {
			cfg.Bench.Width = *width
		}
		if set["height"] {
			cfg.Bench.Height = *height
		}
		if set["iterations"] {
			cfg.Bench.Iterations = *iterations
		}
	})
	if err != nil {
		return err
	}
	defer a.close()

	backends := []string{a.cfg.Backend}
	if *compare {
		backends = []string{config.BackendAuto, config.BackendFallback}
	}

	b := a.cfg.Bench
	results := make([]pixfx.BenchmarkResult, 0, len(backends))
	for _, backend := range backends {
		res, err := benchmarkOn(ctx, backend, b)
		if err != nil {
			return fmt.Errorf("bench %s: %w", backend, err)
		}
		results = append(results, res)
	}

	frame, _ := pixfx.BufferLen(b.Width, b.Height)
	a.header(a.printer.Sprintf("effects batch, %s frame (%s), %d iterations",
		fmt.Sprintf("%dx%d", b.Width, b.Height), humanize.Bytes(uint64(frame)), b.Iterations))
	a.printResults(results)

	if *compare && len(results) == 2 && results[0].Backend == pixfx.KindNative && results[0].Elapsed > 0 {
		speedup := float64(results[1].Elapsed) / float64(results[0].Elapsed)
		okColor.Fprintf(a.stdout, "native speedup: %.2fx\n", speedup)
	}

	if *record {
		return a.record(ctx, results)
	}
	return nil
}

func benchmarkOn(ctx context.Context, backend string, b config.BenchConfig) (pixfx.BenchmarkResult, error) {
	c := contextFor(backend)
	defer c.Close()
	return c.Benchmark(ctx, b.Width, b.Height, b.Iterations)
}

func (a *app) printResults(results []pixfx.BenchmarkResult) {
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ENGINE\tBACKEND\tTOTAL\tPER CALL\tPIXELS/S")
	for _, r := range results {
		perCall := 0.0
		if r.Iterations > 0 {
			perCall = r.Milliseconds() / float64(r.Iterations)
		}
		fmt.Fprint(tw, a.printer.Sprintf("%s\t%s\t%.2fms\t%.3fms\t%d\n",
			r.Engine, r.Backend, r.Milliseconds(), perCall, int64(r.PixelsPerSecond())))
	}
	tw.Flush()
}

func (a *app) record(ctx context.Context, results []pixfx.BenchmarkResult) error {
	s, err := store.Open(ctx, a.cfg.History.Path)
	if err != nil {
		return err
	}
	defer s.Close()

	for _, r := range results {
		run, err := s.Record(ctx, store.Run{
			Backend:    r.Backend.String(),
			Engine:     r.Engine,
			Width:      r.Width,
			Height:     r.Height,
			Iterations: r.Iterations,
			Elapsed:    r.Elapsed,
		})
		if err != nil {
			return err
		}
		a.log.Info("benchmark recorded", "id", run.ID, "engine", run.Engine)
		dimColor.Fprintf(a.stdout, "recorded %s\n", run.ID)
	}
	return nil
}
