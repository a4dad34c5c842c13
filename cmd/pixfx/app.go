package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/goldstar105000117/pixfx"
	"github.com/goldstar105000117/pixfx/internal/config"
	"github.com/goldstar105000117/pixfx/internal/logging"
)

// app carries what every command needs once its flags are parsed.
type app struct {
	name   string
	stdout io.Writer
	stderr io.Writer

	cfg     config.Config
	log     *slog.Logger
	closer  io.Closer
	printer *message.Printer

	// common flags
	configPath string
	envFile    string
	backend    string
	logLevel   string
	logFile    string
	history    string
	warmup     bool
}

// flagSet returns a flag set with the flags shared by all commands.
func (a *app) flagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("pixfx "+a.name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.StringVar(&a.configPath, "config", "", "YAML configuration `file`")
	fs.StringVar(&a.envFile, "env", ".env", "dotenv `file` (ignored when missing)")
	fs.StringVar(&a.backend, "backend", "", "backend: auto or fallback")
	fs.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&a.logFile, "log-file", "", "also write JSON logs to `file`")
	fs.StringVar(&a.history, "history", "", "benchmark history database `path`")
	fs.BoolVar(&a.warmup, "warmup", false, "log a benchmark of the bench frame right after the engine loads")
	return fs
}

// setup parses args, loads the configuration and installs the logger.
// overlay applies command flags the user set explicitly.
func (a *app) setup(fs *flag.FlagSet, args []string, overlay func(set map[string]bool, cfg *config.Config)) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	cfg, err := config.Load(a.envFile, a.configPath)
	if err != nil {
		return err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["backend"] {
		cfg.Backend = a.backend
	}
	if set["log-level"] {
		cfg.Log.Level = a.logLevel
	}
	if set["log-file"] {
		cfg.Log.File = a.logFile
	}
	if set["history"] {
		cfg.History.Path = a.history
	}
	if set["warmup"] {
		cfg.Bench.Warmup = a.warmup
	}
	if overlay != nil {
		overlay(set, &cfg)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	logger, closer, err := logging.New(cfg.Log, a.stderr)
	if err != nil {
		return err
	}
	a.log, a.closer = logger, closer
	pixfx.SetLogger(logger)
	a.printer = message.NewPrinter(language.English)
	return nil
}

// close detaches the logger and releases the log file.
func (a *app) close() {
	if a.closer == nil {
		return
	}
	pixfx.SetLogger(nil)
	if err := a.closer.Close(); err != nil {
		fmt.Fprintf(a.stderr, "pixfx: close log: %v\n", err)
	}
	a.closer = nil
}

// newContext returns a backend context honoring cfg.Backend and
// cfg.Bench.Warmup.
func (a *app) newContext() *pixfx.BackendContext {
	var opts []pixfx.Option
	if b := a.cfg.Bench; b.Warmup {
		opts = append(opts, pixfx.WithStartupBenchmark(b.Width, b.Height, b.Iterations))
	}
	return contextFor(a.cfg.Backend, opts...)
}

func contextFor(backend string, opts ...pixfx.Option) *pixfx.BackendContext {
	if backend == config.BackendFallback {
		opts = append(opts, pixfx.WithoutNative())
	}
	return pixfx.NewBackendContext(opts...)
}

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	okColor     = color.New(color.FgGreen)
	warnColor   = color.New(color.FgYellow)
	failColor   = color.New(color.FgRed)
	dimColor    = color.New(color.FgHiBlack)
)

func statusColor(s pixfx.Status) *color.Color {
	switch s {
	case pixfx.StatusNativeReady:
		return okColor
	case pixfx.StatusFallbackReady:
		return warnColor
	case pixfx.StatusLoadFailed:
		return failColor
	}
	return dimColor
}

func (a *app) header(title string) {
	headerColor.Fprintf(a.stdout, "━━━ %s ━━━\n", title)
}
