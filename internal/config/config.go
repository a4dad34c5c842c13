// Package config loads settings for the pixfx command-line tool.
//
// Sources, lowest precedence first: built-in defaults, a .env file,
// a YAML file, PIXFX_* environment variables. Command-line flags are
// applied by the caller on top of the result.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/goldstar105000117/pixfx"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("config: invalid")

// Backend selection modes.
const (
	BackendAuto     = "auto"     // native engines first, CPU fallback
	BackendFallback = "fallback" // CPU only
)

// Config is the complete tool configuration.
type Config struct {
	// Backend is BackendAuto or BackendFallback.
	Backend string `yaml:"backend"`

	Bench   BenchConfig        `yaml:"bench"`
	Params  pixfx.EffectParams `yaml:"params"`
	Log     LogConfig          `yaml:"log"`
	History HistoryConfig      `yaml:"history"`
}

// BenchConfig sizes the synthetic benchmark frame.
type BenchConfig struct {
	Width      int `yaml:"width"`
	Height     int `yaml:"height"`
	Iterations int `yaml:"iterations"`

	// Warmup runs and logs one benchmark right after the engine loads.
	Warmup bool `yaml:"warmup"`
}

// LogConfig controls diagnostics output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// File, when set, receives JSON records with size-based rotation.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// HistoryConfig locates the benchmark history database.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Backend: BackendAuto,
		Bench: BenchConfig{
			Width:      800,
			Height:     600,
			Iterations: 10,
		},
		Params: pixfx.NeutralParams(),
		Log: LogConfig{
			Level:      "warn",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		History: HistoryConfig{Path: "pixfx-history.db"},
	}
}

// Load builds a Config. envFile and path may be empty; a missing envFile
// is ignored, a missing path is an error.
func Load(envFile, path string) (Config, error) {
	cfg := Default()

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
		if err := decodeYAML(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// decodeYAML decodes onto cfg, so omitted keys keep their current value.
// Unknown keys are rejected.
func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnv overlays PIXFX_* variables.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, key, v))
			return
		}
		*dst = n
	}
	boolean := func(key string, dst *bool) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalid, key, v))
			return
		}
		*dst = b
	}
	factor := func(key string, dst *float32) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 32)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s=%q is not a number", ErrInvalid, key, v))
			return
		}
		*dst = float32(f)
	}

	str("PIXFX_BACKEND", &cfg.Backend)
	num("PIXFX_BENCH_WIDTH", &cfg.Bench.Width)
	num("PIXFX_BENCH_HEIGHT", &cfg.Bench.Height)
	num("PIXFX_BENCH_ITERATIONS", &cfg.Bench.Iterations)
	boolean("PIXFX_BENCH_WARMUP", &cfg.Bench.Warmup)
	factor("PIXFX_BRIGHTNESS", &cfg.Params.Brightness)
	factor("PIXFX_CONTRAST", &cfg.Params.Contrast)
	factor("PIXFX_SATURATION", &cfg.Params.Saturation)
	factor("PIXFX_TEMPERATURE", &cfg.Params.Temperature)
	factor("PIXFX_BLUR", &cfg.Params.BlurRadius)
	str("PIXFX_LOG_LEVEL", &cfg.Log.Level)
	str("PIXFX_LOG_FILE", &cfg.Log.File)
	str("PIXFX_HISTORY_PATH", &cfg.History.Path)

	return errors.Join(errs...)
}

// Validate checks ranges and enumerations. Effect parameters are
// bounded with EffectParams.Sanitize rather than rejected.
func (c *Config) Validate() error {
	var errs []error
	switch c.Backend {
	case BackendAuto, BackendFallback:
	default:
		errs = append(errs, fmt.Errorf("%w: backend %q (want %s or %s)", ErrInvalid, c.Backend, BackendAuto, BackendFallback))
	}
	if c.Bench.Width <= 0 || c.Bench.Height <= 0 {
		errs = append(errs, fmt.Errorf("%w: bench size %dx%d", ErrInvalid, c.Bench.Width, c.Bench.Height))
	}
	if c.Bench.Iterations < 0 {
		errs = append(errs, fmt.Errorf("%w: bench iterations %d", ErrInvalid, c.Bench.Iterations))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("%w: log level %q", ErrInvalid, c.Log.Level))
	}
	c.Params = c.Params.Sanitize()
	return errors.Join(errs...)
}
