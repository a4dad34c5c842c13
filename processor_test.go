package pixfx

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"testing"
)

func newFallbackProcessor(t *testing.T, w, h int) *ImageProcessor {
	t.Helper()
	c := NewBackendContext(WithoutNative())
	t.Cleanup(c.Close)
	p, err := c.NewProcessor(context.Background(), w, h)
	if err != nil {
		t.Fatalf("NewProcessor(%d, %d) error = %v", w, h, err)
	}
	t.Cleanup(p.Close)
	return p
}

func randomFrame(w, h int, seed uint64) []byte {
	rng := rand.New(rand.NewPCG(seed, 1))
	buf := make([]byte, w*h*4)
	for i := range buf {
		buf[i] = byte(rng.UintN(256))
	}
	return buf
}

func TestNewProcessorInvalidDimensions(t *testing.T) {
	c := NewBackendContext(WithoutNative())
	t.Cleanup(c.Close)

	for _, dims := range [][2]int{{0, 10}, {10, 0}, {-1, 5}, {5, -3}, {math.MaxInt / 2, 3}} {
		if _, err := c.NewProcessor(context.Background(), dims[0], dims[1]); !errors.Is(err, ErrInvalidDimensions) {
			t.Errorf("NewProcessor(%d, %d) error = %v, want ErrInvalidDimensions", dims[0], dims[1], err)
		}
	}
	if c.Status() != StatusNotLoaded {
		t.Errorf("invalid dimensions triggered a load: status = %v", c.Status())
	}
}

func TestProcessorRejectsWrongBufferSize(t *testing.T) {
	p := newFallbackProcessor(t, 4, 3)

	ops := map[string]func([]byte) error{
		"brightness":  func(b []byte) error { return p.ApplyBrightness(b, 2) },
		"contrast":    func(b []byte) error { return p.ApplyContrast(b, 2) },
		"temperature": func(b []byte) error { return p.ApplyTemperature(b, 1) },
		"blur":        func(b []byte) error { return p.ApplyBlur(b, 1) },
		"batch":       func(b []byte) error { return p.ApplyEffectsBatch(b, BenchmarkParams()) },
		"neutral":     func(b []byte) error { return p.ApplyEffectsBatch(b, NeutralParams()) },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			for _, n := range []int{0, 4*3*4 - 1, 4*3*4 + 4} {
				buf := bytes.Repeat([]byte{100}, n)
				if err := op(buf); !errors.Is(err, ErrBufferSizeMismatch) {
					t.Errorf("len %d: error = %v, want ErrBufferSizeMismatch", n, err)
				}
				if !bytes.Equal(buf, bytes.Repeat([]byte{100}, n)) {
					t.Errorf("len %d: buffer modified on rejected call", n)
				}
			}
		})
	}
}

func TestProcessorClosedFailsClosed(t *testing.T) {
	p := newFallbackProcessor(t, 2, 2)
	p.Close()
	p.Close()

	buf, _ := NewGrayBuffer(2, 2)
	if err := p.ApplyContrast(buf, 2); !errors.Is(err, ErrProcessorUnusable) {
		t.Errorf("ApplyContrast() after Close error = %v, want ErrProcessorUnusable", err)
	}
	if p.Kind() != 0 {
		t.Errorf("Kind() after Close = %v", p.Kind())
	}
}

func TestProcessorNeutralBatchIsIdentity(t *testing.T) {
	p := newFallbackProcessor(t, 13, 7)
	orig := randomFrame(13, 7, 5)
	buf := bytes.Clone(orig)

	params := NeutralParams()
	params.Saturation = 2.5
	if err := p.ApplyEffectsBatch(buf, params); err != nil {
		t.Fatalf("ApplyEffectsBatch() error = %v", err)
	}
	if !bytes.Equal(buf, orig) {
		t.Error("neutral batch modified the buffer")
	}
}

func TestProcessorBatchMatchesSingleCalls(t *testing.T) {
	const w, h = 16, 9
	p := newFallbackProcessor(t, w, h)
	params := EffectParams{Brightness: 1.4, Contrast: 0.7, Saturation: 1, Temperature: 0.6, BlurRadius: 1}

	batched := randomFrame(w, h, 9)
	single := bytes.Clone(batched)

	if err := p.ApplyEffectsBatch(batched, params); err != nil {
		t.Fatal(err)
	}
	steps := []error{
		p.ApplyBrightness(single, params.Brightness),
		p.ApplyContrast(single, params.Contrast),
		p.ApplyTemperature(single, params.Temperature),
		p.ApplyBlur(single, params.BlurRadius),
	}
	if err := errors.Join(steps...); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(batched, single) {
		t.Error("batch differs from brightness, contrast, temperature, blur applied in order")
	}
}

func TestProcessorBatchOrderMatters(t *testing.T) {
	p := newFallbackProcessor(t, 1, 1)
	params := NeutralParams()
	params.Brightness = 2
	params.Contrast = 2

	buf := []byte{100, 100, 100, 255}
	if err := p.ApplyEffectsBatch(buf, params); err != nil {
		t.Fatal(err)
	}
	reversed := []byte{100, 100, 100, 255}
	_ = p.ApplyContrast(reversed, 2)
	_ = p.ApplyBrightness(reversed, 2)
	if bytes.Equal(buf, reversed) {
		t.Errorf("batch %v equals contrast-first result %v", buf, reversed)
	}
}

func TestProcessorPreservesAlpha(t *testing.T) {
	p := newFallbackProcessor(t, 8, 8)
	orig := randomFrame(8, 8, 77)
	buf := bytes.Clone(orig)
	params := EffectParams{Brightness: 3, Contrast: 3, Temperature: 1, BlurRadius: 10}
	if err := p.ApplyEffectsBatch(buf, params); err != nil {
		t.Fatal(err)
	}
	for i := 3; i < len(buf); i += 4 {
		if buf[i] != orig[i] {
			t.Fatalf("alpha at pixel %d changed", i/4)
		}
	}
}

func TestProcessImage(t *testing.T) {
	p := newFallbackProcessor(t, 2, 2)
	params := NeutralParams()
	params.Brightness = 1.2

	t.Run("packed frame", func(t *testing.T) {
		img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
		for y := 0; y < 2; y++ {
			for x := 0; x < 2; x++ {
				img.SetNRGBA(x, y, color.NRGBA{128, 128, 128, 255})
			}
		}
		if err := p.ProcessImage(img, params); err != nil {
			t.Fatalf("ProcessImage() error = %v", err)
		}
		if got := img.NRGBAAt(1, 1); got != (color.NRGBA{153, 153, 153, 255}) {
			t.Errorf("pixel = %v, want {153 153 153 255}", got)
		}
	})

	t.Run("wrong size", func(t *testing.T) {
		img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
		if err := p.ProcessImage(img, params); !errors.Is(err, ErrBufferSizeMismatch) {
			t.Errorf("error = %v, want ErrBufferSizeMismatch", err)
		}
	})

	t.Run("unpacked sub-image", func(t *testing.T) {
		big := image.NewNRGBA(image.Rect(0, 0, 4, 4))
		sub := big.SubImage(image.Rect(1, 1, 3, 3)).(*image.NRGBA)
		if err := p.ProcessImage(sub, params); !errors.Is(err, ErrBufferSizeMismatch) {
			t.Errorf("error = %v, want ErrBufferSizeMismatch", err)
		}
	})

	t.Run("nil", func(t *testing.T) {
		if err := p.ProcessImage(nil, params); !errors.Is(err, ErrBufferSizeMismatch) {
			t.Errorf("error = %v, want ErrBufferSizeMismatch", err)
		}
	})
}

func TestProcessorsAreIndependent(t *testing.T) {
	c := NewBackendContext(WithoutNative())
	t.Cleanup(c.Close)

	small, err := c.NewProcessor(context.Background(), 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer small.Close()
	large, err := c.NewProcessor(context.Background(), 64, 32)
	if err != nil {
		t.Fatal(err)
	}
	defer large.Close()

	if small.BufferLen() != 16 || large.BufferLen() != 64*32*4 {
		t.Errorf("BufferLen() = %d, %d", small.BufferLen(), large.BufferLen())
	}

	done := make(chan error, 2)
	go func() {
		buf, _ := NewGrayBuffer(64, 32)
		for range 50 {
			if err := large.ApplyEffectsBatch(buf, BenchmarkParams()); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()
	go func() {
		buf, _ := NewGrayBuffer(2, 2)
		for range 50 {
			if err := small.ApplyEffectsBatch(buf, BenchmarkParams()); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()
	for range 2 {
		if err := <-done; err != nil {
			t.Error(err)
		}
	}
}

func BenchmarkApplyEffectsBatch(b *testing.B) {
	c := NewBackendContext(WithoutNative())
	defer c.Close()
	p, err := c.NewProcessor(context.Background(), 1280, 720)
	if err != nil {
		b.Fatal(err)
	}
	defer p.Close()
	buf, _ := NewGrayBuffer(1280, 720)
	params := BenchmarkParams()

	b.SetBytes(int64(len(buf)))
	b.ReportAllocs()
	for b.Loop() {
		_ = p.ApplyEffectsBatch(buf, params)
	}
}
