package pixfx

import (
	"bytes"
	"context"
	"math/rand/v2"
	"testing"

	"github.com/goldstar105000117/pixfx/internal/kernels"
)

func noisy(w, h int) []byte {
	rng := rand.New(rand.NewPCG(1, 2))
	buf := make([]byte, w*h*4)
	for i := range buf {
		buf[i] = byte(rng.IntN(256))
	}
	return buf
}

func TestFallbackBandsMatchKernels(t *testing.T) {
	const w, h = 640, 480 // above parallelMinPixels

	eng := NewFallbackEngine()
	if err := eng.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer eng.Close()

	b, err := eng.NewBackend(w, h)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	p := benchmarkParams
	want := noisy(w, h)
	got := bytes.Clone(want)

	kernels.Batch(want, w, h, p.kernelParams())
	if err := b.ApplyBatch(got, p); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Error("pooled fallback batch differs from kernels.Batch")
	}
}

func TestFallbackSingleEffectsMatchKernels(t *testing.T) {
	const w, h = 300, 300

	eng := NewFallbackEngine()
	if err := eng.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer eng.Close()
	b, err := eng.NewBackend(w, h)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		apply func([]byte) error
		ref   func([]byte)
	}{
		{"brightness", func(buf []byte) error { return b.ApplyBrightness(buf, 1.3) },
			func(buf []byte) { kernels.Brightness(buf, 1.3) }},
		{"contrast", func(buf []byte) error { return b.ApplyContrast(buf, 0.6) },
			func(buf []byte) { kernels.Contrast(buf, 0.6) }},
		{"temperature", func(buf []byte) error { return b.ApplyTemperature(buf, -0.4) },
			func(buf []byte) { kernels.Temperature(buf, -0.4) }},
		{"blur", func(buf []byte) error { return b.ApplyBlur(buf, 2) },
			func(buf []byte) { kernels.Blur(buf, w, h, 2) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := noisy(w, h)
			got := bytes.Clone(want)
			tt.ref(want)
			if err := tt.apply(got); err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, want) {
				t.Errorf("%s differs from the kernel", tt.name)
			}
		})
	}
}

func TestFallbackWorksAfterEngineClose(t *testing.T) {
	const w, h = 512, 512

	eng := NewFallbackEngine()
	if err := eng.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	b, err := eng.NewBackend(w, h)
	if err != nil {
		t.Fatal(err)
	}
	eng.Close()
	eng.Close()

	buf, _ := NewGrayBuffer(w, h)
	if err := b.ApplyBrightness(buf, 1.2); err != nil {
		t.Fatal(err)
	}
	if buf[0] != 153 || buf[len(buf)-1] != 255 {
		t.Errorf("got %d/%d, want 153/255", buf[0], buf[len(buf)-1])
	}
}

func TestFallbackInvalidDimensions(t *testing.T) {
	if _, err := NewFallbackEngine().NewBackend(0, 10); err == nil {
		t.Error("NewBackend(0, 10) succeeded")
	}
}
