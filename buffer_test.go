package pixfx

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

func TestBufferLen(t *testing.T) {
	tests := []struct {
		w, h    int
		want    int
		wantErr error
	}{
		{1, 1, 4, nil},
		{800, 600, 1920000, nil},
		{0, 1, 0, ErrInvalidDimensions},
		{1, -1, 0, ErrInvalidDimensions},
		{math.MaxInt / 2, 2, 0, ErrInvalidDimensions},
	}
	for _, tt := range tests {
		got, err := BufferLen(tt.w, tt.h)
		if !errors.Is(err, tt.wantErr) || got != tt.want {
			t.Errorf("BufferLen(%d, %d) = %d, %v; want %d, %v", tt.w, tt.h, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestNewGrayBuffer(t *testing.T) {
	buf, err := NewGrayBuffer(3, 2)
	if err != nil {
		t.Fatal(err)
	}
	if want := bytes.Repeat([]byte{128, 128, 128, 255}, 6); !bytes.Equal(buf, want) {
		t.Errorf("NewGrayBuffer(3, 2) = %v", buf)
	}
	if _, err := NewGrayBuffer(0, 0); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("NewGrayBuffer(0, 0) error = %v", err)
	}
}

func TestValidateBuffer(t *testing.T) {
	if err := ValidateBuffer(make([]byte, 24), 3, 2); err != nil {
		t.Errorf("ValidateBuffer(valid) = %v", err)
	}
	if err := ValidateBuffer(make([]byte, 20), 3, 2); !errors.Is(err, ErrBufferSizeMismatch) {
		t.Errorf("ValidateBuffer(short) = %v", err)
	}
	if err := ValidateBuffer(nil, 0, 2); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("ValidateBuffer(zero width) = %v", err)
	}
}

func TestToNRGBA(t *testing.T) {
	t.Run("packed passthrough", func(t *testing.T) {
		img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
		if got := ToNRGBA(img); got != img {
			t.Error("packed NRGBA was copied")
		}
	})

	t.Run("convert and rebase", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(10, 20, 13, 22))
		src.SetRGBA(10, 20, color.RGBA{200, 100, 50, 255})
		got := ToNRGBA(src)
		if got.Bounds() != image.Rect(0, 0, 3, 2) {
			t.Fatalf("bounds = %v", got.Bounds())
		}
		if c := got.NRGBAAt(0, 0); c != (color.NRGBA{200, 100, 50, 255}) {
			t.Errorf("pixel = %v", c)
		}
		if got.Stride != 3*BytesPerPixel {
			t.Errorf("stride = %d", got.Stride)
		}
	})
}
