package pixfx

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
)

// BytesPerPixel is the size of one RGBA8 pixel.
const BytesPerPixel = 4

// BufferLen returns the byte length of a width x height pixel buffer.
func BufferLen(width, height int) (int, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if width > math.MaxInt/BytesPerPixel/height {
		return 0, fmt.Errorf("%w: %dx%d overflows", ErrInvalidDimensions, width, height)
	}
	return width * height * BytesPerPixel, nil
}

// NewPixelBuffer allocates a zeroed (transparent black) buffer.
func NewPixelBuffer(width, height int) ([]byte, error) {
	n, err := BufferLen(width, height)
	if err != nil {
		return nil, err
	}
	return make([]byte, n), nil
}

// NewGrayBuffer allocates a buffer filled with opaque mid-gray
// (128, 128, 128, 255), the synthetic frame used for benchmarking.
func NewGrayBuffer(width, height int) ([]byte, error) {
	buf, err := NewPixelBuffer(width, height)
	if err != nil {
		return nil, err
	}
	for i := 0; i < len(buf); i += BytesPerPixel {
		buf[i], buf[i+1], buf[i+2], buf[i+3] = 128, 128, 128, 255
	}
	return buf, nil
}

// ValidateBuffer checks that buf holds exactly width x height pixels.
func ValidateBuffer(buf []byte, width, height int) error {
	n, err := BufferLen(width, height)
	if err != nil {
		return err
	}
	if len(buf) != n {
		return fmt.Errorf("%w: got %d bytes, want %d for %dx%d",
			ErrBufferSizeMismatch, len(buf), n, width, height)
	}
	return nil
}

// ToNRGBA returns img as a tightly packed, non-premultiplied RGBA image
// anchored at the origin. A packed *image.NRGBA at the origin is returned
// as is; anything else is converted into a new image.
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) && n.Stride == b.Dx()*BytesPerPixel {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// framePixels returns the pixel bytes of img when it is a packed
// width x height frame.
func framePixels(img *image.NRGBA, width, height int) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrBufferSizeMismatch)
	}
	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		return nil, fmt.Errorf("%w: image is %dx%d, processor is %dx%d",
			ErrBufferSizeMismatch, b.Dx(), b.Dy(), width, height)
	}
	if img.Stride != width*BytesPerPixel {
		return nil, fmt.Errorf("%w: stride %d is not packed", ErrBufferSizeMismatch, img.Stride)
	}
	off := img.PixOffset(b.Min.X, b.Min.Y)
	n := width * height * BytesPerPixel
	if len(img.Pix)-off < n {
		return nil, fmt.Errorf("%w: short pixel slice", ErrBufferSizeMismatch)
	}
	return img.Pix[off : off+n : off+n], nil
}
