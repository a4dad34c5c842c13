package pixfx

import (
	"fmt"
	"image"
	"sync"
	"time"
)

// slowBatch is the batch duration above which a Debug record is emitted.
const slowBatch = 5 * time.Millisecond

// ImageProcessor applies effects to buffers of one fixed size using the
// backend its BackendContext had bound when the processor was created.
//
// Every method validates the buffer length first and fails closed with
// ErrProcessorUnusable once the processor or its context is closed.
// Calls on distinct buffers may run concurrently; concurrent calls on the
// same buffer are not synchronized.
type ImageProcessor struct {
	owner  *BackendContext
	engine string

	width, height int
	size          int

	mu      sync.RWMutex
	backend Backend
}

// Width returns the frame width in pixels.
func (p *ImageProcessor) Width() int { return p.width }

// Height returns the frame height in pixels.
func (p *ImageProcessor) Height() int { return p.height }

// BufferLen returns the required buffer length in bytes.
func (p *ImageProcessor) BufferLen() int { return p.size }

// Engine returns the name of the engine serving the processor.
func (p *ImageProcessor) Engine() string { return p.engine }

// Kind returns the backend family serving the processor, or 0 once closed.
func (p *ImageProcessor) Kind() BackendKind {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.backend == nil {
		return 0
	}
	return p.backend.Kind()
}

// ApplyBrightness multiplies R, G and B by factor.
func (p *ImageProcessor) ApplyBrightness(buf []byte, factor float32) error {
	return p.run(buf, func(b Backend) error { return b.ApplyBrightness(buf, factor) })
}

// ApplyContrast scales R, G and B around 128 by factor.
func (p *ImageProcessor) ApplyContrast(buf []byte, factor float32) error {
	return p.run(buf, func(b Backend) error { return b.ApplyContrast(buf, factor) })
}

// ApplyTemperature shifts color balance; t is clamped to [-1, 1].
func (p *ImageProcessor) ApplyTemperature(buf []byte, t float32) error {
	return p.run(buf, func(b Backend) error { return b.ApplyTemperature(buf, t) })
}

// ApplyBlur runs one 5-tap box blur pass over interior pixels when
// radius > 0. Border pixels are left unchanged.
func (p *ImageProcessor) ApplyBlur(buf []byte, radius float32) error {
	return p.run(buf, func(b Backend) error { return b.ApplyBlur(buf, radius) })
}

// ApplyEffectsBatch applies brightness, contrast, temperature and blur in
// that fixed order, skipping steps whose parameter is neutral.
func (p *ImageProcessor) ApplyEffectsBatch(buf []byte, params EffectParams) error {
	if params.IsNeutral() {
		return p.run(buf, func(Backend) error { return nil })
	}
	start := time.Now()
	err := p.run(buf, func(b Backend) error { return b.ApplyBatch(buf, params) })
	if d := time.Since(start); d > slowBatch && err == nil {
		Logger().Debug("pixfx: slow effects batch",
			"engine", p.engine, "width", p.width, "height", p.height, "elapsed", d)
	}
	return err
}

// ProcessImage applies a batch to a captured frame in place. img must be
// width x height and tightly packed (see ToNRGBA).
func (p *ImageProcessor) ProcessImage(img *image.NRGBA, params EffectParams) error {
	pix, err := framePixels(img, p.width, p.height)
	if err != nil {
		return err
	}
	return p.ApplyEffectsBatch(pix, params)
}

func (p *ImageProcessor) run(buf []byte, op func(Backend) error) error {
	if len(buf) != p.size {
		return fmt.Errorf("%w: got %d bytes, want %d for %dx%d",
			ErrBufferSizeMismatch, len(buf), p.size, p.width, p.height)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.backend == nil {
		return fmt.Errorf("%w: processor closed", ErrProcessorUnusable)
	}
	if s := p.owner.Status(); !s.Ready() {
		return fmt.Errorf("%w: backend context is %s", ErrProcessorUnusable, s)
	}
	return op(p.backend)
}

// Close releases the processor's backend resources. It is safe to call
// more than once.
func (p *ImageProcessor) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.backend != nil {
		p.backend.Close()
		p.backend = nil
	}
}
