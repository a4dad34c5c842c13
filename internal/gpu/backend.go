//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/goldstar105000117/pixfx"
)

// fenceTimeout bounds how long a dispatch waits for the GPU.
const fenceTimeout = 5 * time.Second

// ErrGPUTimeout is returned when a submission does not complete within
// fenceTimeout.
var ErrGPUTimeout = errors.New("gpu: timed out waiting for GPU")

// frameBackend holds the buffers for one frame size:
//
//	uniform  effect parameters (host-mapped)
//	upload   host-mapped copy of the input frame
//	front    input of each pass (binding 1)
//	back     output of each pass (binding 2)
//	staging  host-mapped readback copy of back
//
// Every method runs one command buffer and one completion wait.
type frameBackend struct {
	engine *Engine

	width, height uint32
	size          uint64

	uniform   hal.Buffer
	upload    hal.Buffer
	front     hal.Buffer
	back      hal.Buffer
	staging   hal.Buffer
	bindGroup hal.BindGroup

	reserved uint64 // budget held, returned on release
	released bool
}

var _ pixfx.Backend = (*frameBackend)(nil)

func (b *frameBackend) Kind() pixfx.BackendKind { return pixfx.KindNative }

func (b *frameBackend) ApplyBrightness(buf []byte, factor float32) error {
	p := pixfx.NeutralParams()
	p.Brightness = factor
	return b.ApplyBatch(buf, p)
}

func (b *frameBackend) ApplyContrast(buf []byte, factor float32) error {
	p := pixfx.NeutralParams()
	p.Contrast = factor
	return b.ApplyBatch(buf, p)
}

func (b *frameBackend) ApplyTemperature(buf []byte, t float32) error {
	p := pixfx.NeutralParams()
	p.Temperature = t
	return b.ApplyBatch(buf, p)
}

func (b *frameBackend) ApplyBlur(buf []byte, radius float32) error {
	p := pixfx.NeutralParams()
	p.BlurRadius = radius
	return b.ApplyBatch(buf, p)
}

// ApplyBatch uploads buf, runs the fused point pass and the blur pass as
// needed, and reads the result back into buf.
func (b *frameBackend) ApplyBatch(buf []byte, p pixfx.EffectParams) error {
	if uint64(len(buf)) != b.size {
		return fmt.Errorf("%w: got %d bytes, want %d", pixfx.ErrBufferSizeMismatch, len(buf), b.size)
	}
	u := newEffectUniform(b.width, b.height, p)
	blur := p.HasBlur() && b.width >= 3 && b.height >= 3
	if !u.hasPointSteps() && !blur {
		return nil
	}

	e := b.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	if b.released || !e.ready {
		return ErrNotInitialized
	}

	if err := e.queue.WriteBuffer(b.uniform, 0, u.bytes()); err != nil {
		return fmt.Errorf("gpu: write params: %w", err)
	}
	if err := e.queue.WriteBuffer(b.upload, 0, buf); err != nil {
		return fmt.Errorf("gpu: write frame: %w", err)
	}

	encoder, err := e.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "effects_encoder"})
	if err != nil {
		return fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("effects"); err != nil {
		return fmt.Errorf("gpu: begin encoding: %w", err)
	}
	b.encode(encoder, e, u.hasPointSteps(), blur)

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("gpu: end encoding: %w", err)
	}
	defer e.device.FreeCommandBuffer(cmdBuf)

	idx, err := e.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return fmt.Errorf("gpu: submit: %w", err)
	}
	if err := waitSubmission(e.queue, idx, fenceTimeout); err != nil {
		return err
	}
	return readMapped(e.device, b.staging, buf)
}

// encode records upload, the passes and the readback copy.
func (b *frameBackend) encode(encoder hal.CommandEncoder, e *Engine, point, blur bool) {
	const (
		copySrc = gputypes.BufferUsageCopySrc
		copyDst = gputypes.BufferUsageCopyDst
		storage = gputypes.BufferUsageStorage
	)
	all := []hal.BufferCopy{{Size: b.size}}

	encoder.CopyBufferToBuffer(b.upload, b.front, all)
	transition(encoder, b.front, copyDst, storage)
	if point {
		b.encodePass(encoder, e.pointPipe)
	} else {
		transition(encoder, b.front, storage, copySrc)
		encoder.CopyBufferToBuffer(b.front, b.back, all)
		transition(encoder, b.front, copySrc, storage)
		transition(encoder, b.back, copyDst, storage)
	}
	if blur {
		// Blur reads the point result and leaves the border of back intact.
		transition(encoder, b.back, storage, copySrc)
		transition(encoder, b.front, storage, copyDst)
		encoder.CopyBufferToBuffer(b.back, b.front, all)
		transition(encoder, b.front, copyDst, storage)
		transition(encoder, b.back, copySrc, storage)
		b.encodePass(encoder, e.blurPipe)
	}
	transition(encoder, b.back, storage, copySrc)
	encoder.CopyBufferToBuffer(b.back, b.staging, all)
}

func transition(encoder hal.CommandEncoder, buf hal.Buffer, from, to gputypes.BufferUsage) {
	encoder.TransitionBuffers([]hal.BufferBarrier{{
		Buffer: buf,
		Usage:  hal.BufferUsageTransition{OldUsage: from, NewUsage: to},
	}})
}

func (b *frameBackend) encodePass(encoder hal.CommandEncoder, pipeline hal.ComputePipeline) {
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "effects_pass"})
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, b.bindGroup, nil)
	pass.Dispatch((b.width+7)/8, (b.height+7)/8, 1)
	pass.End()
}

// completionPoller is the part of hal.Queue used to wait for a submission.
type completionPoller interface {
	PollCompleted() uint64
}

var _ completionPoller = hal.Queue(nil)

// waitSubmission polls q until submission idx completes or timeout passes.
func waitSubmission(q completionPoller, idx uint64, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	backoff := 50 * time.Microsecond
	for q.PollCompleted() < idx {
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: submission %d after %v", ErrGPUTimeout, idx, timeout)
		}
		time.Sleep(backoff)
		backoff = min(backoff*2, 2*time.Millisecond)
	}
	return nil
}

// bufferMapper is the part of hal.Device used for readback.
type bufferMapper interface {
	MapBuffer(buffer hal.Buffer, offset, size uint64) (hal.BufferMapping, error)
	UnmapBuffer(buffer hal.Buffer) error
}

var _ bufferMapper = hal.Device(nil)

// readMapped copies the first len(dst) bytes of a host-visible buffer
// into dst.
func readMapped(d bufferMapper, src hal.Buffer, dst []byte) error {
	mapping, err := d.MapBuffer(src, 0, uint64(len(dst)))
	if err != nil {
		return fmt.Errorf("gpu: map staging buffer: %w", err)
	}
	if mapping.Ptr == nil {
		_ = d.UnmapBuffer(src)
		return errors.New("gpu: map staging buffer: nil mapping")
	}
	copy(dst, unsafe.Slice((*byte)(mapping.Ptr), len(dst)))
	if err := d.UnmapBuffer(src); err != nil {
		return fmt.Errorf("gpu: unmap staging buffer: %w", err)
	}
	return nil
}

// Close releases the frame buffers. It is safe after Engine.Close.
func (b *frameBackend) Close() {
	e := b.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	b.destroyResources()
	delete(e.backends, b)
}

// createResources allocates buffers and the bind group. Caller holds e.mu.
func (b *frameBackend) createResources() error {
	d := b.engine.device
	var err error

	// HAL writes go straight to mapped memory, so upload targets are MapWrite.
	b.uniform, err = d.CreateBuffer(&hal.BufferDescriptor{
		Label: "effects_params", Size: uniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageMapWrite,
	})
	if err != nil {
		return fmt.Errorf("create uniform buffer: %w", err)
	}
	b.upload, err = d.CreateBuffer(&hal.BufferDescriptor{
		Label: "effects_upload", Size: b.size,
		Usage: gputypes.BufferUsageMapWrite | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create upload buffer: %w", err)
	}

	storage := gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst
	b.front, err = d.CreateBuffer(&hal.BufferDescriptor{Label: "effects_front", Size: b.size, Usage: storage})
	if err != nil {
		return fmt.Errorf("create front buffer: %w", err)
	}
	b.back, err = d.CreateBuffer(&hal.BufferDescriptor{Label: "effects_back", Size: b.size, Usage: storage})
	if err != nil {
		return fmt.Errorf("create back buffer: %w", err)
	}
	b.staging, err = d.CreateBuffer(&hal.BufferDescriptor{
		Label: "effects_staging", Size: b.size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create staging buffer: %w", err)
	}

	b.bindGroup, err = d.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "effects_bind", Layout: b.engine.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: b.uniform.NativeHandle(), Offset: 0, Size: uniformSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: b.front.NativeHandle(), Offset: 0, Size: b.size}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: b.back.NativeHandle(), Offset: 0, Size: b.size}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	return nil
}

// destroyResources frees everything createResources made. Caller holds e.mu.
func (b *frameBackend) destroyResources() {
	if b.released {
		return
	}
	b.released = true
	b.engine.memory.release(b.reserved)
	d := b.engine.device
	if d == nil {
		return
	}
	if b.bindGroup != nil {
		d.DestroyBindGroup(b.bindGroup)
	}
	for _, buf := range []hal.Buffer{b.uniform, b.upload, b.front, b.back, b.staging} {
		if buf != nil {
			d.DestroyBuffer(buf)
		}
	}
	b.bindGroup, b.uniform, b.upload, b.front, b.back, b.staging = nil, nil, nil, nil, nil, nil
}
