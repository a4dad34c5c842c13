//go:build !nogpu

package gpu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/goldstar105000117/pixfx"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// EngineName is the name the compute engine registers under.
const EngineName = "gpu"

var (
	// ErrNotInitialized is returned when the engine is used before Init
	// succeeded or after Close.
	ErrNotInitialized = errors.New("gpu: engine not initialized")

	// ErrNoAdapter is returned when the Vulkan instance exposes no adapter.
	ErrNoAdapter = errors.New("gpu: no GPU adapters found")

	// ErrProviderNotHAL is returned by SetDeviceProvider for providers that
	// do not expose HAL device and queue handles.
	ErrProviderNotHAL = errors.New("gpu: provider does not expose HAL types")
)

// Engine runs effects as wgpu/hal compute passes. It implements
// pixfx.Engine; one instance owns (or borrows) a device and the two
// effect pipelines, and serializes all device access.
type Engine struct {
	mu sync.Mutex

	provider gpucontext.DeviceProvider

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	adapter  string
	external bool // shared device, not destroyed on Close

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pointPipe  hal.ComputePipeline
	blurPipe   hal.ComputePipeline

	backends map[*frameBackend]struct{}
	memory   *memoryBudget
	ready    bool
}

var _ pixfx.Engine = (*Engine)(nil)

// NewEngine returns an engine that opens its own Vulkan device on Init.
func NewEngine() *Engine {
	return &Engine{
		backends: make(map[*frameBackend]struct{}),
		memory:   newMemoryBudget(DefaultMaxMemoryMB),
	}
}

// NewEngineWithProvider returns an engine that runs on the device of an
// external provider. The provider must also expose HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue.
func NewEngineWithProvider(provider gpucontext.DeviceProvider) *Engine {
	e := NewEngine()
	e.provider = provider
	return e
}

func (e *Engine) Name() string            { return EngineName }
func (e *Engine) Kind() pixfx.BackendKind { return pixfx.KindNative }

// SetLogger implements the pixfx logger propagation hook.
func (e *Engine) SetLogger(l *slog.Logger) { setLogger(l) }

// AdapterName returns the name of the GPU in use, or "" before Init.
func (e *Engine) AdapterName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.adapter
}

// SetMemoryBudget limits the device memory held by frame backends.
// Values below MinMemoryMB are raised to it.
func (e *Engine) SetMemoryBudget(megabytes int) { e.memory.setBudget(megabytes) }

// MemoryStats reports frame buffer usage against the budget.
func (e *Engine) MemoryStats() MemoryStats { return e.memory.stats() }

// Init acquires the device and builds the effect pipelines.
func (e *Engine) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ready {
		return nil
	}

	if e.provider != nil {
		if err := e.useProvider(e.provider); err != nil {
			return err
		}
	} else if err := e.openDevice(); err != nil {
		e.releaseDevice()
		return err
	}

	if err := ctx.Err(); err != nil {
		e.releaseDevice()
		return err
	}
	if err := e.createPipelines(); err != nil {
		e.destroyPipelines()
		e.releaseDevice()
		return fmt.Errorf("gpu: create pipelines: %w", err)
	}
	e.ready = true
	slogger().Info("gpu: effects engine initialized", "adapter", e.adapter, "shared", e.external)
	return nil
}

func (e *Engine) openDevice() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return errors.New("gpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("gpu: create instance: %w", err)
	}
	e.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return ErrNoAdapter
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("gpu: open device: %w", err)
	}
	e.device = openDev.Device
	e.queue = openDev.Queue
	e.adapter = selected.Info.Name
	slogger().Debug("gpu: device opened", "adapter", e.adapter, "type", selected.Info.DeviceType)
	return nil
}

func (e *Engine) useProvider(provider gpucontext.DeviceProvider) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return ErrProviderNotHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("%w: HalDevice is not hal.Device", ErrProviderNotHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("%w: HalQueue is not hal.Queue", ErrProviderNotHAL)
	}
	e.device = device
	e.queue = queue
	e.external = true
	e.adapter = "shared"
	return nil
}

// releaseDevice drops the device and instance, destroying them unless
// they belong to a provider.
func (e *Engine) releaseDevice() {
	if !e.external {
		if e.device != nil {
			e.device.Destroy()
		}
		if e.instance != nil {
			e.instance.Destroy()
		}
	}
	e.device = nil
	e.queue = nil
	e.instance = nil
	e.external = false
}

func (e *Engine) createPipelines() error {
	code, err := compileSPIRV(effectsWGSL)
	if err != nil {
		return err
	}
	e.shader, err = e.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "effects",
		Source: hal.ShaderSource{SPIRV: code},
	})
	if err != nil {
		return fmt.Errorf("create shader module: %w", err)
	}

	e.bindLayout, err = e.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "effects_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}

	e.pipeLayout, err = e.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "effects_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{e.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}

	e.pointPipe, err = e.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "effects_point", Layout: e.pipeLayout,
		Compute: hal.ComputeState{Module: e.shader, EntryPoint: pointEntry},
	})
	if err != nil {
		return fmt.Errorf("create point pipeline: %w", err)
	}

	e.blurPipe, err = e.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "effects_blur", Layout: e.pipeLayout,
		Compute: hal.ComputeState{Module: e.shader, EntryPoint: blurEntry},
	})
	if err != nil {
		return fmt.Errorf("create blur pipeline: %w", err)
	}
	return nil
}

func (e *Engine) destroyPipelines() {
	if e.device == nil {
		return
	}
	if e.blurPipe != nil {
		e.device.DestroyComputePipeline(e.blurPipe)
		e.blurPipe = nil
	}
	if e.pointPipe != nil {
		e.device.DestroyComputePipeline(e.pointPipe)
		e.pointPipe = nil
	}
	if e.pipeLayout != nil {
		e.device.DestroyPipelineLayout(e.pipeLayout)
		e.pipeLayout = nil
	}
	if e.bindLayout != nil {
		e.device.DestroyBindGroupLayout(e.bindLayout)
		e.bindLayout = nil
	}
	if e.shader != nil {
		e.device.DestroyShaderModule(e.shader)
		e.shader = nil
	}
}

// NewBackend allocates the GPU buffers for width x height frames.
func (e *Engine) NewBackend(width, height int) (pixfx.Backend, error) {
	size, err := pixfx.BufferLen(width, height)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready {
		return nil, ErrNotInitialized
	}

	b := &frameBackend{
		engine: e,
		width:  uint32(width),  //nolint:gosec // BufferLen bounds the product
		height: uint32(height), //nolint:gosec // BufferLen bounds the product
		size:   uint64(size),
	}
	footprint := frameFootprint(b.size)
	if err := e.memory.reserve(footprint); err != nil {
		return nil, err
	}
	b.reserved = footprint
	if err := b.createResources(); err != nil {
		b.destroyResources()
		return nil, fmt.Errorf("gpu: allocate %dx%d frame: %w", width, height, err)
	}
	e.backends[b] = struct{}{}
	slogger().Debug("gpu: frame buffers allocated", "width", width, "height", height,
		"bytes", footprint, "memory", e.memory.stats().String())
	return b, nil
}

// Close releases every frame backend, the pipelines and, unless shared,
// the device.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for b := range e.backends {
		b.destroyResources()
	}
	clear(e.backends)
	e.destroyPipelines()
	e.releaseDevice()
	e.adapter = ""
	e.ready = false
}
