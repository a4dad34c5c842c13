//go:build !nogpu

// Package gpu registers the GPU compute engine with pixfx.
//
// Import this package to let every pixfx.BackendContext try GPU compute
// (Vulkan via wgpu/hal) before falling back to the CPU engine:
//
//	import _ "github.com/goldstar105000117/pixfx/gpu"
//
// Registration does not touch the GPU. The device is acquired on the first
// load; if that fails the loader logs a warning and binds the CPU engine.
//
// Build with -tags nogpu to compile the package without GPU support.
package gpu

import (
	"sync"

	"github.com/gogpu/gpucontext"

	"github.com/goldstar105000117/pixfx"
	gpuimpl "github.com/goldstar105000117/pixfx/internal/gpu"
)

var (
	providerMu sync.RWMutex
	provider   gpucontext.DeviceProvider
)

func init() {
	pixfx.RegisterNative(gpuimpl.EngineName, newEngine)
}

func newEngine() pixfx.Engine {
	providerMu.RLock()
	p := provider
	providerMu.RUnlock()
	if p != nil {
		return gpuimpl.NewEngineWithProvider(p)
	}
	return gpuimpl.NewEngine()
}

// SetDeviceProvider makes engines created from now on run on the device
// of an external provider (e.g. the host application's window) instead of
// opening their own. The provider must also expose HalDevice() any and
// HalQueue() any. Pass nil to go back to private devices.
//
// Contexts that already loaded keep their engine; call SetDeviceProvider
// before the first load.
func SetDeviceProvider(p gpucontext.DeviceProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	provider = p
}
