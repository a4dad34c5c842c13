//go:build nogpu

// Package gpu is empty in nogpu builds: no native engine is registered and
// pixfx always binds the CPU engine.
package gpu

import "github.com/gogpu/gpucontext"

// SetDeviceProvider is a no-op in nogpu builds.
func SetDeviceProvider(gpucontext.DeviceProvider) {}
