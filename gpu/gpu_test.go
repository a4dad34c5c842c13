//go:build !nogpu

package gpu

import (
	"context"
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/goldstar105000117/pixfx"
	gpuimpl "github.com/goldstar105000117/pixfx/internal/gpu"
)

func TestEngineRegistered(t *testing.T) {
	if !pixfx.IsNativeRegistered(gpuimpl.EngineName) {
		t.Fatalf("%q not registered; natives = %v", gpuimpl.EngineName, pixfx.RegisteredNatives())
	}
}

func TestDefaultContextIsReady(t *testing.T) {
	c := pixfx.NewBackendContext()
	t.Cleanup(c.Close)

	s, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	switch s {
	case pixfx.StatusNativeReady:
		if c.EngineName() != gpuimpl.EngineName {
			t.Errorf("EngineName() = %q", c.EngineName())
		}
	case pixfx.StatusFallbackReady:
		t.Logf("GPU unavailable, fell back: %v", c.NativeErr())
	default:
		t.Errorf("status = %v", s)
	}
}

// plainProvider is a DeviceProvider without HAL access.
type plainProvider struct{}

func (plainProvider) Device() gpucontext.Device   { return nil }
func (plainProvider) Queue() gpucontext.Queue     { return nil }
func (plainProvider) Adapter() gpucontext.Adapter { return nil }
func (plainProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "plain"}
}
func (plainProvider) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

func TestSetDeviceProviderWithoutHALFallsBack(t *testing.T) {
	SetDeviceProvider(plainProvider{})
	t.Cleanup(func() { SetDeviceProvider(nil) })

	c := pixfx.NewBackendContext(pixfx.WithNative(gpuimpl.EngineName, newEngine))
	t.Cleanup(c.Close)

	s, err := c.Load(context.Background())
	if err != nil || s != pixfx.StatusFallbackReady {
		t.Fatalf("Load() = %v, %v; want fallback ready", s, err)
	}
	if !errors.Is(c.NativeErr(), gpuimpl.ErrProviderNotHAL) {
		t.Errorf("NativeErr() = %v, want ErrProviderNotHAL", c.NativeErr())
	}
	if !errors.Is(c.NativeErr(), pixfx.ErrBackendUnavailable) {
		t.Errorf("NativeErr() = %v, want ErrBackendUnavailable", c.NativeErr())
	}
}
