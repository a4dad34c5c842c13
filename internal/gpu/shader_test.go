//go:build !nogpu

package gpu

import (
	"strings"
	"testing"
)

func TestEffectsShaderSource(t *testing.T) {
	required := []string{
		"@compute",
		"@workgroup_size(8, 8, 1)",
		"fn " + pointEntry,
		"fn " + blurEntry,
		"var<uniform> params: Params",
		"var<storage, read> src",
		"var<storage, read_write> dst",
	}
	for _, req := range required {
		if !strings.Contains(effectsWGSL, req) {
			t.Errorf("effects shader missing %q", req)
		}
	}
}

func TestEffectsShaderCompiles(t *testing.T) {
	spirvCache.Clear()

	code, err := compileSPIRV(effectsWGSL)
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "not yet implemented") || strings.Contains(errStr, "not supported") {
			t.Skipf("Skipping: naga feature not yet implemented: %v", err)
		}
		t.Fatalf("compileSPIRV() error = %v", err)
	}
	if code[0] != spirvMagic {
		t.Errorf("invalid SPIR-V magic: 0x%08X, want 0x%08X", code[0], spirvMagic)
	}
	t.Logf("effects shader compiled to %d SPIR-V words", len(code))

	again, err := compileSPIRV(effectsWGSL)
	if err != nil {
		t.Fatalf("second compileSPIRV() error = %v", err)
	}
	if &again[0] != &code[0] {
		t.Error("second compile did not come from the cache")
	}
	if spirvCache.Len() != 1 {
		t.Errorf("cache holds %d entries, want 1", spirvCache.Len())
	}
}

func TestCompileSPIRVRejectsInvalidSource(t *testing.T) {
	if _, err := compileSPIRV("fn broken( {"); err == nil {
		t.Error("compileSPIRV() accepted malformed WGSL")
	}
}
