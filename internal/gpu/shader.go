//go:build !nogpu

package gpu

import (
	_ "embed"
	"encoding/binary"
	"fmt"

	"github.com/gogpu/naga"

	"github.com/goldstar105000117/pixfx/internal/cache"
)

//go:embed shaders/effects.wgsl
var effectsWGSL string

// Compute entry points in effects.wgsl.
const (
	pointEntry = "point_main"
	blurEntry  = "blur_main"
)

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

// spirvCache keeps compiled modules keyed by WGSL source, so engines
// re-created by Retry or by several contexts skip naga.
var spirvCache = cache.New[string, []uint32](4)

// compileSPIRV compiles WGSL source to SPIR-V words.
func compileSPIRV(source string) ([]uint32, error) {
	if code, ok := spirvCache.Get(source); ok {
		return code, nil
	}

	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("compile effects shader: %w", err)
	}
	if len(spirvBytes) < 4 || len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("compile effects shader: malformed SPIR-V (%d bytes)", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words.
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	if code[0] != spirvMagic {
		return nil, fmt.Errorf("compile effects shader: bad SPIR-V magic 0x%08X", code[0])
	}

	spirvCache.Set(source, code)
	return code, nil
}
