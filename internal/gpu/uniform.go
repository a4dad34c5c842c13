//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"math"

	"github.com/goldstar105000117/pixfx"
	"github.com/goldstar105000117/pixfx/internal/kernels"
)

// uniformSize is the byte size of the Params struct in effects.wgsl.
const uniformSize = 48

// Step flags, matching Params.flags in effects.wgsl.
const (
	flagBrightness uint32 = 1 << iota
	flagContrast
	flagTemperature
)

// effectUniform mirrors the Params struct in effects.wgsl.
type effectUniform struct {
	Width, Height uint32
	Flags         uint32
	Brightness    float32
	Contrast      float32
	TempR         float32
	TempG         float32
	TempB         float32
}

// newEffectUniform encodes the point steps of p. Temperature multipliers
// are computed here with the same code the CPU kernels use.
func newEffectUniform(width, height uint32, p pixfx.EffectParams) effectUniform {
	u := effectUniform{
		Width:      width,
		Height:     height,
		Brightness: p.Brightness,
		Contrast:   p.Contrast,
		TempR:      1,
		TempG:      1,
		TempB:      1,
	}
	if p.HasBrightness() {
		u.Flags |= flagBrightness
	}
	if p.HasContrast() {
		u.Flags |= flagContrast
	}
	if r, g, b, ok := kernels.TemperatureFactors(p.Temperature); ok {
		u.Flags |= flagTemperature
		u.TempR, u.TempG, u.TempB = r, g, b
	}
	return u
}

// hasPointSteps reports whether the point pass has anything to do.
func (u effectUniform) hasPointSteps() bool { return u.Flags != 0 }

// bytes serializes u with std140 layout (little-endian, padded to 48).
func (u effectUniform) bytes() []byte {
	b := make([]byte, uniformSize)
	le := binary.LittleEndian
	le.PutUint32(b[0:], u.Width)
	le.PutUint32(b[4:], u.Height)
	le.PutUint32(b[8:], u.Flags)
	le.PutUint32(b[16:], math.Float32bits(u.Brightness))
	le.PutUint32(b[20:], math.Float32bits(u.Contrast))
	le.PutUint32(b[24:], math.Float32bits(u.TempR))
	le.PutUint32(b[28:], math.Float32bits(u.TempG))
	le.PutUint32(b[32:], math.Float32bits(u.TempB))
	return b
}
