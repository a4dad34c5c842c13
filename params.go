package pixfx

import (
	"math"

	"github.com/goldstar105000117/pixfx/internal/kernels"
)

// Usability ranges applied by Sanitize. The kernels accept any value.
const (
	MaxFactor     = 3
	MaxBlurRadius = 10
)

// EffectParams is the set of adjustments applied by a batch.
//
// A field at its neutral value is treated as absent and its step is
// skipped. The zero value is NOT neutral (brightness 0 blacks out the
// image); start from NeutralParams.
type EffectParams struct {
	// Brightness multiplies each color channel. Neutral is 1.
	Brightness float32 `yaml:"brightness" json:"brightness"`

	// Contrast scales each channel's distance from 128. Neutral is 1.
	Contrast float32 `yaml:"contrast" json:"contrast"`

	// Saturation is carried for callers that persist or display it.
	// No kernel consumes it. Neutral is 1.
	Saturation float32 `yaml:"saturation" json:"saturation"`

	// Temperature shifts color balance in [-1, 1]; positive is warmer.
	// Neutral is 0. Values outside the range are clamped by the kernel.
	Temperature float32 `yaml:"temperature" json:"temperature"`

	// BlurRadius enables the box blur when > 0. Neutral is 0.
	BlurRadius float32 `yaml:"blur" json:"blur"`
}

// NeutralParams returns parameters that leave a buffer unchanged.
func NeutralParams() EffectParams {
	return EffectParams{Brightness: 1, Contrast: 1, Saturation: 1}
}

func (p EffectParams) HasBrightness() bool  { return p.Brightness != 1 }
func (p EffectParams) HasContrast() bool    { return p.Contrast != 1 }
func (p EffectParams) HasTemperature() bool { return p.Temperature != 0 }
func (p EffectParams) HasBlur() bool        { return p.BlurRadius > 0 }

// IsNeutral reports whether a batch with p would leave every buffer
// unchanged. Saturation does not take part.
func (p EffectParams) IsNeutral() bool {
	return !p.HasBrightness() && !p.HasContrast() && !p.HasTemperature() && !p.HasBlur()
}

// Sanitize bounds p to the ranges exposed by editing surfaces:
// factors to [0, MaxFactor], temperature to [-1, 1], blur to
// [0, MaxBlurRadius]. NaN fields become neutral.
func (p EffectParams) Sanitize() EffectParams {
	n := NeutralParams()
	return EffectParams{
		Brightness:  clampParam(p.Brightness, 0, MaxFactor, n.Brightness),
		Contrast:    clampParam(p.Contrast, 0, MaxFactor, n.Contrast),
		Saturation:  clampParam(p.Saturation, 0, MaxFactor, n.Saturation),
		Temperature: clampParam(p.Temperature, -1, 1, n.Temperature),
		BlurRadius:  clampParam(p.BlurRadius, 0, MaxBlurRadius, n.BlurRadius),
	}
}

func clampParam(v, lo, hi, neutral float32) float32 {
	if math.IsNaN(float64(v)) {
		return neutral
	}
	return min(max(v, lo), hi)
}

func (p EffectParams) kernelParams() kernels.Params {
	return kernels.Params{
		Brightness:  p.Brightness,
		Contrast:    p.Contrast,
		Temperature: p.Temperature,
		BlurRadius:  p.BlurRadius,
	}
}
