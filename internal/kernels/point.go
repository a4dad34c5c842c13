package kernels

// Temperature channel weights. Warm shifts boost red most and cut blue,
// cool shifts do the opposite.
const (
	warmRed   = 0.3
	warmGreen = 0.1
	warmBlue  = 0.2

	coolRed   = 0.2
	coolGreen = 0.1
	coolBlue  = 0.3
)

// toChannel clamps v to [0, 255] and truncates it. NaN maps to 0.
func toChannel(v float32) byte {
	if !(v > 0) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return byte(v)
}

// Brightness multiplies R, G and B by factor.
func Brightness(buf []byte, factor float32) {
	if factor == 1 {
		return
	}
	scaleRGB(buf, factor, factor, factor)
}

// Contrast pushes R, G and B away from (factor > 1) or toward (factor < 1)
// the mid-gray pivot 128.
func Contrast(buf []byte, factor float32) {
	if factor == 1 {
		return
	}
	for i := 0; i+4 <= len(buf); i += 4 {
		p := buf[i : i+3 : i+3]
		p[0] = contrastChannel(p[0], factor)
		p[1] = contrastChannel(p[1], factor)
		p[2] = contrastChannel(p[2], factor)
	}
}

func contrastChannel(v byte, factor float32) byte {
	return toChannel(float32((float32(v)-128)*factor) + 128)
}

// Temperature shifts the color balance. t is clamped to [-1, 1]; positive
// values warm the image, negative values cool it, zero is a no-op.
func Temperature(buf []byte, t float32) {
	r, g, b, ok := TemperatureFactors(t)
	if !ok {
		return
	}
	scaleRGB(buf, r, g, b)
}

// TemperatureFactors returns the per-channel multipliers for temperature t.
// ok is false when t is zero (or NaN) and the shift would be a no-op.
func TemperatureFactors(t float32) (r, g, b float32, ok bool) {
	switch {
	case t > 0:
		t = min(t, 1)
		return 1 + float32(t*warmRed), 1 + float32(t*warmGreen), 1 - float32(t*warmBlue), true
	case t < 0:
		t = max(t, -1)
		return 1 + float32(t*coolRed), 1 + float32(t*coolGreen), 1 - float32(t*coolBlue), true
	default:
		return 1, 1, 1, false
	}
}

func scaleRGB(buf []byte, r, g, b float32) {
	for i := 0; i+4 <= len(buf); i += 4 {
		p := buf[i : i+3 : i+3]
		p[0] = toChannel(float32(p[0]) * r)
		p[1] = toChannel(float32(p[1]) * g)
		p[2] = toChannel(float32(p[2]) * b)
	}
}
