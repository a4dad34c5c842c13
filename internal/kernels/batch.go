package kernels

// Params selects the transforms applied by Batch. Neutral values
// (Brightness 1, Contrast 1, Temperature 0, BlurRadius 0) skip their step.
type Params struct {
	Brightness  float32
	Contrast    float32
	Temperature float32
	BlurRadius  float32
}

// Neutral returns parameters that leave a buffer unchanged.
func Neutral() Params {
	return Params{Brightness: 1, Contrast: 1}
}

// Batch applies brightness, contrast, temperature and blur in that order.
// The order is part of the contract: the transforms do not commute.
func Batch(buf []byte, width, height int, p Params) {
	point(buf, p)
	if p.BlurRadius > 0 {
		Blur(buf, width, height, p.BlurRadius)
	}
}

func (p Params) hasPoint() bool {
	return p.Brightness != 1 || p.Contrast != 1 || p.Temperature != 0
}

// point runs the per-pixel steps of p on buf.
func point(buf []byte, p Params) {
	if p.Brightness != 1 {
		Brightness(buf, p.Brightness)
	}
	if p.Contrast != 1 {
		Contrast(buf, p.Contrast)
	}
	if p.Temperature != 0 {
		Temperature(buf, p.Temperature)
	}
}
