package kernels

import "sync"

// maxPooledTemp caps the snapshot size kept in the pool (a 4K frame).
const maxPooledTemp = 3840 * 2160 * 4

// byteBuffer wraps a slice so the pool stores a pointer.
type byteBuffer struct {
	data []byte
}

var tempBufferPool = sync.Pool{
	New: func() any { return new(byteBuffer) },
}

// getTempBuffer returns a pooled buffer of length n. Contents are undefined.
func getTempBuffer(n int) *byteBuffer {
	b := tempBufferPool.Get().(*byteBuffer)
	if cap(b.data) < n {
		b.data = make([]byte, n)
	}
	b.data = b.data[:n]
	return b
}

// putTempBuffer returns b to the pool. Buffers past maxPooledTemp are dropped.
func putTempBuffer(b *byteBuffer) {
	if cap(b.data) > maxPooledTemp {
		return
	}
	tempBufferPool.Put(b)
}

// Blur applies one pass of a 5-tap cross box filter (center plus the four
// edge neighbors) when radius > 0. Every neighbor is read from a snapshot
// taken before the pass. Only interior pixels are written; the outermost
// rows and columns keep their values, so images narrower or shorter than
// three pixels are left unchanged.
//
// The radius only gates the pass: any positive radius is a single pass.
func Blur(buf []byte, width, height int, radius float32) {
	if !(radius > 0) || width < 3 || height < 3 {
		return
	}
	n := width * height * 4
	if len(buf) < n {
		return
	}

	snap := getTempBuffer(n)
	defer putTempBuffer(snap)
	src := snap.data
	copy(src, buf[:n])

	blurRows(buf, src, width, height, 0, height)
}

// blurRows writes the blurred interior pixels of rows [y0, y1) into dst,
// reading every tap from src.
func blurRows(dst, src []byte, width, height, y0, y1 int) {
	stride := width * 4
	for y := max(y0, 1); y < min(y1, height-1); y++ {
		row := y * stride
		for x := 1; x < width-1; x++ {
			i := row + x*4
			for c := i; c < i+3; c++ {
				sum := uint(src[c]) + uint(src[c-4]) + uint(src[c+4]) +
					uint(src[c-stride]) + uint(src[c+stride])
				dst[c] = byte(sum / 5)
			}
		}
	}
}
