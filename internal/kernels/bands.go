package kernels

// minBandRows is the smallest band BatchBands hands to a task.
const minBandRows = 16

// Runner runs tasks, possibly concurrently, and returns once all of them
// have finished.
type Runner func(tasks []func())

type rowSpan struct{ y0, y1 int }

// splitRows divides height rows into n contiguous spans whose sizes
// differ by at most one.
func splitRows(height, n int) []rowSpan {
	spans := make([]rowSpan, n)
	base, extra := height/n, height%n
	y := 0
	for i := range spans {
		h := base
		if i < extra {
			h++
		}
		spans[i] = rowSpan{y, y + h}
		y += h
	}
	return spans
}

// BatchBands is Batch with the frame split into up to bands horizontal
// bands executed by run. Point steps run per band; blur then reads one
// snapshot of the whole frame, so the output equals Batch exactly.
//
// A nil run, a single band, or a frame too short to split falls back to
// Batch.
func BatchBands(buf []byte, width, height int, p Params, bands int, run Runner) {
	bands = min(bands, height/minBandRows)
	n := width * height * 4
	if run == nil || bands < 2 || len(buf) < n {
		Batch(buf, width, height, p)
		return
	}

	stride := width * 4
	spans := splitRows(height, bands)
	tasks := make([]func(), len(spans))

	if p.hasPoint() {
		for i, s := range spans {
			band := buf[s.y0*stride : s.y1*stride]
			tasks[i] = func() { point(band, p) }
		}
		run(tasks)
	}

	if !(p.BlurRadius > 0) || width < 3 {
		return
	}
	snap := getTempBuffer(n)
	defer putTempBuffer(snap)
	src := snap.data
	copy(src, buf[:n])
	for i, s := range spans {
		tasks[i] = func() { blurRows(buf, src, width, height, s.y0, s.y1) }
	}
	run(tasks)
}
