// Package pixfx applies per-pixel effects (brightness, contrast, color
// temperature and a 5-tap box blur) to RGBA8 video frames.
//
// # Overview
//
// Frames are plain byte slices: width*height*4 bytes, row-major, top-left
// origin, [R, G, B, A] per pixel. Effects mutate the slice in place and
// never touch alpha.
//
//	proc, err := pixfx.NewProcessor(ctx, 1280, 720)
//	if err != nil {
//	    return err
//	}
//	defer proc.Close()
//
//	params := pixfx.NeutralParams()
//	params.Brightness = 1.2
//	params.BlurRadius = 1
//	err = proc.ApplyEffectsBatch(frame, params)
//
// # Backends
//
// A BackendContext binds one engine per session. Native engines (GPU
// compute) are tried first; any failure during acquisition is logged and
// the CPU fallback engine is bound instead, so callers only see
// StatusNativeReady or StatusFallbackReady. Both produce the same output
// to within one unit per channel.
//
// Native engines are opt-in via blank import:
//
//	import _ "github.com/goldstar105000117/pixfx/gpu"
//
// # Batch order
//
// ApplyEffectsBatch applies brightness, then contrast, then temperature,
// then blur. Steps whose parameter is neutral are skipped.
//
// # Logging
//
// pixfx is silent by default. Use SetLogger to route diagnostics to any
// slog.Handler.
package pixfx
