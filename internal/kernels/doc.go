// Package kernels implements the per-pixel effect transforms shared by every
// CPU code path.
//
// All kernels operate in place on tightly packed RGBA8 buffers (4 bytes per
// pixel, row-major, top-left origin). Alpha is never written. Channel math is
// float32, each intermediate product is rounded to float32 explicitly so the
// result does not depend on FMA contraction, and the final value is clamped
// to [0, 255] and truncated toward zero.
//
// Kernels are stateless and safe for concurrent use on distinct buffers.
package kernels
