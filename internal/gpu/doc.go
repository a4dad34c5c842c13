//go:build !nogpu

// Package gpu implements the pixfx native engine as wgpu/hal compute
// passes on a Vulkan device.
//
// # Architecture
//
//	Engine ── device, queue, shader module, bind layout, 2 pipelines
//	  └── frameBackend (one per processor size)
//	        uniform ─┐
//	        front  ──┼─ bind group ─ point_main / blur_main
//	        back   ──┘
//	        upload, staging (host-mapped)
//
// The effects program is WGSL (shaders/effects.wgsl), compiled once per
// process to SPIR-V with naga and kept in an LRU cache.
//
// # Dispatch
//
// ApplyBatch writes the params and the frame into host-mapped buffers and
// records a single command buffer:
//
//  0. upload is copied to front
//  1. point_main reads front and writes back (brightness, contrast,
//     temperature in that order), or a plain copy when no point step is
//     active
//  2. when blurring, back is copied to front and blur_main writes back
//  3. back is copied to staging
//
// then submits it, polls the queue until the submission completes and
// maps staging to copy it into the caller's buffer. Arithmetic matches internal/kernels: float32 products, clamp
// to [0, 255], truncation. Results agree with the CPU engine within one
// unit per channel.
//
// # Device sharing
//
// NewEngineWithProvider runs on a device owned by the host application.
// Such devices are never destroyed by Engine.Close.
//
// # Memory
//
// Frame buffers count against a budget (DefaultMaxMemoryMB, adjustable
// with Engine.SetMemoryBudget). A frame that does not fit is refused with
// ErrMemoryBudgetExceeded.
//
// # Thread safety
//
// Engine serializes all device access behind one mutex. frameBackend
// values are used by a single processor at a time.
package gpu
