// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package framepace provides the CPU/GPU frame pacing core used by the
// tutorial samples: a fence tracker, a ring of per-frame resources and a
// scheduler that keeps the CPU at most N frames ahead of the GPU.
//
// # Overview
//
// A renderer records one command buffer per frame. Each frame slot owns a
// command allocator that may only be reset once the GPU has finished the
// work previously recorded from it. The scheduler enforces this by pairing
// every submission with a monotonically increasing fence value:
//
//	sched := scheduler.New(queue, swap, ring, tracker)
//	for running {
//	    f, err := sched.BeginFrame(ctx, swap.CurrentBackBufferIndex())
//	    if err != nil {
//	        return err
//	    }
//	    f.Recorder.ClearTarget(f.Slot.Target, gputypes.Color{R: 0, G: 0.2, B: 0.4, A: 1})
//	    if err := sched.EndFrame(f.Index); err != nil {
//	        return err
//	    }
//	}
//	return sched.Close(ctx)
//
// # Architecture
//
// The module is organized into:
//   - Root: configuration options, error taxonomy, logging
//   - gpucore: backend-neutral interfaces (fence device, queue, allocator, swap chain)
//   - fence, ring, scheduler: the synchronization core
//   - backend/soft: goroutine-driven software GPU with timeline fences
//   - backend/native: gogpu/wgpu HAL device
//   - platform, sample: explicit window context and the sample driver loop
//
// # Logging
//
// framepace produces no log output by default. Call [SetLogger] to enable it.
package framepace

// Version is the current version of the library.
const Version = "0.1.0"
