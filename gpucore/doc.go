// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpucore defines the backend-neutral GPU interfaces consumed by the
// frame pacing core.
//
// The core (fence, ring, scheduler) is implemented once against these
// interfaces, while thin backends translate them to a concrete API:
//
//	               +------------------+
//	               |  fence / ring /  |
//	               |    scheduler     |
//	               +--------+---------+
//	                        |
//	         +--------------+--------------+
//	         |                             |
//	+--------v--------+          +--------v--------+
//	|  backend/native |          |  backend/soft   |
//	|   (hal.Device)  |          | (goroutine GPU) |
//	+-----------------+          +-----------------+
//
// # Fences
//
// A [Fence] is a timeline: the GPU sets it to the value passed with a
// submission once all earlier work on the queue has completed. Values only
// grow. [FenceDevice.Wait] with a zero timeout is a non-blocking poll.
//
// # Allocators
//
// An [Allocator] is the per-frame-slot command memory. Command buffers
// finished from it stay valid until the next [Allocator.Reset], which must
// only happen after the GPU has executed them.
package gpucore
