// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import (
	"time"

	"github.com/gogpu/gputypes"
)

// Fence is an opaque backend fence handle.
type Fence any

// CommandBuffer is an opaque, finished command buffer ready for submission.
type CommandBuffer any

// FenceDevice creates fences and waits on them.
type FenceDevice interface {
	// CreateFence creates a fence whose completed value starts at 0.
	CreateFence() (Fence, error)

	// DestroyFence releases a fence. The fence must not be pending.
	DestroyFence(f Fence)

	// Wait blocks until the fence reaches value or the timeout expires and
	// reports whether the value was reached. A zero timeout polls.
	Wait(f Fence, value uint64, timeout time.Duration) (bool, error)
}

// Queue is the command submission queue.
type Queue interface {
	// Submit enqueues buffers for execution. When fence is non-nil it is set
	// to value once the buffers and all earlier work have completed. An empty
	// buffer list with a fence only signals.
	Submit(buffers []CommandBuffer, fence Fence, value uint64) error
}

// RenderTarget is a swap-chain back buffer.
type RenderTarget interface {
	Index() int
	Format() gputypes.TextureFormat
	Size() gputypes.Extent3D
}

// DrawCall is an opaque draw recorded by a renderer. The core does not
// interpret it; backends forward Record to their native pass encoder.
type DrawCall struct {
	Label         string
	VertexCount   uint32
	InstanceCount uint32

	// ConstantIndex is the slice of the per-frame constant ring the draw
	// reads from.
	ConstantIndex int

	// Record, when set, receives the backend's native pass encoder
	// (hal.RenderPassEncoder for the native backend).
	Record func(pass any)
}

// Recorder records commands into the command buffer being built.
type Recorder interface {
	// ClearTarget clears target to color.
	ClearTarget(target RenderTarget, color gputypes.Color)

	// Draw records call against target.
	Draw(target RenderTarget, call DrawCall)
}

// Allocator is the command memory owned by one frame slot.
type Allocator interface {
	// Reset reclaims every command buffer finished from this allocator.
	Reset() error

	// Begin starts recording a new command buffer.
	Begin(label string) (Recorder, error)

	// Finish ends recording and returns the command buffer.
	Finish() (CommandBuffer, error)

	// Destroy releases the allocator.
	Destroy()
}

// SwapChain is the presentation engine. It owns the back buffers and
// selects the current one.
type SwapChain interface {
	BufferCount() int

	// CurrentBackBufferIndex returns the back buffer the next frame renders
	// into. It changes only when Present is called.
	CurrentBackBufferIndex() int

	BackBuffer(i int) RenderTarget

	// Present queues the current back buffer for display and advances
	// CurrentBackBufferIndex.
	Present() error

	Destroy()
}

// Device is a GPU device with one submission queue.
type Device interface {
	FenceDevice

	Queue() Queue

	// CreateAllocator creates command memory for one frame slot.
	CreateAllocator(label string) (Allocator, error)

	Destroy()
}
