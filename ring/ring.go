// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package ring holds the per-frame resources reused every N frames.
package ring

import (
	"fmt"

	"github.com/gogpu/framepace"
	"github.com/gogpu/framepace/gpucore"
)

// Completion reports whether a fence value has completed. A non-nil error
// means the completion state could not be read.
// *fence.Tracker implements it.
type Completion interface {
	Reached(value uint64) (bool, error)
}

// Slot is the set of resources owned by one frame index.
type Slot struct {
	Index int

	// Allocator is exclusively owned by the ring.
	Allocator gpucore.Allocator

	// Target is the swap-chain back buffer for this index. The swap chain
	// owns it.
	Target gpucore.RenderTarget

	// SubmittedFenceValue is the value signaled after this slot's last
	// submission. Zero means nothing was ever submitted.
	SubmittedFenceValue uint64

	resets uint64
}

// Resets returns how many times the slot's allocator has been reset.
func (s *Slot) Resets() uint64 { return s.resets }

// AllocatorFactory creates the allocator for slot i.
type AllocatorFactory func(i int) (gpucore.Allocator, error)

// Ring is a fixed-size array of frame slots indexed by back-buffer index.
//
// Ring is NOT safe for concurrent use.
type Ring struct {
	slots     []Slot
	done      Completion
	destroyed bool
}

// New creates a ring with one slot per swap-chain back buffer.
// done guards ResetAllocator.
func New(swap gpucore.SwapChain, done Completion, newAllocator AllocatorFactory) (*Ring, error) {
	n := swap.BufferCount()
	if n < framepace.MinBufferCount || n > framepace.MaxBufferCount {
		return nil, fmt.Errorf("ring: %d back buffers: %w", n, framepace.ErrInvalidFrameIndex)
	}
	r := &Ring{
		slots: make([]Slot, n),
		done:  done,
	}
	for i := range r.slots {
		a, err := newAllocator(i)
		if err != nil {
			r.destroyAllocators()
			return nil, fmt.Errorf("ring: allocator %d: %w: %w", i, framepace.ErrResourceCreationFailed, err)
		}
		r.slots[i] = Slot{
			Index:     i,
			Allocator: a,
			Target:    swap.BackBuffer(i),
		}
	}
	framepace.Logger().Info("ring: created", "slots", n)
	return r, nil
}

// Len returns the number of slots.
func (r *Ring) Len() int { return len(r.slots) }

// Slot returns the slot for frameIndex.
func (r *Ring) Slot(frameIndex int) (*Slot, error) {
	if frameIndex < 0 || frameIndex >= len(r.slots) {
		return nil, fmt.Errorf("ring: slot %d of %d: %w", frameIndex, len(r.slots), framepace.ErrInvalidFrameIndex)
	}
	return &r.slots[frameIndex], nil
}

// ResetAllocator resets the allocator of frameIndex.
//
// Resetting an allocator whose command buffers are still executing is
// undefined behavior in every native API, so the ring refuses with
// ErrAllocatorInFlight unless the slot's submitted value has completed.
// When completion cannot be read the Completion error is returned instead.
func (r *Ring) ResetAllocator(frameIndex int) error {
	s, err := r.Slot(frameIndex)
	if err != nil {
		return err
	}
	if r.destroyed {
		return framepace.ErrClosed
	}
	ok, err := r.done.Reached(s.SubmittedFenceValue)
	if err == nil && !ok {
		err = framepace.ErrAllocatorInFlight
	}
	if err != nil {
		return &framepace.FrameError{
			Op:    "reset",
			Frame: frameIndex,
			Value: s.SubmittedFenceValue,
			Err:   err,
		}
	}
	if err := s.Allocator.Reset(); err != nil {
		return &framepace.FrameError{Op: "reset", Frame: frameIndex, Value: s.SubmittedFenceValue, Err: err}
	}
	s.resets++
	return nil
}

// MaxSubmitted returns the highest fence value recorded in any slot.
func (r *Ring) MaxSubmitted() uint64 {
	var v uint64
	for i := range r.slots {
		v = max(v, r.slots[i].SubmittedFenceValue)
	}
	return v
}

// Destroy releases every allocator. The caller must drain the queue first;
// Destroy verifies this and refuses with ErrAllocatorInFlight otherwise.
func (r *Ring) Destroy() error {
	if r.destroyed {
		return nil
	}
	v := r.MaxSubmitted()
	ok, err := r.done.Reached(v)
	if err == nil && !ok {
		err = framepace.ErrAllocatorInFlight
	}
	if err != nil {
		return &framepace.FrameError{Op: "destroy", Frame: -1, Value: v, Err: err}
	}
	r.destroyAllocators()
	r.destroyed = true
	return nil
}

func (r *Ring) destroyAllocators() {
	for i := range r.slots {
		if r.slots[i].Allocator != nil {
			r.slots[i].Allocator.Destroy()
			r.slots[i].Allocator = nil
		}
	}
}
