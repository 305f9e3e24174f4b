// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framepace"
	"github.com/gogpu/framepace/gpucore"
)

// Allocator is the command memory of one frame slot: a command encoder per
// recorded frame and the command buffers finished since the last reset.
//
// The HAL does not track buffer completion for us. Callers must only Reset
// once the fence value of the slot's last submission has completed, which
// ring.Ring enforces.
type Allocator struct {
	gpu       gpuDevice
	label     string
	enc       encoder
	rec       *recorder
	pending   []hal.CommandBuffer
	destroyed bool
}

// Reset frees every command buffer finished since the previous reset.
func (a *Allocator) Reset() error {
	if a.destroyed {
		return framepace.ErrClosed
	}
	if a.enc != nil {
		return fmt.Errorf("native: reset %s: %w", a.label, ErrRecording)
	}
	a.free()
	return nil
}

// Begin starts recording a command buffer.
func (a *Allocator) Begin(label string) (gpucore.Recorder, error) {
	if a.destroyed {
		return nil, framepace.ErrClosed
	}
	if a.enc != nil {
		return nil, fmt.Errorf("native: begin %s: %w", label, ErrRecording)
	}
	enc, err := a.gpu.CreateEncoder(a.label)
	if err != nil {
		return nil, fmt.Errorf("native: create command encoder: %w: %w", framepace.ErrResourceCreationFailed, err)
	}
	if err := enc.Begin(label); err != nil {
		return nil, fmt.Errorf("native: begin encoding: %w", err)
	}
	a.enc = enc
	a.rec = &recorder{enc: enc}
	return a.rec, nil
}

// Finish ends recording and returns the command buffer.
func (a *Allocator) Finish() (gpucore.CommandBuffer, error) {
	enc, rec := a.enc, a.rec
	if enc == nil {
		return nil, ErrNotRecording
	}
	a.enc, a.rec = nil, nil
	if rec.err != nil {
		enc.Discard()
		return nil, rec.err
	}
	cb, err := enc.End()
	if err != nil {
		return nil, fmt.Errorf("native: end encoding: %w", err)
	}
	a.pending = append(a.pending, cb)
	return cb, nil
}

// Destroy discards an open recording and frees all command buffers.
func (a *Allocator) Destroy() {
	if a.destroyed {
		return
	}
	if a.enc != nil {
		a.enc.Discard()
		a.enc, a.rec = nil, nil
	}
	a.free()
	a.destroyed = true
}

func (a *Allocator) free() {
	for _, cb := range a.pending {
		a.gpu.FreeCommandBuffer(cb)
	}
	a.pending = a.pending[:0]
}

type recorder struct {
	enc encoder
	err error
}

func (r *recorder) view(t gpucore.RenderTarget) hal.TextureView {
	bb, ok := t.(*BackBuffer)
	if !ok {
		if r.err == nil {
			r.err = fmt.Errorf("native: record into %T: %w", t, ErrForeignObject)
		}
		return nil
	}
	return bb.view
}

func (r *recorder) ClearTarget(t gpucore.RenderTarget, c gputypes.Color) {
	if v := r.view(t); v != nil {
		r.enc.Clear(v, c)
	}
}

func (r *recorder) Draw(t gpucore.RenderTarget, call gpucore.DrawCall) {
	if v := r.view(t); v != nil {
		r.enc.Draw(v, call)
	}
}
