// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import (
	"fmt"
	"image"
	"image/color"
	"sync/atomic"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framepace"
	"github.com/gogpu/framepace/gpucore"
)

// Allocator owns the command buffers of one frame slot.
//
// Reset refuses with ErrAllocatorInFlight while any submitted buffer has
// not finished executing, which makes misuse by the scheduler visible
// instead of corrupting memory.
type Allocator struct {
	label     string
	buffers   []*CommandBuffer
	recording *CommandBuffer
	resets    int
	destroyed bool
}

// Resets returns how many times the allocator has been reset.
func (a *Allocator) Resets() int { return a.resets }

// Reset reclaims every buffer recorded since the previous reset.
func (a *Allocator) Reset() error {
	if a.destroyed {
		return ErrDeviceClosed
	}
	if a.recording != nil {
		return fmt.Errorf("soft: reset %s: %w", a.label, ErrRecording)
	}
	for _, cb := range a.buffers {
		if cb.submitted && !cb.done.Load() {
			return fmt.Errorf("soft: reset %s: buffer %q still executing: %w",
				a.label, cb.label, framepace.ErrAllocatorInFlight)
		}
	}
	a.buffers = a.buffers[:0]
	a.resets++
	return nil
}

// Begin starts a command buffer.
func (a *Allocator) Begin(label string) (gpucore.Recorder, error) {
	if a.destroyed {
		return nil, ErrDeviceClosed
	}
	if a.recording != nil {
		return nil, fmt.Errorf("soft: begin %s: %w", label, ErrRecording)
	}
	a.recording = &CommandBuffer{label: label}
	return &recorder{cb: a.recording}, nil
}

// Finish ends the command buffer started by Begin.
func (a *Allocator) Finish() (gpucore.CommandBuffer, error) {
	cb := a.recording
	if cb == nil {
		return nil, ErrNotRecording
	}
	a.recording = nil
	a.buffers = append(a.buffers, cb)
	if cb.err != nil {
		return nil, cb.err
	}
	cb.finished = true
	return cb, nil
}

// Destroy releases the allocator.
func (a *Allocator) Destroy() {
	for _, cb := range a.buffers {
		if cb.submitted && !cb.done.Load() {
			framepace.Logger().Warn("soft: allocator destroyed while in flight", "allocator", a.label, "buffer", cb.label)
			break
		}
	}
	a.destroyed = true
	a.recording = nil
	a.buffers = nil
}

// CommandBuffer is a list of recorded operations.
type CommandBuffer struct {
	label     string
	ops       []op
	err       error
	finished  bool
	submitted bool
	done      atomic.Bool
}

// Label returns the debug label.
func (cb *CommandBuffer) Label() string { return cb.label }

// Done reports whether the buffer has executed.
func (cb *CommandBuffer) Done() bool { return cb.done.Load() }

func (cb *CommandBuffer) execute() error {
	for _, o := range cb.ops {
		if err := o.execute(); err != nil {
			return err
		}
	}
	cb.done.Store(true)
	return nil
}

type op interface {
	execute() error
}

type clearOp struct {
	target *BackBuffer
	color  color.RGBA
}

func (o clearOp) execute() error {
	o.target.fill(o.color)
	return nil
}

type drawOp struct {
	target *BackBuffer
	call   gpucore.DrawCall
}

func (o drawOp) execute() error {
	o.target.mu.Lock()
	defer o.target.mu.Unlock()
	o.target.draws++
	if o.call.Record != nil {
		o.call.Record(&Pass{Target: o.target.img, Call: o.call})
	}
	return nil
}

// Pass is handed to DrawCall.Record while the software GPU executes a draw.
// Target may be written directly.
type Pass struct {
	Target *image.RGBA
	Call   gpucore.DrawCall
}

// Image returns the render target as a drawable image.
func (p *Pass) Image() xdraw.Image { return p.Target }

type recorder struct {
	cb *CommandBuffer
}

func (r *recorder) target(t gpucore.RenderTarget) *BackBuffer {
	bb, ok := t.(*BackBuffer)
	if !ok && r.cb.err == nil {
		r.cb.err = fmt.Errorf("soft: record into %T: %w", t, ErrForeignObject)
	}
	return bb
}

func (r *recorder) ClearTarget(t gpucore.RenderTarget, c gputypes.Color) {
	if bb := r.target(t); bb != nil {
		r.cb.ops = append(r.cb.ops, clearOp{target: bb, color: toRGBA(c)})
	}
}

func (r *recorder) Draw(t gpucore.RenderTarget, call gpucore.DrawCall) {
	if bb := r.target(t); bb != nil {
		r.cb.ops = append(r.cb.ops, drawOp{target: bb, call: call})
	}
}

func toRGBA(c gputypes.Color) color.RGBA {
	return color.RGBA{
		R: unorm8(float64(c.R)),
		G: unorm8(float64(c.G)),
		B: unorm8(float64(c.B)),
		A: unorm8(float64(c.A)),
	}
}

func unorm8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}
