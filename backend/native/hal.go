// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framepace/gpucore"
)

// gpuDevice is the subset of hal.Device the backend uses. halDevice adapts
// a real device; tests substitute a fake.
type gpuDevice interface {
	CreateEncoder(label string) (encoder, error)
	FreeCommandBuffer(cb hal.CommandBuffer)
	CreateTarget(label string, size hal.Extent3D, format gputypes.TextureFormat) (hal.Texture, hal.TextureView, error)
	DestroyTarget(tex hal.Texture, view hal.TextureView)
	Destroy()
}

// gpuQueue is the subset of hal.Queue the backend uses. Submit returns a
// monotonically increasing submission index; PollCompleted returns the
// highest index the GPU has finished.
type gpuQueue interface {
	Submit(buffers []hal.CommandBuffer) (uint64, error)
	PollCompleted() uint64
}

// encoder records one command buffer.
type encoder interface {
	Begin(label string) error
	Clear(view hal.TextureView, c gputypes.Color)
	Draw(view hal.TextureView, call gpucore.DrawCall)
	End() (hal.CommandBuffer, error)
	Discard()
}

type halDevice struct {
	dev hal.Device
}

func (d halDevice) CreateEncoder(label string) (encoder, error) {
	enc, err := d.dev.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, err
	}
	return &halEncoder{enc: enc, label: label}, nil
}

func (d halDevice) FreeCommandBuffer(cb hal.CommandBuffer) { d.dev.FreeCommandBuffer(cb) }

func (d halDevice) CreateTarget(label string, size hal.Extent3D, format gputypes.TextureFormat) (hal.Texture, hal.TextureView, error) {
	tex, err := d.dev.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, nil, err
	}
	view, err := d.dev.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: label + "_view"})
	if err != nil {
		d.dev.DestroyTexture(tex)
		return nil, nil, err
	}
	return tex, view, nil
}

func (d halDevice) DestroyTarget(tex hal.Texture, view hal.TextureView) {
	if view != nil {
		d.dev.DestroyTextureView(view)
	}
	if tex != nil {
		d.dev.DestroyTexture(tex)
	}
}

func (d halDevice) Destroy() { d.dev.Destroy() }

type halQueue struct {
	q hal.Queue
}

func (q halQueue) Submit(buffers []hal.CommandBuffer) (uint64, error) {
	return q.q.Submit(buffers)
}

func (q halQueue) PollCompleted() uint64 { return q.q.PollCompleted() }

// halEncoder records into a hal.CommandEncoder. Every clear and draw is its
// own render pass over the target view.
type halEncoder struct {
	enc   hal.CommandEncoder
	label string
}

func (e *halEncoder) Begin(label string) error { return e.enc.BeginEncoding(label) }

func (e *halEncoder) Clear(view hal.TextureView, c gputypes.Color) {
	rp := e.enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: e.label + "_clear",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: c,
		}},
	})
	rp.End()
}

func (e *halEncoder) Draw(view hal.TextureView, call gpucore.DrawCall) {
	rp := e.enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: e.label + "_" + call.Label,
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:    view,
			LoadOp:  gputypes.LoadOpLoad,
			StoreOp: gputypes.StoreOpStore,
		}},
	})
	// Pipelines belong to the caller; without Record there is nothing bound
	// to draw with.
	if call.Record != nil {
		call.Record(rp)
	}
	rp.End()
}

func (e *halEncoder) End() (hal.CommandBuffer, error) { return e.enc.EndEncoding() }

func (e *halEncoder) Discard() { e.enc.DiscardEncoding() }
