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

// BackBuffer is an offscreen render target: a texture and its view.
type BackBuffer struct {
	index  int
	tex    hal.Texture
	view   hal.TextureView
	size   hal.Extent3D
	format gputypes.TextureFormat
}

// Index returns the back-buffer index.
func (b *BackBuffer) Index() int { return b.index }

// Format returns the texture format.
func (b *BackBuffer) Format() gputypes.TextureFormat { return b.format }

// Size returns the texture extent.
func (b *BackBuffer) Size() gputypes.Extent3D {
	return gputypes.Extent3D{Width: b.size.Width, Height: b.size.Height, DepthOrArrayLayers: 1}
}

// Texture returns the HAL texture.
func (b *BackBuffer) Texture() hal.Texture { return b.tex }

// View returns the HAL texture view.
func (b *BackBuffer) View() hal.TextureView { return b.view }

// PresentFunc hands a finished back buffer to the host, typically to blit
// it onto a window surface.
type PresentFunc func(b *BackBuffer) error

// SwapChain is a ring of offscreen back buffers. Present calls the
// optional present hook and flips to the next buffer.
type SwapChain struct {
	gpu       gpuDevice
	buffers   []*BackBuffer
	current   int
	onPresent PresentFunc
	presents  uint64
}

// NewSwapChain creates n back buffers of width x height pixels in the
// device's format.
func NewSwapChain(d *Device, n int, width, height uint32, onPresent PresentFunc) (*SwapChain, error) {
	if n < framepace.MinBufferCount || n > framepace.MaxBufferCount {
		return nil, framepace.ErrInvalidFrameIndex
	}
	s := &SwapChain{
		gpu:       d.gpu,
		buffers:   make([]*BackBuffer, 0, n),
		onPresent: onPresent,
	}
	size := hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1}
	for i := range n {
		tex, view, err := d.gpu.CreateTarget(fmt.Sprintf("backbuffer_%d", i), size, d.format)
		if err != nil {
			s.Destroy()
			return nil, fmt.Errorf("native: back buffer %d: %w: %w", i, framepace.ErrResourceCreationFailed, err)
		}
		s.buffers = append(s.buffers, &BackBuffer{
			index:  i,
			tex:    tex,
			view:   view,
			size:   size,
			format: d.format,
		})
	}
	return s, nil
}

// BufferCount returns the number of back buffers.
func (s *SwapChain) BufferCount() int { return len(s.buffers) }

// CurrentBackBufferIndex returns the buffer the next frame renders into.
func (s *SwapChain) CurrentBackBufferIndex() int { return s.current }

// BackBuffer returns back buffer i.
func (s *SwapChain) BackBuffer(i int) gpucore.RenderTarget { return s.buffers[i] }

// Presents returns the number of Present calls.
func (s *SwapChain) Presents() uint64 { return s.presents }

// Present hands the current buffer to the present hook and flips. The
// buffer flips even when the hook fails.
func (s *SwapChain) Present() error {
	b := s.buffers[s.current]
	s.current = (s.current + 1) % len(s.buffers)
	s.presents++
	if s.onPresent == nil {
		return nil
	}
	if err := s.onPresent(b); err != nil {
		return fmt.Errorf("native: present %d: %w", b.index, err)
	}
	return nil
}

// Destroy releases the back buffers. The queue must be drained first.
func (s *SwapChain) Destroy() {
	for _, b := range s.buffers {
		s.gpu.DestroyTarget(b.tex, b.view)
	}
	s.buffers = nil
}
