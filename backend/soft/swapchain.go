// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import (
	"image"
	"image/color"
	"sync"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framepace"
	"github.com/gogpu/framepace/gpucore"
)

// BackBuffer is an RGBA render target owned by a SwapChain.
type BackBuffer struct {
	index int

	mu    sync.Mutex // held by the worker while it writes img
	img   *image.RGBA
	draws int
}

// Index returns the back-buffer index.
func (b *BackBuffer) Index() int { return b.index }

// Format returns gputypes.TextureFormatRGBA8Unorm.
func (b *BackBuffer) Format() gputypes.TextureFormat { return gputypes.TextureFormatRGBA8Unorm }

// Size returns the buffer extent.
func (b *BackBuffer) Size() gputypes.Extent3D {
	r := b.img.Bounds()
	return gputypes.Extent3D{Width: uint32(r.Dx()), Height: uint32(r.Dy()), DepthOrArrayLayers: 1}
}

// Draws returns the number of draws executed against the buffer.
func (b *BackBuffer) Draws() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.draws
}

// At returns the color of one pixel.
func (b *BackBuffer) At(x, y int) color.RGBA {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.img.RGBAAt(x, y)
}

func (b *BackBuffer) fill(c color.RGBA) {
	b.mu.Lock()
	defer b.mu.Unlock()
	xdraw.Draw(b.img, b.img.Bounds(), image.NewUniform(c), image.Point{}, xdraw.Src)
}

type presentOp struct {
	swap *SwapChain
	src  *BackBuffer
}

func (o *presentOp) execute() {
	o.src.mu.Lock()
	defer o.src.mu.Unlock()
	o.swap.frontMu.Lock()
	defer o.swap.frontMu.Unlock()
	xdraw.Copy(o.swap.front, image.Point{}, o.src.img, o.src.img.Bounds(), xdraw.Src, nil)
	o.swap.presented = o.src.index
	o.swap.presents++
}

// SwapChain is a flip-model presentation engine over RGBA back buffers.
// Presents execute on the device queue, after the frame's command buffers.
type SwapChain struct {
	dev     *Device
	buffers []*BackBuffer
	current int

	frontMu   sync.Mutex
	front     *image.RGBA
	presented int
	presents  uint64
}

// NewSwapChain creates n back buffers of width x height pixels on dev.
func NewSwapChain(dev *Device, n, width, height int) (*SwapChain, error) {
	if n < framepace.MinBufferCount || n > framepace.MaxBufferCount {
		return nil, framepace.ErrInvalidFrameIndex
	}
	s := &SwapChain{
		dev:       dev,
		buffers:   make([]*BackBuffer, n),
		front:     image.NewRGBA(image.Rect(0, 0, width, height)),
		presented: -1,
	}
	for i := range s.buffers {
		s.buffers[i] = &BackBuffer{
			index: i,
			img:   image.NewRGBA(image.Rect(0, 0, width, height)),
		}
	}
	return s, nil
}

// BufferCount returns the number of back buffers.
func (s *SwapChain) BufferCount() int { return len(s.buffers) }

// CurrentBackBufferIndex returns the buffer the next frame renders into.
func (s *SwapChain) CurrentBackBufferIndex() int { return s.current }

// BackBuffer returns back buffer i.
func (s *SwapChain) BackBuffer(i int) gpucore.RenderTarget { return s.buffers[i] }

// Buffer returns back buffer i with its concrete type.
func (s *SwapChain) Buffer(i int) *BackBuffer { return s.buffers[i] }

// Present queues the current back buffer for display and flips to the next.
func (s *SwapChain) Present() error {
	if err := s.dev.enqueue(submission{present: &presentOp{swap: s, src: s.buffers[s.current]}}); err != nil {
		return err
	}
	s.current = (s.current + 1) % len(s.buffers)
	return nil
}

// Presented returns the index of the last buffer presented by the GPU and
// the number of presents executed. The index is -1 before the first.
func (s *SwapChain) Presented() (index int, count uint64) {
	s.frontMu.Lock()
	defer s.frontMu.Unlock()
	return s.presented, s.presents
}

// Front returns a copy of the last presented image.
func (s *SwapChain) Front() *image.RGBA {
	s.frontMu.Lock()
	defer s.frontMu.Unlock()
	out := image.NewRGBA(s.front.Bounds())
	copy(out.Pix, s.front.Pix)
	return out
}

// Destroy releases the back buffers.
func (s *SwapChain) Destroy() {
	s.buffers = nil
}
