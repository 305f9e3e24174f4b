// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ring

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/framepace"
)

// ConstantAlignment is the required alignment of a constant-buffer view.
const ConstantAlignment = 256

// AlignConstant rounds size up to ConstantAlignment.
func AlignConstant(size int) int {
	return (size + ConstantAlignment - 1) &^ (ConstantAlignment - 1)
}

// Constants is a caller-owned, persistently mapped constant buffer split
// into one region per frame slot. Each region holds drawsPerFrame aligned
// slices, so the CPU only ever writes the region of the frame it is
// recording while the GPU reads the others.
type Constants struct {
	data          []byte
	stride        int
	drawsPerFrame int
	frames        int
}

// NewConstants allocates a constant ring for frames slots, each holding
// drawsPerFrame slices of at least size bytes.
func NewConstants(frames, drawsPerFrame, size int) (*Constants, error) {
	if frames < framepace.MinBufferCount || frames > framepace.MaxBufferCount {
		return nil, fmt.Errorf("ring: constants for %d frames: %w", frames, framepace.ErrInvalidFrameIndex)
	}
	if drawsPerFrame < 1 || size < 1 {
		return nil, fmt.Errorf("ring: constants %d draws of %d bytes: %w",
			drawsPerFrame, size, framepace.ErrResourceCreationFailed)
	}
	stride := AlignConstant(size)
	return &Constants{
		data:          make([]byte, stride*drawsPerFrame*frames),
		stride:        stride,
		drawsPerFrame: drawsPerFrame,
		frames:        frames,
	}, nil
}

// Stride returns the aligned size of one slice.
func (c *Constants) Stride() int { return c.stride }

// DrawsPerFrame returns the number of slices per frame region.
func (c *Constants) DrawsPerFrame() int { return c.drawsPerFrame }

// Bytes returns the whole mapped buffer.
func (c *Constants) Bytes() []byte { return c.data }

// Index returns the slice index for draw in frameIndex.
func (c *Constants) Index(frameIndex, draw int) int {
	return c.drawsPerFrame*(frameIndex%c.frames) + draw
}

// Offset returns the byte offset of slice index.
func (c *Constants) Offset(index int) int { return index * c.stride }

// Slice returns the aligned slice for draw in frameIndex.
func (c *Constants) Slice(frameIndex, draw int) ([]byte, error) {
	if frameIndex < 0 {
		return nil, fmt.Errorf("ring: constants frame %d: %w", frameIndex, framepace.ErrInvalidFrameIndex)
	}
	if draw < 0 || draw >= c.drawsPerFrame {
		return nil, fmt.Errorf("ring: constants draw %d of %d: %w", draw, c.drawsPerFrame, framepace.ErrInvalidFrameIndex)
	}
	off := c.Offset(c.Index(frameIndex, draw))
	return c.data[off : off+c.stride : off+c.stride], nil
}

// Write stores values as little-endian float32 at the start of the slice
// for draw in frameIndex.
func (c *Constants) Write(frameIndex, draw int, values ...float32) error {
	s, err := c.Slice(frameIndex, draw)
	if err != nil {
		return err
	}
	if len(values)*4 > len(s) {
		return fmt.Errorf("ring: %d floats exceed %d-byte slice: %w", len(values), len(s), framepace.ErrInvalidState)
	}
	for i, v := range values {
		binary.LittleEndian.PutUint32(s[i*4:], math.Float32bits(v))
	}
	return nil
}

// Read returns the first n float32 values of the slice for draw in frameIndex.
func (c *Constants) Read(frameIndex, draw, n int) ([]float32, error) {
	s, err := c.Slice(frameIndex, draw)
	if err != nil {
		return nil, err
	}
	if n*4 > len(s) {
		return nil, fmt.Errorf("ring: %d floats exceed %d-byte slice: %w", n, len(s), framepace.ErrInvalidState)
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(s[i*4:]))
	}
	return out, nil
}
