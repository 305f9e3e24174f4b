// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sample

import (
	"time"

	"github.com/gogpu/framepace/internal/linear"
	"github.com/gogpu/framepace/scheduler"
)

// BlendAlpha is the opacity of the translucent cube.
const BlendAlpha = 0.5

// Blending draws an opaque cube and then a translucent one over it. Each
// draw carries its color, alpha included, in its constant slice.
type Blending struct {
	scene
	opaque, translucent linear.Mat4
}

// NewBlending creates the blending sample.
func NewBlending() *Blending {
	return &Blending{opaque: linear.Identity(), translucent: linear.Identity()}
}

// Name returns "blending".
func (b *Blending) Name() string { return "blending" }

// Init allocates two slices per frame: matrix and RGBA.
func (b *Blending) Init(env Env) error {
	return b.init(env, 2, matrixFloats+4)
}

// Update turns the cubes in opposite directions.
func (b *Blending) Update(dt time.Duration) {
	b.advance(dt)
	b.opaque = linear.RotationY(b.time).Multiply(linear.Translation(-1.5, 0, 0))
	b.translucent = linear.RotationY(-b.time).Multiply(linear.Translation(1.5, 0, 0.5))
}

// Render draws the opaque cube first so the translucent one blends over it.
func (b *Blending) Render(f *scheduler.Frame) error {
	if err := b.begin(f); err != nil {
		return err
	}
	if err := b.write(f, 0, b.opaque, 0.9, 0.3, 0.2, 1); err != nil {
		return err
	}
	if err := b.write(f, 1, b.translucent, 0.2, 0.9, 0.3, BlendAlpha); err != nil {
		return err
	}
	b.draw(f, 0, "opaque", cubeIndices, wireCube(colorF{}, matrixFloats))
	b.draw(f, 1, "translucent", cubeIndices, wireCube(colorF{}, matrixFloats))
	return nil
}

// Destroy releases the constant ring.
func (b *Blending) Destroy() { b.destroy() }
