// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sample

import (
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/framepace/internal/linear"
	"github.com/gogpu/framepace/scheduler"
)

// cubeIndices is the index count of a cube drawn as 12 triangles.
const cubeIndices = 36

var cubeCorners = [8]linear.Vec3{
	{X: -1, Y: -1, Z: -1}, {X: -1, Y: 1, Z: -1}, {X: 1, Y: 1, Z: -1}, {X: 1, Y: -1, Z: -1},
	{X: -1, Y: -1, Z: 1}, {X: -1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 1, Y: -1, Z: 1},
}

var cubeEdges = [12][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// cubeFaces holds the outward normal of each face; the face center is
// the normal itself on the unit cube.
var cubeFaces = [6]linear.Vec3{
	{X: 0, Y: 0, Z: -1}, {X: 0, Y: 0, Z: 1},
	{X: -1, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0},
	{X: 0, Y: 1, Z: 0}, {X: 0, Y: -1, Z: 0},
}

// wireCube plots the cube edges with the matrix at offset 0 and the
// color at offset colorOffset, or c when colorOffset is negative.
func wireCube(c colorF, colorOffset int) plotFunc {
	return func(dst xdraw.Image, values []float32) {
		wvp := matrixAt(values, 0)
		col := c
		if colorOffset >= 0 {
			col = colorAt(values, colorOffset)
		}
		for _, e := range cubeEdges {
			segment(dst, wvp, cubeCorners[e[0]], cubeCorners[e[1]], col)
		}
	}
}

// Cube is a rotating cube whose world-view-projection lives in the
// constant ring.
type Cube struct {
	scene
	world linear.Mat4
}

// NewCube creates the cube sample.
func NewCube() *Cube { return &Cube{world: linear.Identity()} }

// Name returns "cube".
func (c *Cube) Name() string { return "cube" }

// Init allocates one constant slice per frame.
func (c *Cube) Init(env Env) error {
	return c.init(env, 1, matrixFloats)
}

// Update spins the cube.
func (c *Cube) Update(dt time.Duration) {
	c.advance(dt)
	c.world = linear.RotationX(c.time * 0.5).Multiply(linear.RotationY(c.time))
}

// Render records a clear and the cube.
func (c *Cube) Render(f *scheduler.Frame) error {
	if err := c.begin(f); err != nil {
		return err
	}
	if err := c.write(f, 0, c.world); err != nil {
		return err
	}
	c.draw(f, 0, "cube", cubeIndices, wireCube(colorF{1, 1, 1, 1}, -1))
	return nil
}

// Destroy releases the constant ring.
func (c *Cube) Destroy() { c.destroy() }
