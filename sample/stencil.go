// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sample

import (
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/framepace/internal/linear"
	"github.com/gogpu/framepace/scheduler"
)

// Planes of the stencil scene, as (normal, d) with n·p + d = 0.
var (
	floorPlane  = linear.V4(0, 1, 0, 0)
	mirrorPlane = linear.V4(0, 0, -1, 3)
)

// shadowOffset lifts the shadow off the floor to avoid depth fighting.
const shadowOffset = 0.001

var (
	floorQuad = [4]linear.Vec3{
		{X: -4, Y: 0, Z: -4}, {X: -4, Y: 0, Z: 3}, {X: 4, Y: 0, Z: 3}, {X: 4, Y: 0, Z: -4},
	}
	mirrorQuad = [4]linear.Vec3{
		{X: -2.5, Y: 0, Z: 3}, {X: -2.5, Y: 3, Z: 3}, {X: 2.5, Y: 3, Z: 3}, {X: 2.5, Y: 0, Z: 3},
	}
)

// Stencil draws a cube standing on a floor in front of a mirror, its
// reflection in the mirror and its planar shadow on the floor.
//
// Draw order: floor, mirror, cube, reflected cube, shadow. Every draw
// carries a world-view-projection and an RGBA color.
type Stencil struct {
	scene
	world linear.Mat4
	light linear.Vec4
}

// Draw slots of the stencil scene.
const (
	stencilFloor = iota
	stencilMirror
	stencilCube
	stencilReflection
	stencilShadow
	stencilDraws
)

// NewStencil creates the stencil sample.
func NewStencil() *Stencil {
	s := &Stencil{
		world: linear.Identity(),
		light: linear.V4(0.57735, 0.57735, 0.57735, 0),
	}
	s.eye = linear.V3(-3, 4, -7)
	s.at = linear.V3(0, 1, 1)
	return s
}

// Name returns "stencil".
func (s *Stencil) Name() string { return "stencil" }

// Init allocates one slice per draw and frame.
func (s *Stencil) Init(env Env) error {
	return s.init(env, stencilDraws, matrixFloats+4)
}

// Update rotates the cube above the floor.
func (s *Stencil) Update(dt time.Duration) {
	s.advance(dt)
	s.world = linear.Scaling(0.5, 0.5, 0.5).
		Multiply(linear.RotationY(s.time)).
		Multiply(linear.Translation(0, 1, 0.5))
}

// Reflection returns the world matrix of the mirrored cube.
func (s *Stencil) Reflection() linear.Mat4 {
	return s.world.Multiply(linear.Reflect(mirrorPlane))
}

// Shadow returns the world matrix of the cube flattened onto the floor.
func (s *Stencil) Shadow() linear.Mat4 {
	return s.world.
		Multiply(linear.Shadow(floorPlane, s.light)).
		Multiply(linear.Translation(0, shadowOffset, 0))
}

// Render records the five draws of the scene.
func (s *Stencil) Render(f *scheduler.Frame) error {
	if err := s.begin(f); err != nil {
		return err
	}
	draws := [stencilDraws]struct {
		world linear.Mat4
		color colorF
		label string
		count uint32
		plot  plotFunc
	}{
		stencilFloor:      {linear.Identity(), colorF{0.5, 0.5, 0.5, 1}, "floor", 6, quad(floorQuad)},
		stencilMirror:     {linear.Identity(), colorF{0.7, 0.8, 1, 0.3}, "mirror", 6, quad(mirrorQuad)},
		stencilCube:       {s.world, colorF{1, 0.8, 0.2, 1}, "cube", cubeIndices, wireCube(colorF{}, matrixFloats)},
		stencilReflection: {s.Reflection(), colorF{1, 0.8, 0.2, 0.5}, "reflection", cubeIndices, wireCube(colorF{}, matrixFloats)},
		stencilShadow:     {s.Shadow(), colorF{0, 0, 0, 0.5}, "shadow", cubeIndices, wireCube(colorF{}, matrixFloats)},
	}
	for i, d := range draws {
		if err := s.write(f, i, d.world, d.color[:]...); err != nil {
			return err
		}
	}
	for i, d := range draws {
		s.draw(f, i, d.label, d.count, d.plot)
	}
	return nil
}

// Destroy releases the constant ring.
func (s *Stencil) Destroy() { s.destroy() }

func quad(corners [4]linear.Vec3) plotFunc {
	return func(dst xdraw.Image, values []float32) {
		wvp := matrixAt(values, 0)
		c := colorAt(values, matrixFloats)
		for i := range corners {
			segment(dst, wvp, corners[i], corners[(i+1)%len(corners)], c)
		}
	}
}
