// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sample

import (
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/framepace/internal/linear"
	"github.com/gogpu/framepace/scheduler"
)

// NormalLength is the length of the drawn normal lines in object units.
const NormalLength = 0.75

// Normals draws a cube lit by a directional light and, in a second draw,
// a line along each face normal.
//
// Constant layout: world-view-projection, world, light direction (xyz, 0)
// and for the line draw the line length in the last float.
type Normals struct {
	scene
	world linear.Mat4
	light linear.Vec3
}

// NewNormals creates the normals sample.
func NewNormals() *Normals {
	return &Normals{world: linear.Identity(), light: linear.V3(-0.5, 1, -1).Normalize()}
}

// Name returns "normals".
func (n *Normals) Name() string { return "normals" }

// Init allocates two slices per frame.
func (n *Normals) Init(env Env) error {
	return n.init(env, 2, 2*matrixFloats+4)
}

// Update spins the cube.
func (n *Normals) Update(dt time.Duration) {
	n.advance(dt)
	n.world = linear.RotationY(n.time).Multiply(linear.RotationZ(n.time * 0.3))
}

// Render records the lit cube and its normals.
func (n *Normals) Render(f *scheduler.Frame) error {
	if err := n.begin(f); err != nil {
		return err
	}
	world := n.world.Transpose().Floats()
	lit := append(world, n.light.X, n.light.Y, n.light.Z, 0)
	if err := n.write(f, 0, n.world, lit...); err != nil {
		return err
	}
	lines := append(n.world.Transpose().Floats(), 0, 0, 0, NormalLength)
	if err := n.write(f, 1, n.world, lines...); err != nil {
		return err
	}
	n.draw(f, 0, "lit-cube", cubeIndices, litCube)
	n.draw(f, 1, "normal-lines", uint32(2*len(cubeFaces)), normalLines)
	return nil
}

// Destroy releases the constant ring.
func (n *Normals) Destroy() { n.destroy() }

// lambert returns the diffuse term of face normal nrm under world and a
// light along light.
func lambert(world linear.Mat4, nrm, light linear.Vec3) float32 {
	wn := world.Transform(linear.V4(nrm.X, nrm.Y, nrm.Z, 0)).XYZ().Normalize()
	return max(0, wn.Dot(light))
}

func litCube(dst xdraw.Image, values []float32) {
	wvp := matrixAt(values, 0)
	world := matrixAt(values, matrixFloats)
	light := linear.V3(values[2*matrixFloats], values[2*matrixFloats+1], values[2*matrixFloats+2])
	base := colorF{0.8, 0.8, 0.8, 1}
	for _, nrm := range cubeFaces {
		shade := base.scale(0.2 + 0.8*lambert(world, nrm, light))
		// Sample the face on a 5x5 grid spanned by its two tangents.
		u := linear.V3(nrm.Y, nrm.Z, nrm.X)
		v := nrm.Cross(u)
		for i := range 5 {
			for j := range 5 {
				s, t := float32(i-2)/2, float32(j-2)/2
				p := nrm.Add(u.Scale(s)).Add(v.Scale(t))
				if pt, ok := project(dst.Bounds(), wvp, p); ok {
					dot(dst, pt, shade)
				}
			}
		}
	}
}

func normalLines(dst xdraw.Image, values []float32) {
	wvp := matrixAt(values, 0)
	length := values[2*matrixFloats+3]
	for _, nrm := range cubeFaces {
		segment(dst, wvp, nrm, nrm.Scale(1+length), colorF{1, 1, 0, 1})
	}
}
