// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sample

import (
	"errors"
	"image"
	"image/color"
	"math"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/framepace/gpucore"
	"github.com/gogpu/framepace/internal/linear"
	"github.com/gogpu/framepace/ring"
	"github.com/gogpu/framepace/scheduler"
)

// ErrNotInitialized is returned by Render before Init succeeded.
var ErrNotInitialized = errors.New("sample: not initialized")

// matrixFloats is the size of one matrix in a constant slice.
const matrixFloats = 16

var clearColor = colorF{0.39, 0.58, 0.93, 1}

// colorF is a linear RGBA color.
type colorF [4]float32

// canvas is implemented by render passes that expose their target as an
// image. Other passes ignore the sample's plot.
type canvas interface {
	Image() xdraw.Image
}

// plotFunc draws one call from the constants it recorded.
type plotFunc func(dst xdraw.Image, constants []float32)

// scene is the state shared by every sample: the constant ring, the
// camera and the animation clock.
type scene struct {
	env    Env
	consts *ring.Constants
	floats int

	eye, at    linear.Vec3
	view, proj linear.Mat4

	paused bool
	time   float32
}

func (s *scene) init(env Env, drawsPerFrame, floats int) error {
	c, err := ring.NewConstants(env.BufferCount, drawsPerFrame, floats*4)
	if err != nil {
		return err
	}
	s.env = env
	s.consts = c
	s.floats = floats
	if s.eye == (linear.Vec3{}) {
		s.eye = linear.V3(0, 3, -8)
	}
	s.view = linear.LookAtLH(s.eye, s.at, linear.V3(0, 1, 0))
	s.updateProjection()
	return nil
}

func (s *scene) updateProjection() {
	aspect := float32(1)
	if s.env.Platform != nil {
		aspect = s.env.Platform.AspectRatio()
	}
	s.proj = linear.PerspectiveFovLH(math.Pi/4, aspect, 1, 1000)
}

// advance moves the clock unless paused and returns the elapsed step.
func (s *scene) advance(dt time.Duration) float32 {
	s.updateProjection()
	if s.paused {
		return 0
	}
	step := float32(dt.Seconds())
	s.time += step
	return step
}

// KeyDown toggles the animation on Space.
func (s *scene) KeyDown(key gpucontext.Key, _ gpucontext.Modifiers) {
	if key == gpucontext.KeySpace {
		s.paused = !s.paused
	}
}

// Paused reports whether the animation is stopped.
func (s *scene) Paused() bool { return s.paused }

// Constants returns the sample's constant ring.
func (s *scene) Constants() *ring.Constants { return s.consts }

func (s *scene) viewProj() linear.Mat4 { return s.view.Multiply(s.proj) }

// write stores the transposed world-view-projection of world followed by
// extra into the slice of draw in frame f.
func (s *scene) write(f *scheduler.Frame, draw int, world linear.Mat4, extra ...float32) error {
	values := append(world.Multiply(s.viewProj()).Transpose().Floats(), extra...)
	return s.consts.Write(f.Index, draw, values...)
}

func (s *scene) begin(f *scheduler.Frame) error {
	if s.consts == nil {
		return ErrNotInitialized
	}
	f.Recorder.ClearTarget(f.Slot.Target, clearColor.gpu())
	return nil
}

// draw records a draw that reads the slice of draw in frame f. When the
// pass is a canvas the constants are read back on execution and handed
// to plot.
func (s *scene) draw(f *scheduler.Frame, draw int, label string, vertices uint32, plot plotFunc) {
	consts, frame, n := s.consts, f.Index, s.floats
	f.Recorder.Draw(f.Slot.Target, gpucore.DrawCall{
		Label:         label,
		VertexCount:   vertices,
		InstanceCount: 1,
		ConstantIndex: consts.Index(frame, draw),
		Record: func(pass any) {
			c, ok := pass.(canvas)
			if !ok || plot == nil {
				return
			}
			values, err := consts.Read(frame, draw, n)
			if err != nil {
				return
			}
			plot(c.Image(), values)
		},
	})
}

func (s *scene) destroy() {
	s.consts = nil
}

// matrixAt undoes the transpose applied by write.
func matrixAt(values []float32, offset int) linear.Mat4 {
	var m linear.Mat4
	for i := range 4 {
		for j := range 4 {
			m[j][i] = values[offset+i*4+j]
		}
	}
	return m
}

func colorAt(values []float32, offset int) colorF {
	return colorF{values[offset], values[offset+1], values[offset+2], values[offset+3]}
}

// project maps p through wvp to pixel coordinates of bounds. Points
// behind the camera or outside the depth range are rejected.
func project(bounds image.Rectangle, wvp linear.Mat4, p linear.Vec3) (image.Point, bool) {
	clip := wvp.Transform(p.Point())
	if clip.W <= 0 {
		return image.Point{}, false
	}
	ndc := clip.Project()
	if ndc.Z < 0 || ndc.Z > 1 {
		return image.Point{}, false
	}
	x := (ndc.X + 1) / 2 * float32(bounds.Dx())
	y := (1 - ndc.Y) / 2 * float32(bounds.Dy())
	return image.Pt(bounds.Min.X+int(x), bounds.Min.Y+int(y)), true
}

// dot blends a 2x2 block of c over dst.
func dot(dst xdraw.Image, pt image.Point, c colorF) {
	r := image.Rect(pt.X, pt.Y, pt.X+2, pt.Y+2).Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	xdraw.Draw(dst, r, image.NewUniform(c.nrgba()), image.Point{}, xdraw.Over)
}

// segment plots a dotted line from a to b in object space.
func segment(dst xdraw.Image, wvp linear.Mat4, a, b linear.Vec3, c colorF) {
	const steps = 16
	for i := range steps + 1 {
		t := float32(i) / steps
		p := a.Add(b.Sub(a).Scale(t))
		if pt, ok := project(dst.Bounds(), wvp, p); ok {
			dot(dst, pt, c)
		}
	}
}

func (c colorF) gpu() gputypes.Color {
	return gputypes.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: float64(c[3])}
}

func (c colorF) nrgba() color.NRGBA {
	return color.NRGBA{R: unorm(c[0]), G: unorm(c[1]), B: unorm(c[2]), A: unorm(c[3])}
}

func (c colorF) scale(k float32) colorF {
	return colorF{c[0] * k, c[1] * k, c[2] * k, c[3]}
}

func unorm(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}
