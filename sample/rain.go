// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sample

import (
	"math/rand/v2"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/framepace/internal/linear"
	"github.com/gogpu/framepace/scheduler"
)

// Rain field parameters.
const (
	DefaultRainDrops = 1000

	rainArea   = 10 // drops spawn in [-rainArea, rainArea] on x and z
	rainHeight = 20
	rainSpeed  = 10
)

type drop struct {
	pos, vel linear.Vec3
}

// Rain simulates a particle field the way a stream-out pass does: each
// step reads one particle buffer and writes the other, then the two swap.
//
// The positions drawn by a frame are copied into that frame's snapshot,
// which is only rewritten once the slot is reused.
type Rain struct {
	scene
	rng *rand.Rand

	buffers   [2][]drop
	src       int
	snapshots [][]linear.Vec3
	dt        float32
}

// NewRain creates a rain field of DefaultRainDrops drops.
func NewRain() *Rain { return NewRainSeeded(DefaultRainDrops, 1) }

// NewRainSeeded creates a rain field of n drops from a fixed seed.
func NewRainSeeded(n int, seed uint64) *Rain {
	r := &Rain{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
	r.eye = linear.V3(0, 8, -25)
	r.at = linear.V3(0, 6, 0)
	r.buffers[0] = make([]drop, n)
	r.buffers[1] = make([]drop, n)
	for i := range r.buffers[0] {
		r.buffers[0][i] = r.spawn(r.rng.Float32() * rainHeight)
	}
	return r
}

func (r *Rain) spawn(height float32) drop {
	return drop{
		pos: linear.V3((r.rng.Float32()*2-1)*rainArea, height, (r.rng.Float32()*2-1)*rainArea),
		vel: linear.V3(0, -rainSpeed*(0.8+0.4*r.rng.Float32()), 0),
	}
}

// Name returns "rain".
func (r *Rain) Name() string { return "rain" }

// Init allocates the constant ring and one position snapshot per frame.
// Constants: world-view-projection, delta time, camera position.
func (r *Rain) Init(env Env) error {
	if err := r.init(env, 1, matrixFloats+4); err != nil {
		return err
	}
	r.snapshots = make([][]linear.Vec3, env.BufferCount)
	for i := range r.snapshots {
		r.snapshots[i] = make([]linear.Vec3, len(r.buffers[0]))
	}
	return nil
}

// Drops returns the current particle positions.
func (r *Rain) Drops() []linear.Vec3 {
	out := make([]linear.Vec3, len(r.buffers[r.src]))
	for i, d := range r.buffers[r.src] {
		out[i] = d.pos
	}
	return out
}

// Update advances every drop by dt, respawning those that hit the ground.
func (r *Rain) Update(dt time.Duration) {
	r.dt = r.advance(dt)
	if r.dt == 0 {
		return
	}
	in, out := r.buffers[r.src], r.buffers[1-r.src]
	for i, d := range in {
		d.pos = d.pos.Add(d.vel.Scale(r.dt))
		if d.pos.Y < 0 {
			d = r.spawn(rainHeight)
		}
		out[i] = d
	}
	r.src = 1 - r.src
}

// Render copies the field into the frame's snapshot and draws it.
func (r *Rain) Render(f *scheduler.Frame) error {
	if err := r.begin(f); err != nil {
		return err
	}
	if f.Index >= len(r.snapshots) {
		return ErrNotInitialized
	}
	snap := r.snapshots[f.Index]
	for i, d := range r.buffers[r.src] {
		snap[i] = d.pos
	}
	if err := r.write(f, 0, linear.Identity(), r.dt, r.eye.X, r.eye.Y, r.eye.Z); err != nil {
		return err
	}
	r.draw(f, 0, "rain", uint32(len(snap)), func(dst xdraw.Image, values []float32) {
		wvp := matrixAt(values, 0)
		streak := max(values[matrixFloats]*rainSpeed, 0.2)
		c := colorF{0.8, 0.85, 1, 0.6}
		for _, p := range snap {
			for _, q := range [2]linear.Vec3{p, p.Add(linear.V3(0, streak, 0))} {
				if pt, ok := project(dst.Bounds(), wvp, q); ok {
					dot(dst, pt, c)
				}
			}
		}
	})
	return nil
}

// Destroy releases the constant ring and snapshots.
func (r *Rain) Destroy() {
	r.destroy()
	r.snapshots = nil
}
