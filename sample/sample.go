// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package sample contains the tutorial renderers and the loop that drives
// them through the frame scheduler.
//
// Every sample keeps its per-frame data in a ring.Constants region indexed
// by the frame slot, so the CPU never writes constants the GPU may still
// be reading.
package sample

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/framepace/platform"
	"github.com/gogpu/framepace/scheduler"
)

// ErrUnknownSample is returned by New for a name that is not registered.
var ErrUnknownSample = errors.New("sample: unknown sample")

// Env is what a sample needs to create its resources.
type Env struct {
	Platform    *platform.Context
	BufferCount int
	Format      gputypes.TextureFormat
}

// Sample is a renderer driven by Run.
type Sample interface {
	Name() string

	// Init creates per-frame resources for env.BufferCount slots.
	Init(env Env) error

	// Update advances the simulation by dt.
	Update(dt time.Duration)

	// Render records the frame into f.Recorder. It may only touch the
	// per-frame resources of slot f.Index.
	Render(f *scheduler.Frame) error

	// Destroy releases the sample's resources. Run calls it after the
	// queue has drained.
	Destroy()
}

// KeyHandler is implemented by samples that react to key presses.
type KeyHandler interface {
	KeyDown(key gpucontext.Key, mods gpucontext.Modifiers)
}

var constructors = map[string]func() Sample{
	"cube":     func() Sample { return NewCube() },
	"blending": func() Sample { return NewBlending() },
	"normals":  func() Sample { return NewNormals() },
	"stencil":  func() Sample { return NewStencil() },
	"rain":     func() Sample { return NewRain() },
}

// Names returns the registered sample names in sorted order.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// New creates the sample registered under name.
func New(name string) (Sample, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (have %v)", ErrUnknownSample, name, Names())
	}
	return ctor(), nil
}
