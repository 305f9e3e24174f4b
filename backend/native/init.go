// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/framepace"
	"github.com/gogpu/framepace/backend"
	"github.com/gogpu/framepace/gpucore"
)

// init registers the native backend on package import.
func init() {
	backend.Register(backend.BackendNative, func() backend.Backend {
		return &Backend{}
	})
}

// Backend opens standalone HAL devices with an offscreen swap chain.
type Backend struct {
	// OnPresent, when set, receives every presented back buffer.
	OnPresent PresentFunc
}

// Name returns "native".
func (b *Backend) Name() string { return backend.BackendNative }

// Open opens a Vulkan device and cfg.BufferCount back buffers.
func (b *Backend) Open(cfg framepace.Config, width, height int) (gpucore.Device, gpucore.SwapChain, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if err := backend.ValidateSize(width, height); err != nil {
		return nil, nil, fmt.Errorf("native: %dx%d: %w", width, height, err)
	}
	dev, err := Open()
	if err != nil {
		return nil, nil, err
	}
	swap, err := NewSwapChain(dev, cfg.BufferCount, uint32(width), uint32(height), b.OnPresent)
	if err != nil {
		dev.Destroy()
		return nil, nil, err
	}
	return dev, swap, nil
}
