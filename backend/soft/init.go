// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import (
	"fmt"

	"github.com/gogpu/framepace"
	"github.com/gogpu/framepace/backend"
	"github.com/gogpu/framepace/gpucore"
)

// init registers the soft backend on package import.
func init() {
	backend.Register(backend.BackendSoft, func() backend.Backend {
		return New()
	})
}

// Backend opens software devices.
type Backend struct {
	opts []Option
}

// New creates a soft backend whose devices are configured with opts.
func New(opts ...Option) *Backend {
	return &Backend{opts: opts}
}

// Name returns "soft".
func (b *Backend) Name() string { return backend.BackendSoft }

// Open creates a device and a swap chain with cfg.BufferCount back buffers.
func (b *Backend) Open(cfg framepace.Config, width, height int) (gpucore.Device, gpucore.SwapChain, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if err := backend.ValidateSize(width, height); err != nil {
		return nil, nil, fmt.Errorf("soft: %dx%d: %w", width, height, err)
	}
	dev := NewDevice(b.opts...)
	swap, err := NewSwapChain(dev, cfg.BufferCount, width, height)
	if err != nil {
		dev.Destroy()
		return nil, nil, fmt.Errorf("soft: swap chain: %w: %w", framepace.ErrResourceCreationFailed, err)
	}
	return dev, swap, nil
}
