// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"

	"github.com/gogpu/framepace"
	"github.com/gogpu/framepace/gpucore"
)

// Backend name constants.
const (
	// BackendSoft is the name of the goroutine-driven software GPU.
	BackendSoft = "soft"
	// BackendNative is the name of the Pure Go GPU backend (gogpu/wgpu HAL).
	BackendNative = "native"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrInvalidSize is returned for a non-positive back-buffer size.
	ErrInvalidSize = errors.New("backend: invalid back buffer size")
)

// Backend opens a device and a swap chain.
//
// Backends must be registered via Register() and are selected via
// Get() or Default().
type Backend interface {
	// Name returns the backend identifier (e.g., "soft", "native").
	Name() string

	// Open creates a device and a swap chain with cfg.BufferCount back
	// buffers of width x height pixels. The caller destroys the swap chain
	// and then the device, after draining.
	Open(cfg framepace.Config, width, height int) (gpucore.Device, gpucore.SwapChain, error)
}

// ValidateSize checks a back-buffer size.
func ValidateSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return ErrInvalidSize
	}
	return nil
}
