// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package backend provides a pluggable GPU backend abstraction.
//
// A backend opens a [gpucore.Device] and a [gpucore.SwapChain]; the frame
// scheduler is written against those interfaces only.
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime:
//
//	import (
//		_ "github.com/gogpu/framepace/backend/native"
//		_ "github.com/gogpu/framepace/backend/soft"
//	)
//
// # Backend Selection
//
// Use Default() to get the best available backend, or Get() to request
// a specific backend by name. OpenDefault tries backends in priority order
// and falls back when a backend fails to open (for example native on a
// machine without a Vulkan driver):
//
//	b, dev, swap, err := backend.OpenDefault(cfg, 1280, 720)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Destroy()
//	defer swap.Destroy()
//
// # Available Backends
//
// - "native": gogpu/wgpu HAL device with an offscreen swap chain
// - "soft": software GPU executing command buffers on a goroutine (always available)
package backend
