// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package native runs the frame pacing core on a gogpu/wgpu HAL device.
//
// Fences are timelines over the queue's submission indices. Each frame
// slot's allocator is a HAL command encoder, and the swap chain is a ring
// of offscreen render targets. A device can be opened standalone (Vulkan)
// or borrowed from a host through gpucontext.DeviceProvider:
//
//	dev, err := native.FromProvider(provider)
//
// Importing the package registers the "native" backend. Build with the
// nogpu tag to exclude it.
package native
