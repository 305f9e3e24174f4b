// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import "errors"

// Native backend errors.
var (
	// ErrNoGPU is returned when no GPU adapter is available.
	ErrNoGPU = errors.New("native: no GPU adapter available")

	// ErrNoHAL is returned when a device provider does not expose HAL types.
	ErrNoHAL = errors.New("native: provider does not expose HAL device and queue")

	// ErrForeignObject is returned for a fence, command buffer or render
	// target that was not created by this backend.
	ErrForeignObject = errors.New("native: object belongs to another backend")

	// ErrRecording is returned when Begin is called twice without Finish.
	ErrRecording = errors.New("native: allocator is already recording")

	// ErrNotRecording is returned by Finish without a matching Begin.
	ErrNotRecording = errors.New("native: allocator is not recording")
)
