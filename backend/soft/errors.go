// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import "errors"

// Soft backend errors.
var (
	// ErrDeviceClosed is returned by operations on a destroyed device.
	ErrDeviceClosed = errors.New("soft: device closed")

	// ErrRecording is returned when Begin is called twice without Finish.
	ErrRecording = errors.New("soft: allocator is already recording")

	// ErrNotRecording is returned by Finish without a matching Begin.
	ErrNotRecording = errors.New("soft: allocator is not recording")

	// ErrForeignObject is returned for a fence, command buffer or render
	// target that was not created by this backend.
	ErrForeignObject = errors.New("soft: object belongs to another backend")
)
