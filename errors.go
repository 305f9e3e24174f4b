// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framepace

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every package in the module.
var (
	// ErrResourceCreationFailed is returned when a device, fence, allocator or
	// swap chain could not be created. It is fatal for startup.
	ErrResourceCreationFailed = errors.New("framepace: resource creation failed")

	// ErrSyncTimeout is returned when a fence wait exceeds the configured
	// deadline. Errors carrying it also match ErrDeviceLost.
	ErrSyncTimeout = errors.New("framepace: fence wait timed out")

	// ErrSubmissionFailed is returned when the queue rejects a command buffer
	// or a fence signal. The slot's fence value is left untouched.
	ErrSubmissionFailed = errors.New("framepace: submission failed")

	// ErrDeviceLost is returned when the device stops responding. The caller
	// should tear down and recreate every GPU object.
	ErrDeviceLost = errors.New("framepace: device lost")

	// ErrInvalidFrameIndex is returned for a frame index outside [0, N).
	ErrInvalidFrameIndex = errors.New("framepace: frame index out of range")

	// ErrInvalidState is returned when a scheduler operation is called out of
	// order (for example EndFrame without BeginFrame).
	ErrInvalidState = errors.New("framepace: invalid scheduler state")

	// ErrAllocatorInFlight is returned instead of resetting an allocator whose
	// command buffers may still be executing on the GPU.
	ErrAllocatorInFlight = errors.New("framepace: allocator still in flight")

	// ErrUnsignaledValue is returned when waiting for a fence value that was
	// never signaled and therefore can never complete.
	ErrUnsignaledValue = errors.New("framepace: fence value never signaled")

	// ErrClosed is returned by operations on a closed scheduler or device.
	ErrClosed = errors.New("framepace: closed")
)

// FrameError records a failed per-frame operation together with the frame
// index and fence value involved.
type FrameError struct {
	Op    string // "begin", "end", "drain", "reset"
	Frame int    // frame index, -1 when not applicable
	Value uint64 // fence value involved, 0 when not applicable
	Err   error
}

func (e *FrameError) Error() string {
	if e.Frame < 0 {
		return fmt.Sprintf("framepace: %s (fence %d): %v", e.Op, e.Value, e.Err)
	}
	return fmt.Sprintf("framepace: %s frame %d (fence %d): %v", e.Op, e.Frame, e.Value, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }

// IsFatal reports whether err means the device can no longer be used and
// every GPU object must be recreated.
func IsFatal(err error) bool {
	return errors.Is(err, ErrDeviceLost) || errors.Is(err, ErrResourceCreationFailed)
}
