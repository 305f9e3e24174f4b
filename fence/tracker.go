// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package fence tracks a single GPU timeline fence on the CPU side.
package fence

import (
	"context"
	"fmt"
	"time"

	"github.com/gogpu/framepace"
	"github.com/gogpu/framepace/gpucore"
)

// Tracker wraps one fence and the device that waits on it.
//
// The completed value observed through a Tracker never decreases. Signaled
// values must strictly increase; Tracker rejects anything else.
//
// Tracker is NOT safe for concurrent use. It is driven by the single render
// goroutine; only the GPU writes the fence concurrently.
type Tracker struct {
	device gpucore.FenceDevice
	fence  gpucore.Fence

	completed uint64 // highest value seen completed
	signaled  uint64 // highest value handed to Signal

	timeout time.Duration // zero waits forever
	quantum time.Duration

	blockingWaits uint64
	destroyed     bool
}

// New creates a fence on device and a Tracker around it.
// Only the wait-related fields of cfg are used.
func New(device gpucore.FenceDevice, cfg framepace.Config) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	f, err := device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("create fence: %w: %w", framepace.ErrResourceCreationFailed, err)
	}
	return &Tracker{
		device:  device,
		fence:   f,
		timeout: cfg.WaitTimeout,
		quantum: cfg.WaitQuantum,
	}, nil
}

// Fence returns the underlying fence handle.
func (t *Tracker) Fence() gpucore.Fence { return t.fence }

// Signaled returns the highest value passed to Signal.
func (t *Tracker) Signaled() uint64 { return t.signaled }

// BlockingWaits returns how many WaitUntil calls actually had to block.
func (t *Tracker) BlockingWaits() uint64 { return t.blockingWaits }

// Signal enqueues a GPU-side signal on q that sets the fence to value once
// all previously submitted work on q has completed. It returns immediately.
func (t *Tracker) Signal(q gpucore.Queue, value uint64) error {
	if t.destroyed {
		return framepace.ErrClosed
	}
	if value <= t.signaled {
		return fmt.Errorf("fence: signal %d not above last signaled %d: %w",
			value, t.signaled, framepace.ErrInvalidState)
	}
	if err := q.Submit(nil, t.fence, value); err != nil {
		return fmt.Errorf("fence: signal %d: %w: %w", value, framepace.ErrSubmissionFailed, err)
	}
	t.signaled = value
	return nil
}

// Reached reports, without blocking, whether the fence has reached value.
// Value 0 means nothing was submitted and is always reached. A device
// failure while polling is returned wrapped in ErrDeviceLost.
func (t *Tracker) Reached(value uint64) (bool, error) {
	if value <= t.completed {
		return true, nil
	}
	if value > t.signaled || t.destroyed {
		return false, nil
	}
	ok, err := t.device.Wait(t.fence, value, 0)
	if err != nil {
		return false, fmt.Errorf("fence: poll %d: %w: %w", value, framepace.ErrDeviceLost, err)
	}
	if ok {
		t.observe(value)
	}
	return ok, nil
}

// Completed returns the highest value known to be completed. It polls the
// device for the most recent signal first; a failed poll leaves the last
// observed value in place.
func (t *Tracker) Completed() uint64 {
	if t.signaled > t.completed {
		_, _ = t.Reached(t.signaled)
	}
	return t.completed
}

// WaitUntil blocks until the fence reaches value.
//
// If the value is already reached it returns immediately (blocked is false),
// so repeated calls with the same value never block twice. Otherwise the
// wait is split into quanta so ctx cancellation and the configured timeout
// are honoured. A timeout fails with an error matching both ErrSyncTimeout
// and ErrDeviceLost.
func (t *Tracker) WaitUntil(ctx context.Context, value uint64) (blocked bool, err error) {
	if ok, err := t.Reached(value); err != nil || ok {
		return false, err
	}
	if t.destroyed {
		return false, framepace.ErrClosed
	}
	if value > t.signaled {
		return false, fmt.Errorf("fence: wait for %d (last signaled %d): %w",
			value, t.signaled, framepace.ErrUnsignaledValue)
	}

	t.blockingWaits++
	start := time.Now()
	var deadline time.Time
	if t.timeout > 0 {
		deadline = start.Add(t.timeout)
	}
	framepace.Logger().Debug("fence: blocking wait", "value", value, "completed", t.completed)

	for {
		if err := ctx.Err(); err != nil {
			return true, err
		}
		q := t.quantum
		if !deadline.IsZero() {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return true, fmt.Errorf("fence: wait for %d after %v: %w: %w",
					value, t.timeout, framepace.ErrDeviceLost, framepace.ErrSyncTimeout)
			}
			q = min(q, remaining)
		}
		ok, err := t.device.Wait(t.fence, value, q)
		if err != nil {
			return true, fmt.Errorf("fence: wait for %d: %w: %w", value, framepace.ErrDeviceLost, err)
		}
		if ok {
			t.observe(value)
			if d := time.Since(start); d > time.Second {
				framepace.Logger().Warn("fence: slow GPU wait", "value", value, "elapsed", d)
			}
			return true, nil
		}
	}
}

// Drain signals a fresh value on q and waits for it, guaranteeing that no
// work submitted to q before the call is still executing.
func (t *Tracker) Drain(ctx context.Context, q gpucore.Queue) (uint64, error) {
	value := t.signaled + 1
	if err := t.Signal(q, value); err != nil {
		return 0, err
	}
	if _, err := t.WaitUntil(ctx, value); err != nil {
		return value, err
	}
	return value, nil
}

// Destroy releases the fence. The caller must have drained first.
func (t *Tracker) Destroy() {
	if t.destroyed {
		return
	}
	t.destroyed = true
	t.device.DestroyFence(t.fence)
	t.fence = nil
}

func (t *Tracker) observe(value uint64) {
	if value > t.completed {
		t.completed = value
	}
}
