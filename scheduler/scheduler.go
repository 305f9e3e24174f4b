// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package scheduler drives the per-frame protocol: wait for the slot,
// reset its allocator, record, submit, present and signal.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/framepace"
	"github.com/gogpu/framepace/fence"
	"github.com/gogpu/framepace/gpucore"
	"github.com/gogpu/framepace/ring"
)

// State is the scheduler's position in the frame cycle.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateSubmitted
	StatePresented
	// StateLost follows a failed fence signal. Work is in flight that no
	// fence value covers, so no slot can be safely reused.
	StateLost
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRecording:
		return "Recording"
	case StateSubmitted:
		return "Submitted"
	case StatePresented:
		return "Presented"
	case StateLost:
		return "Lost"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Frame is a frame opened by BeginFrame.
type Frame struct {
	Index    int
	Slot     *ring.Slot
	Recorder gpucore.Recorder

	// WaitedFor is the fence value the slot had to reach before reuse.
	WaitedFor uint64

	// Blocked is true when reaching WaitedFor required a blocking wait.
	Blocked bool
}

// Stats are running counters for a scheduler.
type Stats struct {
	Frames          uint64 // successfully submitted frames
	SubmitFailures  uint64
	PresentFailures uint64
	BlockingWaits   uint64
	Signaled        uint64
	Completed       uint64
}

// Scheduler coordinates one queue, swap chain, frame ring and fence.
//
// Scheduler is NOT safe for concurrent use. A single goroutine calls
// BeginFrame and EndFrame alternately.
type Scheduler struct {
	queue   gpucore.Queue
	swap    gpucore.SwapChain
	ring    *ring.Ring
	tracker *fence.Tracker
	label   string

	state   State
	current int
	closed  bool
	lost    error // set with StateLost

	frames          uint64
	submitFailures  uint64
	presentFailures uint64
}

// New creates a scheduler over existing components. The scheduler takes
// ownership of r and tracker and releases them in Close.
func New(queue gpucore.Queue, swap gpucore.SwapChain, r *ring.Ring, tracker *fence.Tracker) *Scheduler {
	return &Scheduler{
		queue:   queue,
		swap:    swap,
		ring:    r,
		tracker: tracker,
		label:   "frame",
		current: -1,
	}
}

// Open creates the fence, the ring and a scheduler for dev and swap.
// The ring has one slot per back buffer of swap.
func Open(dev gpucore.Device, swap gpucore.SwapChain, cfg framepace.Config) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if n := swap.BufferCount(); n != cfg.BufferCount {
		framepace.Logger().Warn("scheduler: buffer count differs from swap chain",
			"config", cfg.BufferCount, "swapchain", n)
	}
	tracker, err := fence.New(dev, cfg)
	if err != nil {
		return nil, err
	}
	r, err := ring.New(swap, tracker, func(i int) (gpucore.Allocator, error) {
		return dev.CreateAllocator(fmt.Sprintf("%s-allocator-%d", cfg.Label, i))
	})
	if err != nil {
		tracker.Destroy()
		return nil, err
	}
	s := New(dev.Queue(), swap, r, tracker)
	s.label = cfg.Label
	return s, nil
}

// State returns the current state.
func (s *Scheduler) State() State { return s.state }

// Ring returns the frame ring.
func (s *Scheduler) Ring() *ring.Ring { return s.ring }

// Tracker returns the fence tracker.
func (s *Scheduler) Tracker() *fence.Tracker { return s.tracker }

// Stats returns a snapshot of the counters.
func (s *Scheduler) Stats() Stats {
	st := Stats{
		Frames:          s.frames,
		SubmitFailures:  s.submitFailures,
		PresentFailures: s.presentFailures,
	}
	if s.tracker != nil {
		st.BlockingWaits = s.tracker.BlockingWaits()
		st.Signaled = s.tracker.Signaled()
		st.Completed = s.tracker.Completed()
	}
	return st
}

// Begin opens the frame for the swap chain's current back buffer.
func (s *Scheduler) Begin(ctx context.Context) (*Frame, error) {
	return s.BeginFrame(ctx, s.swap.CurrentBackBufferIndex())
}

// BeginFrame acquires the slot for frameIndex. If the GPU has not finished
// the work last submitted from that slot, BeginFrame blocks until it has.
// It then resets the slot's allocator and starts recording.
func (s *Scheduler) BeginFrame(ctx context.Context, frameIndex int) (*Frame, error) {
	if s.closed {
		return nil, framepace.ErrClosed
	}
	if s.lost != nil {
		return nil, &framepace.FrameError{Op: "begin", Frame: frameIndex, Err: s.lost}
	}
	if s.state != StateIdle {
		return nil, &framepace.FrameError{
			Op: "begin", Frame: frameIndex,
			Err: fmt.Errorf("%w: state %v", framepace.ErrInvalidState, s.state),
		}
	}
	slot, err := s.ring.Slot(frameIndex)
	if err != nil {
		return nil, err
	}

	value := slot.SubmittedFenceValue
	blocked, err := s.tracker.WaitUntil(ctx, value)
	if err != nil {
		return nil, &framepace.FrameError{Op: "begin", Frame: frameIndex, Value: value, Err: err}
	}
	if blocked {
		framepace.Logger().Debug("scheduler: waited for slot", "frame", frameIndex, "value", value)
	}

	if err := s.ring.ResetAllocator(frameIndex); err != nil {
		return nil, err
	}
	rec, err := slot.Allocator.Begin(fmt.Sprintf("%s-%d", s.label, frameIndex))
	if err != nil {
		return nil, &framepace.FrameError{Op: "begin", Frame: frameIndex, Value: value, Err: err}
	}

	s.state = StateRecording
	s.current = frameIndex
	return &Frame{
		Index:     frameIndex,
		Slot:      slot,
		Recorder:  rec,
		WaitedFor: value,
		Blocked:   blocked,
	}, nil
}

// EndFrame closes recording, submits the command buffer, presents and
// signals the next fence value, which is stored in the slot.
//
// If the submission fails, neither the slot's value nor the next fence
// value advance and the frame is not presented. A present failure is
// returned after the signal so that the slot stays tracked. If the signal
// itself fails the submitted work is untracked and the scheduler moves to
// StateLost: every later call fails with ErrDeviceLost.
func (s *Scheduler) EndFrame(frameIndex int) error {
	if s.closed {
		return framepace.ErrClosed
	}
	if s.lost != nil {
		return &framepace.FrameError{Op: "end", Frame: frameIndex, Err: s.lost}
	}
	if s.state != StateRecording || frameIndex != s.current {
		return &framepace.FrameError{
			Op: "end", Frame: frameIndex,
			Err: fmt.Errorf("%w: state %v, recording frame %d", framepace.ErrInvalidState, s.state, s.current),
		}
	}
	slot, err := s.ring.Slot(frameIndex)
	if err != nil {
		return err
	}
	prev := slot.SubmittedFenceValue

	cmd, err := slot.Allocator.Finish()
	if err != nil {
		return s.failSubmit(frameIndex, prev, err)
	}
	if err := s.queue.Submit([]gpucore.CommandBuffer{cmd}, nil, 0); err != nil {
		return s.failSubmit(frameIndex, prev, err)
	}
	s.state = StateSubmitted

	presentErr := s.swap.Present()
	s.state = StatePresented

	value := s.tracker.Signaled() + 1
	if err := s.tracker.Signal(s.queue, value); err != nil {
		// The command buffer is in flight with no value to wait on.
		s.state = StateLost
		s.submitFailures++
		s.lost = &framepace.FrameError{
			Op: "signal", Frame: frameIndex, Value: value,
			Err: fmt.Errorf("%w: %w", framepace.ErrDeviceLost, err),
		}
		framepace.Logger().Error("scheduler: fence signal failed", "frame", frameIndex, "value", value, "err", err)
		return s.lost
	}
	slot.SubmittedFenceValue = value
	s.frames++
	s.state = StateIdle

	if presentErr != nil {
		s.presentFailures++
		framepace.Logger().Warn("scheduler: present failed", "frame", frameIndex, "err", presentErr)
		return &framepace.FrameError{Op: "present", Frame: frameIndex, Value: value, Err: presentErr}
	}
	return nil
}

func (s *Scheduler) failSubmit(frameIndex int, value uint64, err error) error {
	s.state = StateIdle
	s.submitFailures++
	framepace.Logger().Warn("scheduler: submission failed", "frame", frameIndex, "err", err)
	return &framepace.FrameError{
		Op: "submit", Frame: frameIndex, Value: value,
		Err: fmt.Errorf("%w: %w", framepace.ErrSubmissionFailed, err),
	}
}

// Drain blocks until every submitted frame has completed on the GPU.
func (s *Scheduler) Drain(ctx context.Context) error {
	if s.closed {
		return framepace.ErrClosed
	}
	if s.lost != nil {
		return &framepace.FrameError{Op: "drain", Frame: -1, Err: s.lost}
	}
	if s.state != StateIdle {
		return &framepace.FrameError{
			Op: "drain", Frame: -1,
			Err: fmt.Errorf("%w: state %v", framepace.ErrInvalidState, s.state),
		}
	}
	value, err := s.tracker.Drain(ctx, s.queue)
	if err != nil {
		return &framepace.FrameError{Op: "drain", Frame: -1, Value: value, Err: err}
	}
	framepace.Logger().Info("scheduler: drained", "value", value, "frames", s.frames)
	return nil
}

// Close drains the queue once and releases the ring and the fence. A frame
// still being recorded is abandoned. Close is idempotent.
//
// If draining fails the allocators are not released, since the GPU may
// still be using them. A lost scheduler releases nothing and returns the
// signal error; the device has to be torn down instead.
func (s *Scheduler) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	if s.lost != nil {
		s.closed = true
		return s.lost
	}
	s.state = StateIdle
	drainErr := s.Drain(ctx)
	ringErr := s.ring.Destroy()
	if ringErr == nil {
		s.tracker.Destroy()
	}
	s.closed = true
	return errors.Join(drainErr, ringErr)
}
