// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ring

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gogpu/framepace"
	"github.com/gogpu/framepace/gpucore"
	"github.com/gogpu/gputypes"
)

type mockTarget struct{ index int }

func (t *mockTarget) Index() int                     { return t.index }
func (t *mockTarget) Format() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }
func (t *mockTarget) Size() gputypes.Extent3D        { return gputypes.Extent3D{Width: 4, Height: 4, DepthOrArrayLayers: 1} }

type mockSwap struct{ n int }

func (s *mockSwap) BufferCount() int { return s.n }
func (s *mockSwap) CurrentBackBufferIndex() int { return 0 }
func (s *mockSwap) BackBuffer(i int) gpucore.RenderTarget { return &mockTarget{index: i} }
func (s *mockSwap) Present() error { return nil }
func (s *mockSwap) Destroy() {}

type mockAllocator struct {
	resets    int
	destroyed bool
	resetErr  error
}

func (a *mockAllocator) Reset() error {
	if a.resetErr != nil {
		return a.resetErr
	}
	a.resets++
	return nil
}
func (a *mockAllocator) Begin(string) (gpucore.Recorder, error) { return nil, nil }
func (a *mockAllocator) Finish() (gpucore.CommandBuffer, error) { return nil, nil }
func (a *mockAllocator) Destroy()                               { a.destroyed = true }

// completedAt reports values up to its own value as reached.
type completedAt uint64

func (c *completedAt) Reached(v uint64) (bool, error) { return v <= uint64(*c), nil }

// lostDevice fails every completion query above zero.
type lostDevice struct{}

func (lostDevice) Reached(v uint64) (bool, error) {
	if v == 0 {
		return true, nil
	}
	return false, fmt.Errorf("poll %d: %w", v, framepace.ErrDeviceLost)
}

func newRing(t *testing.T, n int, done Completion) (*Ring, []*mockAllocator) {
	t.Helper()
	var allocs []*mockAllocator
	r, err := New(&mockSwap{n: n}, done, func(int) (gpucore.Allocator, error) {
		a := &mockAllocator{}
		allocs = append(allocs, a)
		return a, nil
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r, allocs
}

func TestNew(t *testing.T) {
	var done completedAt
	r, allocs := newRing(t, 3, &done)
	if r.Len() != 3 || len(allocs) != 3 {
		t.Fatalf("Len() = %d, allocators = %d, want 3", r.Len(), len(allocs))
	}
	for i := range 3 {
		s, err := r.Slot(i)
		if err != nil {
			t.Fatalf("Slot(%d) error = %v", i, err)
		}
		if s.SubmittedFenceValue != 0 {
			t.Errorf("slot %d initial value = %d, want 0", i, s.SubmittedFenceValue)
		}
		if s.Target.Index() != i {
			t.Errorf("slot %d target index = %d", i, s.Target.Index())
		}
	}
}

func TestNewInvalidCount(t *testing.T) {
	var done completedAt
	for _, n := range []int{0, framepace.MaxBufferCount + 1} {
		_, err := New(&mockSwap{n: n}, &done, func(int) (gpucore.Allocator, error) {
			return &mockAllocator{}, nil
		})
		if !errors.Is(err, framepace.ErrInvalidFrameIndex) {
			t.Errorf("New(%d slots) = %v, want ErrInvalidFrameIndex", n, err)
		}
	}
}

func TestNewAllocatorFails(t *testing.T) {
	var done completedAt
	var made []*mockAllocator
	_, err := New(&mockSwap{n: 3}, &done, func(i int) (gpucore.Allocator, error) {
		if i == 2 {
			return nil, errors.New("no memory")
		}
		a := &mockAllocator{}
		made = append(made, a)
		return a, nil
	})
	if !errors.Is(err, framepace.ErrResourceCreationFailed) {
		t.Fatalf("New() = %v, want ErrResourceCreationFailed", err)
	}
	for i, a := range made {
		if !a.destroyed {
			t.Errorf("allocator %d leaked after failed New", i)
		}
	}
}

func TestSlotOutOfRange(t *testing.T) {
	var done completedAt
	r, _ := newRing(t, 2, &done)
	for _, i := range []int{-1, 2, 10} {
		if _, err := r.Slot(i); !errors.Is(err, framepace.ErrInvalidFrameIndex) {
			t.Errorf("Slot(%d) = %v, want ErrInvalidFrameIndex", i, err)
		}
	}
}

func TestResetAllocatorGuard(t *testing.T) {
	var done completedAt
	r, allocs := newRing(t, 2, &done)

	// Never submitted: value 0 is always reached.
	if err := r.ResetAllocator(0); err != nil {
		t.Fatalf("ResetAllocator(0) = %v", err)
	}

	s, _ := r.Slot(1)
	s.SubmittedFenceValue = 5
	done = 4
	err := r.ResetAllocator(1)
	if !errors.Is(err, framepace.ErrAllocatorInFlight) {
		t.Fatalf("ResetAllocator(1) = %v, want ErrAllocatorInFlight", err)
	}
	var fe *framepace.FrameError
	if !errors.As(err, &fe) || fe.Value != 5 || fe.Frame != 1 {
		t.Errorf("error = %#v, want FrameError for frame 1 value 5", err)
	}
	if allocs[1].resets != 0 {
		t.Error("allocator was reset while in flight")
	}

	done = 5
	if err := r.ResetAllocator(1); err != nil {
		t.Fatalf("ResetAllocator(1) after completion = %v", err)
	}
	if allocs[1].resets != 1 || s.Resets() != 1 {
		t.Errorf("resets = %d/%d, want 1", allocs[1].resets, s.Resets())
	}
}

func TestResetAllocatorError(t *testing.T) {
	var done completedAt
	r, allocs := newRing(t, 1, &done)
	allocs[0].resetErr = errors.New("boom")
	if err := r.ResetAllocator(0); err == nil {
		t.Error("ResetAllocator() should surface the backend error")
	}
}

func TestResetAllocatorDeviceLost(t *testing.T) {
	r, allocs := newRing(t, 2, lostDevice{})
	s, _ := r.Slot(1)
	s.SubmittedFenceValue = 4

	err := r.ResetAllocator(1)
	if !errors.Is(err, framepace.ErrDeviceLost) {
		t.Fatalf("ResetAllocator(1) = %v, want ErrDeviceLost", err)
	}
	if errors.Is(err, framepace.ErrAllocatorInFlight) {
		t.Errorf("ResetAllocator(1) = %v, should not report the allocator in flight", err)
	}
	if allocs[1].resets != 0 {
		t.Error("allocator was reset with an unreadable fence")
	}

	if err := r.Destroy(); !errors.Is(err, framepace.ErrDeviceLost) {
		t.Errorf("Destroy() = %v, want ErrDeviceLost", err)
	}
	if allocs[0].destroyed || allocs[1].destroyed {
		t.Error("allocators destroyed with an unreadable fence")
	}
}

func TestDestroy(t *testing.T) {
	var done completedAt
	r, allocs := newRing(t, 2, &done)
	s, _ := r.Slot(0)
	s.SubmittedFenceValue = 3

	if err := r.Destroy(); !errors.Is(err, framepace.ErrAllocatorInFlight) {
		t.Fatalf("Destroy() before drain = %v, want ErrAllocatorInFlight", err)
	}
	done = 3
	if err := r.Destroy(); err != nil {
		t.Fatalf("Destroy() = %v", err)
	}
	if err := r.Destroy(); err != nil {
		t.Errorf("second Destroy() = %v", err)
	}
	for i, a := range allocs {
		if !a.destroyed {
			t.Errorf("allocator %d not destroyed", i)
		}
	}
	if err := r.ResetAllocator(0); !errors.Is(err, framepace.ErrClosed) {
		t.Errorf("ResetAllocator after Destroy = %v, want ErrClosed", err)
	}
}

func TestMaxSubmitted(t *testing.T) {
	var done completedAt
	r, _ := newRing(t, 3, &done)
	for i, v := range []uint64{4, 7, 6} {
		s, _ := r.Slot(i)
		s.SubmittedFenceValue = v
	}
	if got := r.MaxSubmitted(); got != 7 {
		t.Errorf("MaxSubmitted() = %d, want 7", got)
	}
}
