// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/gogpu/framepace"
	"github.com/gogpu/framepace/gpucore"
	"github.com/gogpu/gputypes"
)

// mockGPU is a deterministic GPU model. After the fence is signaled to s,
// the completed value trails it by lag. A blocking wait for v catches the
// GPU up to exactly v, as if the CPU slept until the GPU got there.
type mockGPU struct {
	t   *testing.T
	lag uint64

	stall     bool // blocking waits never complete
	submitErr func(call int) error
	signalErr func(value uint64) error

	completed uint64
	signaled  uint64
	pending   []*mockCmd
	submits   int
	polls     int
	blocking  int
	log       []string
}

type mockFence struct{}

type mockCmd struct {
	alloc *mockAllocator
}

func (g *mockGPU) CreateFence() (gpucore.Fence, error) { return &mockFence{}, nil }

func (g *mockGPU) DestroyFence(gpucore.Fence) {
	if g.completed < g.signaled {
		g.t.Errorf("fence destroyed with pending signal: completed %d < signaled %d", g.completed, g.signaled)
	}
	g.log = append(g.log, "destroy fence")
}

func (g *mockGPU) Wait(_ gpucore.Fence, value uint64, timeout time.Duration) (bool, error) {
	if timeout == 0 {
		g.polls++
		return g.completed >= value, nil
	}
	g.blocking++
	if g.stall {
		time.Sleep(timeout)
		return false, nil
	}
	g.completed = max(g.completed, value)
	return true, nil
}

func (g *mockGPU) Submit(buffers []gpucore.CommandBuffer, f gpucore.Fence, value uint64) error {
	if len(buffers) > 0 {
		g.submits++
		if g.submitErr != nil {
			if err := g.submitErr(g.submits); err != nil {
				return err
			}
		}
		for _, b := range buffers {
			g.pending = append(g.pending, b.(*mockCmd))
		}
		g.log = append(g.log, "submit")
	}
	if f == nil {
		return nil
	}
	if len(buffers) == 0 && g.signalErr != nil {
		if err := g.signalErr(value); err != nil {
			return err
		}
	}
	for _, c := range g.pending {
		c.alloc.lastValue = value
	}
	g.pending = g.pending[:0]
	g.signaled = value
	if value > g.lag {
		g.completed = max(g.completed, value-g.lag)
	}
	g.log = append(g.log, fmt.Sprintf("signal %d", value))
	return nil
}

func (g *mockGPU) Queue() gpucore.Queue { return g }

func (g *mockGPU) CreateAllocator(label string) (gpucore.Allocator, error) {
	return &mockAllocator{gpu: g, label: label}, nil
}

func (g *mockGPU) Destroy() {}

// mockAllocator fails the test if it is reset or destroyed while work
// recorded from it has not completed.
type mockAllocator struct {
	gpu       *mockGPU
	label     string
	lastValue uint64
	resets    int
	recording bool
}

func (a *mockAllocator) Reset() error {
	if a.gpu.completed < a.lastValue {
		a.gpu.t.Errorf("%s reset while in flight: completed %d < %d", a.label, a.gpu.completed, a.lastValue)
	}
	a.resets++
	return nil
}

func (a *mockAllocator) Begin(string) (gpucore.Recorder, error) {
	a.recording = true
	return &mockRecorder{}, nil
}

func (a *mockAllocator) Finish() (gpucore.CommandBuffer, error) {
	a.recording = false
	return &mockCmd{alloc: a}, nil
}

func (a *mockAllocator) Destroy() {
	if a.gpu.completed < a.lastValue {
		a.gpu.t.Errorf("%s destroyed while in flight", a.label)
	}
	a.gpu.log = append(a.gpu.log, "destroy "+a.label)
}

type mockRecorder struct{ clears, draws int }

func (r *mockRecorder) ClearTarget(gpucore.RenderTarget, gputypes.Color) { r.clears++ }
func (r *mockRecorder) Draw(gpucore.RenderTarget, gpucore.DrawCall)      { r.draws++ }

type mockTarget struct{ index int }

func (t *mockTarget) Index() int                     { return t.index }
func (t *mockTarget) Format() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }
func (t *mockTarget) Size() gputypes.Extent3D        { return gputypes.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1} }

// mockSwap advances the back buffer only on a present.
type mockSwap struct {
	n          int
	current    int
	presents   int
	presentErr error
}

func (s *mockSwap) BufferCount() int                      { return s.n }
func (s *mockSwap) CurrentBackBufferIndex() int           { return s.current }
func (s *mockSwap) BackBuffer(i int) gpucore.RenderTarget { return &mockTarget{index: i} }
func (s *mockSwap) Destroy()                              {}

func (s *mockSwap) Present() error {
	s.presents++
	s.current = (s.current + 1) % s.n
	return s.presentErr
}

func newScheduler(t *testing.T, gpu *mockGPU, n int, opts ...framepace.Option) (*Scheduler, *mockSwap) {
	t.Helper()
	gpu.t = t
	swap := &mockSwap{n: n}
	opts = append([]framepace.Option{framepace.WithBufferCount(n)}, opts...)
	s, err := Open(gpu, swap, framepace.NewConfig(opts...))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s, swap
}

func runCycle(t *testing.T, s *Scheduler) *Frame {
	t.Helper()
	f, err := s.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	f.Recorder.ClearTarget(f.Slot.Target, gputypes.Color{R: 0, G: 0.2, B: 0.4, A: 1})
	if err := s.EndFrame(f.Index); err != nil {
		t.Fatalf("EndFrame(%d) error = %v", f.Index, err)
	}
	return f
}

func TestFirstLapNeverWaits(t *testing.T) {
	gpu := &mockGPU{lag: 100}
	s, _ := newScheduler(t, gpu, 3)
	for i := range 3 {
		f := runCycle(t, s)
		if f.Blocked || f.WaitedFor != 0 {
			t.Errorf("cycle %d: Blocked=%v WaitedFor=%d, want no wait", i+1, f.Blocked, f.WaitedFor)
		}
	}
	if gpu.blocking != 0 || gpu.polls != 0 {
		t.Errorf("device touched for value 0: blocking=%d polls=%d", gpu.blocking, gpu.polls)
	}
}

func TestWrapAroundWaitsForFirstFrame(t *testing.T) {
	const n = 2
	gpu := &mockGPU{lag: 100} // the GPU makes no progress on its own
	s, _ := newScheduler(t, gpu, n)
	for range n {
		runCycle(t, s)
	}

	f := runCycle(t, s)
	if !f.Blocked || f.WaitedFor != 1 {
		t.Fatalf("cycle %d: Blocked=%v WaitedFor=%d, want blocking wait on 1", n+1, f.Blocked, f.WaitedFor)
	}
	if f.Index != 0 {
		t.Errorf("cycle %d used slot %d, want 0", n+1, f.Index)
	}
	if gpu.completed != 1 {
		t.Errorf("GPU caught up to %d, want exactly 1", gpu.completed)
	}
}

func TestLagTwoBlockingWaits(t *testing.T) {
	gpu := &mockGPU{lag: 2}
	s, _ := newScheduler(t, gpu, 2)

	var blockedCycles []int
	for c := 1; c <= 5; c++ {
		if f := runCycle(t, s); f.Blocked {
			blockedCycles = append(blockedCycles, c)
		}
	}
	if got := s.Stats().BlockingWaits; got != 3 {
		t.Errorf("BlockingWaits = %d, want 3", got)
	}
	if fmt.Sprint(blockedCycles) != "[3 4 5]" {
		t.Errorf("blocked cycles = %v, want [3 4 5]", blockedCycles)
	}
}

func TestSubmissionFailureKeepsSlotValue(t *testing.T) {
	gpu := &mockGPU{lag: 0}
	gpu.submitErr = func(call int) error {
		if call == 3 {
			return errors.New("queue rejected")
		}
		return nil
	}
	s, _ := newScheduler(t, gpu, 2)
	runCycle(t, s)
	runCycle(t, s)

	f, err := s.Begin(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if f.Index != 0 {
		t.Fatalf("cycle 3 slot = %d, want 0", f.Index)
	}
	err = s.EndFrame(f.Index)
	if !errors.Is(err, framepace.ErrSubmissionFailed) {
		t.Fatalf("EndFrame() = %v, want ErrSubmissionFailed", err)
	}
	if f.Slot.SubmittedFenceValue != 1 {
		t.Errorf("slot value = %d after failure, want 1", f.Slot.SubmittedFenceValue)
	}
	if s.Tracker().Signaled() != 2 {
		t.Errorf("Signaled() = %d after failure, want 2", s.Tracker().Signaled())
	}
	if s.State() != StateIdle {
		t.Errorf("State() = %v after failure, want Idle", s.State())
	}

	// Nothing was presented, so cycle 4 reuses slot 0 and waits on the
	// unchanged value.
	f = runCycle(t, s)
	if f.Index != 0 || f.WaitedFor != 1 {
		t.Errorf("cycle 4: slot %d WaitedFor %d, want slot 0 WaitedFor 1", f.Index, f.WaitedFor)
	}
	if f.Slot.SubmittedFenceValue != 3 {
		t.Errorf("cycle 4 signaled %d, want 3", f.Slot.SubmittedFenceValue)
	}
	if st := s.Stats(); st.SubmitFailures != 1 || st.Frames != 3 {
		t.Errorf("Stats = %+v, want 1 failure and 3 frames", st)
	}
}

func TestSignalFailureLosesScheduler(t *testing.T) {
	gpu := &mockGPU{}
	gpu.signalErr = func(value uint64) error {
		if value == 2 {
			return errors.New("queue rejected signal")
		}
		return nil
	}
	s, _ := newScheduler(t, gpu, 2)
	runCycle(t, s)

	f, err := s.Begin(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	err = s.EndFrame(f.Index)
	var fe *framepace.FrameError
	if !errors.As(err, &fe) || fe.Op != "signal" || !errors.Is(err, framepace.ErrDeviceLost) {
		t.Fatalf("EndFrame() = %v, want signal FrameError matching ErrDeviceLost", err)
	}
	if s.State() != StateLost {
		t.Errorf("State() = %v, want Lost", s.State())
	}
	if len(gpu.pending) != 1 {
		t.Fatalf("pending = %d, want the untracked command buffer", len(gpu.pending))
	}

	resets := make([]int, s.Ring().Len())
	for i := range resets {
		slot, _ := s.Ring().Slot(i)
		resets[i] = slot.Allocator.(*mockAllocator).resets
	}
	for i := range resets {
		if _, err := s.BeginFrame(context.Background(), i); !errors.Is(err, framepace.ErrDeviceLost) {
			t.Errorf("BeginFrame(%d) = %v, want ErrDeviceLost", i, err)
		}
	}
	if err := s.EndFrame(f.Index); !errors.Is(err, framepace.ErrDeviceLost) {
		t.Errorf("EndFrame() again = %v, want ErrDeviceLost", err)
	}
	if err := s.Drain(context.Background()); !errors.Is(err, framepace.ErrDeviceLost) {
		t.Errorf("Drain() = %v, want ErrDeviceLost", err)
	}
	for i, want := range resets {
		slot, _ := s.Ring().Slot(i)
		if got := slot.Allocator.(*mockAllocator).resets; got != want {
			t.Errorf("slot %d allocator reset after the lost signal: %d -> %d", i, want, got)
		}
	}
	if st := s.Stats(); st.Frames != 1 || st.SubmitFailures != 1 {
		t.Errorf("Stats = %+v, want 1 frame and 1 failure", st)
	}

	if err := s.Close(context.Background()); !errors.Is(err, framepace.ErrDeviceLost) {
		t.Errorf("Close() = %v, want ErrDeviceLost", err)
	}
	for _, e := range gpu.log {
		if len(e) > 7 && e[:7] == "destroy" {
			t.Errorf("%q after a lost signal in %v", e, gpu.log)
		}
	}
	if err := s.Close(context.Background()); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	if _, err := s.Begin(context.Background()); !errors.Is(err, framepace.ErrClosed) {
		t.Errorf("Begin() after Close = %v, want ErrClosed", err)
	}
}

func TestPresentFailureStillSignals(t *testing.T) {
	gpu := &mockGPU{}
	s, swap := newScheduler(t, gpu, 2)
	swap.presentErr = errors.New("surface lost")

	f, err := s.Begin(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	err = s.EndFrame(f.Index)
	var fe *framepace.FrameError
	if !errors.As(err, &fe) || fe.Op != "present" {
		t.Fatalf("EndFrame() = %v, want present FrameError", err)
	}
	if f.Slot.SubmittedFenceValue != 1 {
		t.Errorf("slot value = %d, want 1", f.Slot.SubmittedFenceValue)
	}
	if s.Stats().PresentFailures != 1 {
		t.Errorf("PresentFailures = %d, want 1", s.Stats().PresentFailures)
	}
}

func TestCloseDrainsBeforeTeardown(t *testing.T) {
	gpu := &mockGPU{lag: 5}
	s, _ := newScheduler(t, gpu, 2)
	for range 4 {
		runCycle(t, s)
	}

	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if err := s.Close(context.Background()); err != nil {
		t.Errorf("second Close() = %v", err)
	}

	// The drain signal must precede every destroy.
	drain := -1
	for i, e := range gpu.log {
		switch {
		case e == "signal 5":
			drain = i
		case len(e) > 7 && e[:7] == "destroy":
			if drain < 0 {
				t.Fatalf("%q before drain signal in %v", e, gpu.log)
			}
		}
	}
	if drain < 0 {
		t.Fatalf("no drain signal in %v", gpu.log)
	}
	if gpu.completed != 5 {
		t.Errorf("completed = %d after drain, want 5", gpu.completed)
	}
	if _, err := s.Begin(context.Background()); !errors.Is(err, framepace.ErrClosed) {
		t.Errorf("Begin() after Close = %v, want ErrClosed", err)
	}
}

func TestCloseAbandonsRecording(t *testing.T) {
	gpu := &mockGPU{}
	s, _ := newScheduler(t, gpu, 2)
	if _, err := s.Begin(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(context.Background()); err != nil {
		t.Errorf("Close() while recording = %v", err)
	}
}

func TestStateErrors(t *testing.T) {
	gpu := &mockGPU{}
	s, _ := newScheduler(t, gpu, 2)

	if err := s.EndFrame(0); !errors.Is(err, framepace.ErrInvalidState) {
		t.Errorf("EndFrame without Begin = %v, want ErrInvalidState", err)
	}
	if _, err := s.BeginFrame(context.Background(), 2); !errors.Is(err, framepace.ErrInvalidFrameIndex) {
		t.Errorf("BeginFrame(2) = %v, want ErrInvalidFrameIndex", err)
	}
	f, err := s.BeginFrame(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if s.State() != StateRecording {
		t.Errorf("State() = %v, want Recording", s.State())
	}
	if _, err := s.BeginFrame(context.Background(), 1); !errors.Is(err, framepace.ErrInvalidState) {
		t.Errorf("nested BeginFrame = %v, want ErrInvalidState", err)
	}
	if err := s.EndFrame(1); !errors.Is(err, framepace.ErrInvalidState) {
		t.Errorf("EndFrame(wrong index) = %v, want ErrInvalidState", err)
	}
	if err := s.Drain(context.Background()); !errors.Is(err, framepace.ErrInvalidState) {
		t.Errorf("Drain while recording = %v, want ErrInvalidState", err)
	}
	if err := s.EndFrame(f.Index); err != nil {
		t.Errorf("EndFrame() = %v", err)
	}
}

func TestBeginFrameTimeout(t *testing.T) {
	gpu := &mockGPU{lag: 10, stall: true}
	s, _ := newScheduler(t, gpu, 1,
		framepace.WithWaitTimeout(20*time.Millisecond),
		framepace.WithWaitQuantum(5*time.Millisecond))
	runCycle(t, s)

	_, err := s.Begin(context.Background())
	if !errors.Is(err, framepace.ErrSyncTimeout) || !framepace.IsFatal(err) {
		t.Fatalf("Begin() = %v, want fatal ErrSyncTimeout", err)
	}
	if s.State() != StateIdle {
		t.Errorf("State() = %v after timeout, want Idle", s.State())
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{StateIdle, "Idle"},
		{StateRecording, "Recording"},
		{StateSubmitted, "Submitted"},
		{StatePresented, "Presented"},
		{StateLost, "Lost"},
		{State(9), "State(9)"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

// With lag L on a ring of N, frames block exactly when L >= N, and then
// every frame after the first lap blocks once.
func TestBlockingWaitsProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for range 50 {
		n := 1 + rng.IntN(framepace.MaxBufferCount)
		lag := uint64(rng.IntN(6))
		cycles := 1 + rng.IntN(30)
		t.Run(fmt.Sprintf("n=%d/lag=%d/cycles=%d", n, lag, cycles), func(t *testing.T) {
			gpu := &mockGPU{lag: lag}
			s, _ := newScheduler(t, gpu, n)
			for range cycles {
				f := runCycle(t, s)
				if f.Slot.SubmittedFenceValue <= f.WaitedFor && f.WaitedFor != 0 {
					t.Fatalf("slot value did not advance past %d", f.WaitedFor)
				}
			}
			var want uint64
			if lag >= uint64(n) && cycles > n {
				want = uint64(cycles - n)
			}
			if got := s.Stats().BlockingWaits; got != want {
				t.Errorf("BlockingWaits = %d, want %d", got, want)
			}
			if got := s.Stats().Frames; got != uint64(cycles) {
				t.Errorf("Frames = %d, want %d", got, cycles)
			}
			if err := s.Close(context.Background()); err != nil {
				t.Errorf("Close() = %v", err)
			}
		})
	}
}
