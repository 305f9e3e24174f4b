// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/framepace"
	"github.com/gogpu/framepace/gpucore"
)

// DefaultQueueDepth is the number of submissions buffered before Submit
// blocks.
const DefaultQueueDepth = 64

// Option configures a Device.
type Option func(*Device)

// WithLatency adds a fixed execution time to every submission that carries
// command buffers, emulating a GPU that is slower than the CPU.
func WithLatency(d time.Duration) Option {
	return func(dev *Device) {
		dev.latency = d
	}
}

// WithQueueDepth sets the submission buffer size.
func WithQueueDepth(n int) Option {
	return func(dev *Device) {
		if n > 0 {
			dev.depth = n
		}
	}
}

type submission struct {
	buffers []*CommandBuffer
	fence   *Fence
	value   uint64
	present *presentOp
}

// Device is a software GPU with a single queue executed by one worker
// goroutine. It implements gpucore.Device and gpucore.Queue.
//
// Submit, Wait and the fence methods are safe for concurrent use.
type Device struct {
	latency time.Duration
	depth   int

	mu     sync.Mutex // guards closed and sends on work
	closed bool
	work   chan submission
	group  *errgroup.Group

	lost     chan struct{}
	lostOnce sync.Once
	lostErr  atomic.Pointer[error]

	executed atomic.Uint64
}

// NewDevice creates a device and starts its worker.
func NewDevice(opts ...Option) *Device {
	d := &Device{
		depth: DefaultQueueDepth,
		lost:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.work = make(chan submission, d.depth)

	g, ctx := errgroup.WithContext(context.Background())
	d.group = g
	g.Go(func() error { return d.run(ctx) })

	framepace.Logger().Info("soft: device created", "latency", d.latency, "depth", d.depth)
	return d
}

func (d *Device) run(ctx context.Context) error {
	var firstErr error
	for sub := range d.work {
		if ctx.Err() != nil || d.lostErr.Load() != nil {
			// Lost devices never signal again.
			continue
		}
		if err := d.execute(sub); err != nil {
			firstErr = err
			d.markLost(err)
		}
	}
	return firstErr
}

func (d *Device) execute(sub submission) error {
	if len(sub.buffers) > 0 && d.latency > 0 {
		time.Sleep(d.latency)
	}
	for _, cb := range sub.buffers {
		if err := cb.execute(); err != nil {
			return fmt.Errorf("soft: execute %q: %w", cb.label, err)
		}
		d.executed.Add(1)
	}
	if sub.present != nil {
		sub.present.execute()
	}
	if sub.fence != nil {
		sub.fence.signal(sub.value)
	}
	return nil
}

func (d *Device) markLost(err error) {
	d.lostOnce.Do(func() {
		d.lostErr.Store(&err)
		close(d.lost)
		framepace.Logger().Warn("soft: device lost", "err", err)
	})
}

// Lose marks the device as lost. Later waits fail with ErrDeviceLost and
// pending submissions are dropped.
func (d *Device) Lose(reason error) {
	d.markLost(reason)
}

// Err returns the error that made the device lost, or nil.
func (d *Device) Err() error {
	if p := d.lostErr.Load(); p != nil {
		return fmt.Errorf("%w: %w", framepace.ErrDeviceLost, *p)
	}
	return nil
}

// Executed returns the number of command buffers executed so far.
func (d *Device) Executed() uint64 { return d.executed.Load() }

// CreateFence creates a fence with value 0.
func (d *Device) CreateFence() (gpucore.Fence, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDeviceClosed
	}
	return newFence(), nil
}

// DestroyFence releases a fence. Software fences hold no resources.
func (d *Device) DestroyFence(gpucore.Fence) {}

// Wait blocks until f reaches value or timeout expires.
func (d *Device) Wait(f gpucore.Fence, value uint64, timeout time.Duration) (bool, error) {
	sf, ok := f.(*Fence)
	if !ok {
		return false, fmt.Errorf("soft: wait on %T: %w", f, ErrForeignObject)
	}
	if err := d.Err(); err != nil {
		return false, err
	}
	if sf.wait(value, timeout, d.lost) {
		return true, nil
	}
	return false, d.Err()
}

// Queue returns the device itself; the software GPU has one queue.
func (d *Device) Queue() gpucore.Queue { return d }

// Submit enqueues buffers and an optional fence signal. It blocks only when
// the submission buffer is full.
func (d *Device) Submit(buffers []gpucore.CommandBuffer, f gpucore.Fence, value uint64) error {
	sub := submission{value: value}
	for _, b := range buffers {
		cb, ok := b.(*CommandBuffer)
		if !ok {
			return fmt.Errorf("soft: submit %T: %w", b, ErrForeignObject)
		}
		if !cb.finished {
			return fmt.Errorf("soft: submit %q: %w", cb.label, ErrNotRecording)
		}
		sub.buffers = append(sub.buffers, cb)
	}
	if f != nil {
		sf, ok := f.(*Fence)
		if !ok {
			return fmt.Errorf("soft: signal %T: %w", f, ErrForeignObject)
		}
		sub.fence = sf
	}
	return d.enqueue(sub)
}

func (d *Device) enqueue(sub submission) error {
	if err := d.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceClosed
	}
	for _, cb := range sub.buffers {
		cb.submitted = true
	}
	d.work <- sub
	return nil
}

// CreateAllocator creates command memory for one frame slot.
func (d *Device) CreateAllocator(label string) (gpucore.Allocator, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDeviceClosed
	}
	return &Allocator{label: label}, nil
}

// Destroy stops the worker after it has executed everything already
// submitted. It is idempotent.
func (d *Device) Destroy() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.work)
	d.mu.Unlock()

	if err := d.group.Wait(); err != nil {
		framepace.Logger().Warn("soft: worker stopped with error", "err", err)
	}
	framepace.Logger().Info("soft: device destroyed", "executed", d.Executed())
}
