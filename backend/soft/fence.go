// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import (
	"sync"
	"time"
)

// Fence is a timeline fence. Its value only moves forward.
type Fence struct {
	mu      sync.Mutex
	value   uint64
	changed chan struct{} // closed and replaced on every signal
}

func newFence() *Fence {
	return &Fence{changed: make(chan struct{})}
}

// Value returns the completed value.
func (f *Fence) Value() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

func (f *Fence) signal(value uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if value <= f.value {
		return
	}
	f.value = value
	close(f.changed)
	f.changed = make(chan struct{})
}

// wait blocks until the fence reaches value or timeout expires.
// A zero timeout polls.
func (f *Fence) wait(value uint64, timeout time.Duration, lost <-chan struct{}) bool {
	var timer *time.Timer
	for {
		f.mu.Lock()
		reached := f.value >= value
		changed := f.changed
		f.mu.Unlock()
		if reached {
			return true
		}
		if timeout <= 0 {
			return false
		}
		if timer == nil {
			timer = time.NewTimer(timeout)
			defer timer.Stop()
		}
		select {
		case <-changed:
		case <-lost:
			return false
		case <-timer.C:
			return f.Value() >= value
		}
	}
}
