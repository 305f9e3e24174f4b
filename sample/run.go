// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sample

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/framepace"
	"github.com/gogpu/framepace/platform"
	"github.com/gogpu/framepace/scheduler"
)

// RunOption configures Run.
type RunOption func(*runConfig)

type runConfig struct {
	maxFrames int
	step      time.Duration
	now       func() time.Time
}

// WithMaxFrames stops the loop after n frames. Zero runs until quit or
// cancellation.
func WithMaxFrames(n int) RunOption {
	return func(c *runConfig) {
		c.maxFrames = n
	}
}

// WithFixedStep advances the simulation by d every frame instead of the
// measured wall-clock time.
func WithFixedStep(d time.Duration) RunOption {
	return func(c *runConfig) {
		c.step = d
	}
}

// Run drives s through sched until the platform requests quit, the frame
// limit is reached or ctx is canceled.
//
// Each iteration pumps pending platform events, updates the sample and
// records one frame between BeginFrame and EndFrame. Non-fatal submit
// and present failures are logged and the loop continues. On exit Run
// closes the scheduler, which drains the queue once, and only then
// destroys the sample. The returned stats are taken after the drain.
func Run(ctx context.Context, s Sample, sched *scheduler.Scheduler, pc *platform.Context, opts ...RunOption) (scheduler.Stats, error) {
	rc := runConfig{now: time.Now}
	for _, opt := range opts {
		opt(&rc)
	}

	env := Env{Platform: pc, BufferCount: sched.Ring().Len()}
	if slot, err := sched.Ring().Slot(0); err == nil && slot.Target != nil {
		env.Format = slot.Target.Format()
	}
	if err := s.Init(env); err != nil {
		closeErr := sched.Close(context.WithoutCancel(ctx))
		return sched.Stats(), errors.Join(fmt.Errorf("sample %s: init: %w", s.Name(), err), closeErr)
	}

	log := framepace.Logger()
	log.Info("sample: running", "sample", s.Name(), "buffers", env.BufferCount, "maxFrames", rc.maxFrames)

	keys, _ := s.(KeyHandler)
	handle := func(ev platform.Event) {
		if ev.Kind == platform.EventKeyDown && keys != nil {
			keys.KeyDown(ev.Key, ev.Mods)
		}
	}

	var runErr error
	last := rc.now()
	for n := 0; rc.maxFrames == 0 || n < rc.maxFrames; n++ {
		if pc != nil {
			pc.Pump(handle)
			if pc.QuitRequested() {
				log.Debug("sample: quit requested", "frame", n)
				break
			}
		}
		if ctx.Err() != nil {
			break
		}

		dt := rc.step
		if dt == 0 {
			now := rc.now()
			dt, last = now.Sub(last), now
		}
		s.Update(dt)

		if err := frame(ctx, s, sched); err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				break
			}
			if framepace.IsFatal(err) || !isFrameRecoverable(err) {
				runErr = err
				break
			}
			log.Warn("sample: frame failed", "sample", s.Name(), "frame", n, "err", err)
		}
	}

	closeErr := sched.Close(context.WithoutCancel(ctx))
	s.Destroy()
	stats := sched.Stats()
	log.Info("sample: stopped", "sample", s.Name(), "frames", stats.Frames, "blockingWaits", stats.BlockingWaits)
	return stats, errors.Join(runErr, closeErr)
}

// frame records and submits one frame.
func frame(ctx context.Context, s Sample, sched *scheduler.Scheduler) error {
	f, err := sched.Begin(ctx)
	if err != nil {
		return err
	}
	if err := s.Render(f); err != nil {
		return fmt.Errorf("sample %s: render frame %d: %w", s.Name(), f.Index, err)
	}
	return sched.EndFrame(f.Index)
}

// isFrameRecoverable reports whether the loop may continue after err.
// A rejected submission or a failed present leaves the scheduler idle
// with every slot still tracked.
func isFrameRecoverable(err error) bool {
	var fe *framepace.FrameError
	if !errors.As(err, &fe) {
		return false
	}
	return fe.Op == "submit" || fe.Op == "present"
}
