// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framepace

import (
	"fmt"
	"time"
)

// Limits for the number of frame slots.
const (
	MinBufferCount     = 1
	MaxBufferCount     = 8
	DefaultBufferCount = 2
)

// DefaultWaitQuantum is the longest single blocking call made into a backend
// fence wait. Longer waits are split into quanta so that context cancellation
// and WaitTimeout deadlines are observed.
const DefaultWaitQuantum = 100 * time.Millisecond

// Config holds the frame pacing configuration.
type Config struct {
	// BufferCount is the number of frame slots (N). It bounds CPU look-ahead
	// to N frames and usually matches the swap chain's back-buffer count.
	BufferCount int

	// WaitTimeout bounds a single WaitUntil call. Zero waits forever. When
	// the deadline passes the wait fails with ErrSyncTimeout and the device
	// is treated as lost.
	WaitTimeout time.Duration

	// WaitQuantum is the slice length of one blocking backend wait.
	WaitQuantum time.Duration

	// Label prefixes debug labels given to backend objects.
	Label string
}

// Option configures a Config.
//
// Example:
//
//	cfg := framepace.NewConfig(
//	    framepace.WithBufferCount(3),
//	    framepace.WithWaitTimeout(2*time.Second),
//	)
type Option func(*Config)

// DefaultConfig returns the configuration used by the samples: double
// buffering with an unbounded wait.
func DefaultConfig() Config {
	return Config{
		BufferCount: DefaultBufferCount,
		WaitTimeout: 0,
		WaitQuantum: DefaultWaitQuantum,
		Label:       "frame",
	}
}

// NewConfig returns DefaultConfig with opts applied.
func NewConfig(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithBufferCount sets the number of frame slots.
func WithBufferCount(n int) Option {
	return func(c *Config) {
		c.BufferCount = n
	}
}

// WithWaitTimeout bounds fence waits. Zero restores the unbounded wait.
func WithWaitTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.WaitTimeout = d
	}
}

// WithWaitQuantum sets the slice length of one blocking backend wait.
func WithWaitQuantum(d time.Duration) Option {
	return func(c *Config) {
		c.WaitQuantum = d
	}
}

// WithLabel sets the debug label prefix.
func WithLabel(label string) Option {
	return func(c *Config) {
		c.Label = label
	}
}

// Validate reports whether the configuration is usable.
func (c Config) Validate() error {
	if c.BufferCount < MinBufferCount || c.BufferCount > MaxBufferCount {
		return fmt.Errorf("framepace: buffer count %d outside [%d, %d]",
			c.BufferCount, MinBufferCount, MaxBufferCount)
	}
	if c.WaitTimeout < 0 {
		return fmt.Errorf("framepace: negative wait timeout %v", c.WaitTimeout)
	}
	if c.WaitQuantum <= 0 {
		return fmt.Errorf("framepace: wait quantum must be positive, got %v", c.WaitQuantum)
	}
	return nil
}

// Unbounded reports whether fence waits have no deadline.
func (c Config) Unbounded() bool {
	return c.WaitTimeout == 0
}
