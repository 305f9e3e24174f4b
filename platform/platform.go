// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package platform holds the window state shared by the application and
// the sample driver.
//
// There is no native window here. A host (a windowing toolkit, a test or
// the headless demo) owns a Context, posts input through it and reads the
// quit request back.
package platform

import (
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
)

// DefaultEventQueue is the number of events buffered before Post drops.
const DefaultEventQueue = 64

// EventKind identifies an Event.
type EventKind int

const (
	EventKeyDown EventKind = iota + 1
	EventKeyUp
	EventResize
	EventQuit
)

func (k EventKind) String() string {
	switch k {
	case EventKeyDown:
		return "KeyDown"
	case EventKeyUp:
		return "KeyUp"
	case EventResize:
		return "Resize"
	case EventQuit:
		return "Quit"
	default:
		return "Unknown"
	}
}

// Event is an input or window event.
type Event struct {
	Kind EventKind

	Key  gpucontext.Key
	Mods gpucontext.Modifiers

	Width, Height int // EventResize
}

// Context is the window state of one application: title, client size,
// pending input and the quit flag. It is created by the application and
// passed explicitly to whatever needs it.
//
// Post, RequestQuit and QuitRequested are safe for concurrent use, so a
// host may deliver input from another goroutine. The remaining methods
// belong to the render goroutine.
type Context struct {
	title string

	mu            sync.Mutex
	width, height int

	events  chan Event
	dropped atomic.Uint64
	quit    atomic.Bool
}

// New creates a context for a client area of width x height pixels.
func New(title string, width, height int) *Context {
	return &Context{
		title:  title,
		width:  width,
		height: height,
		events: make(chan Event, DefaultEventQueue),
	}
}

// Title returns the window title.
func (c *Context) Title() string { return c.title }

// Size returns the client size.
func (c *Context) Size() (width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

// AspectRatio returns width / height, or 1 for an empty client area.
func (c *Context) AspectRatio() float32 {
	w, h := c.Size()
	if w <= 0 || h <= 0 {
		return 1
	}
	return float32(w) / float32(h)
}

// Post queues an event without blocking. It reports false and counts the
// event as dropped when the queue is full.
func (c *Context) Post(ev Event) bool {
	select {
	case c.events <- ev:
		return true
	default:
		c.dropped.Add(1)
		return false
	}
}

// KeyDown posts a key press.
func (c *Context) KeyDown(key gpucontext.Key, mods gpucontext.Modifiers) bool {
	return c.Post(Event{Kind: EventKeyDown, Key: key, Mods: mods})
}

// Dropped returns the number of events lost to a full queue.
func (c *Context) Dropped() uint64 { return c.dropped.Load() }

// Poll returns the next pending event, if any. Resize and quit events
// update the context before they are returned.
func (c *Context) Poll() (Event, bool) {
	select {
	case ev := <-c.events:
		switch ev.Kind {
		case EventResize:
			c.mu.Lock()
			c.width, c.height = ev.Width, ev.Height
			c.mu.Unlock()
		case EventQuit:
			c.quit.Store(true)
		}
		return ev, true
	default:
		return Event{}, false
	}
}

// Pump delivers every pending event to handle and returns the count.
func (c *Context) Pump(handle func(Event)) int {
	n := 0
	for {
		ev, ok := c.Poll()
		if !ok {
			return n
		}
		n++
		if handle != nil {
			handle(ev)
		}
	}
}

// RequestQuit asks the render loop to stop after the current frame.
func (c *Context) RequestQuit() { c.quit.Store(true) }

// QuitRequested reports whether RequestQuit was called or a quit event was
// polled.
func (c *Context) QuitRequested() bool { return c.quit.Load() }
