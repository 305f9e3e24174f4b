// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"fmt"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/framepace"
	"github.com/gogpu/framepace/gpucore"
)

// Device is a HAL device with its queue. It implements gpucore.Device.
type Device struct {
	gpu    gpuDevice
	queue  *queue
	format gputypes.TextureFormat

	instance hal.Instance // nil unless opened standalone
	adapter  string
	external bool // owned by a provider; Destroy leaves it alone
}

// NewDevice wraps an existing HAL device and queue. The caller keeps
// ownership of both.
func NewDevice(device hal.Device, q hal.Queue) *Device {
	return newDevice(halDevice{dev: device}, halQueue{q: q}, true)
}

func newDevice(dev gpuDevice, q gpuQueue, external bool) *Device {
	return &Device{
		gpu:      dev,
		queue:    &queue{q: q},
		format:   gputypes.TextureFormatBGRA8Unorm,
		external: external,
	}
}

// FromProvider shares the device of a host application. The provider must
// implement HalDevice() any and HalQueue() any returning hal.Device and
// hal.Queue. Back buffers use the provider's surface format.
func FromProvider(provider gpucontext.DeviceProvider) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrNoHAL, hp.HalDevice())
	}
	q, ok := hp.HalQueue().(hal.Queue)
	if !ok || q == nil {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrNoHAL, hp.HalQueue())
	}
	d := NewDevice(device, q)
	if f := provider.SurfaceFormat(); f != gputypes.TextureFormatUndefined {
		d.format = f
	}
	framepace.Logger().Info("native: using shared device", "format", d.format)
	return d, nil
}

// Open creates a standalone Vulkan device on the first discrete or
// integrated GPU, falling back to the first adapter found.
func Open() (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("native: vulkan backend: %w", ErrNoGPU)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("native: create instance: %w: %w", framepace.ErrResourceCreationFailed, err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoGPU
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("native: open device: %w: %w", framepace.ErrResourceCreationFailed, err)
	}
	d := newDevice(halDevice{dev: openDev.Device}, halQueue{q: openDev.Queue}, false)
	d.instance = instance
	d.adapter = selected.Info.Name
	framepace.Logger().Info("native: device opened", "adapter", d.adapter)
	return d, nil
}

// Adapter returns the adapter name of a standalone device.
func (d *Device) Adapter() string { return d.adapter }

// Format returns the back-buffer format.
func (d *Device) Format() gputypes.TextureFormat { return d.format }

// pollInterval is how often Wait re-reads the queue's completed index.
const pollInterval = 250 * time.Microsecond

// CreateFence creates a timeline fence on the device queue. Its values are
// resolved against the queue's submission indices.
func (d *Device) CreateFence() (gpucore.Fence, error) {
	return &timeline{}, nil
}

// DestroyFence releases a fence created by CreateFence.
func (d *Device) DestroyFence(f gpucore.Fence) {
	if tl, ok := f.(*timeline); ok {
		tl.destroyed = true
		tl.points = nil
	}
}

// Wait blocks until f reaches value or timeout expires. A zero timeout
// polls once.
func (d *Device) Wait(f gpucore.Fence, value uint64, timeout time.Duration) (bool, error) {
	tl, ok := f.(*timeline)
	if !ok {
		return false, fmt.Errorf("native: wait on %T: %w", f, ErrForeignObject)
	}
	if tl.destroyed {
		return false, framepace.ErrClosed
	}
	if tl.reached(value, d.queue.q.PollCompleted()) {
		return true, nil
	}
	if timeout <= 0 {
		return false, nil
	}
	deadline := time.Now().Add(timeout)
	for {
		time.Sleep(min(pollInterval, time.Until(deadline)))
		if tl.reached(value, d.queue.q.PollCompleted()) {
			return true, nil
		}
		if !time.Now().Before(deadline) {
			return false, nil
		}
	}
}

// Queue returns the device queue.
func (d *Device) Queue() gpucore.Queue { return d.queue }

// CreateAllocator creates a command allocator for one frame slot.
func (d *Device) CreateAllocator(label string) (gpucore.Allocator, error) {
	return &Allocator{gpu: d.gpu, label: label}, nil
}

// Destroy releases a device opened with Open. Shared devices are left to
// their owner.
func (d *Device) Destroy() {
	if d.external {
		return
	}
	if d.gpu != nil {
		d.gpu.Destroy()
		d.gpu = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
	framepace.Logger().Info("native: device destroyed")
}

type queue struct {
	q    gpuQueue
	last uint64 // submission index of the most recent command buffers
}

// Submit submits buffers and then, if f is set, signals value on f once
// everything submitted so far has completed.
func (q *queue) Submit(buffers []gpucore.CommandBuffer, f gpucore.Fence, value uint64) error {
	var tl *timeline
	if f != nil {
		var ok bool
		if tl, ok = f.(*timeline); !ok {
			return fmt.Errorf("native: signal %T: %w", f, ErrForeignObject)
		}
		if tl.destroyed {
			return fmt.Errorf("native: signal %d: %w", value, framepace.ErrClosed)
		}
	}
	if len(buffers) > 0 {
		cbs := make([]hal.CommandBuffer, 0, len(buffers))
		for _, b := range buffers {
			cb, ok := b.(hal.CommandBuffer)
			if !ok {
				return fmt.Errorf("native: submit %T: %w", b, ErrForeignObject)
			}
			cbs = append(cbs, cb)
		}
		index, err := q.q.Submit(cbs)
		if err != nil {
			return err
		}
		q.last = max(q.last, index)
	}
	if tl != nil {
		tl.signal(value, q.last)
	}
	return nil
}
