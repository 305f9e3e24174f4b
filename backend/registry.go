// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/framepace"
	"github.com/gogpu/framepace/gpucore"
)

// BackendFactory creates a new backend instance.
type BackendFactory func() Backend

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]BackendFactory)
	// Priority order for backend selection (first available wins).
	// Native > Soft (Soft is the fallback that always works).
	backendPriority = []string{BackendNative, BackendSoft}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory BackendFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the registered backend names in selection order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return orderedNames()
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Get returns a backend instance by name.
// Returns nil if the backend is not registered.
func Get(name string) Backend {
	registryMu.RLock()
	defer registryMu.RUnlock()

	factory, ok := backends[name]
	if !ok {
		return nil
	}
	return factory()
}

// Default returns the best available backend based on priority.
// Returns nil if no backends are registered.
func Default() Backend {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range orderedNames() {
		if b := backends[name](); b != nil {
			return b
		}
	}
	return nil
}

// Open opens the backend registered under name.
func Open(name string, cfg framepace.Config, width, height int) (Backend, gpucore.Device, gpucore.SwapChain, error) {
	b := Get(name)
	if b == nil {
		return nil, nil, nil, fmt.Errorf("backend %q: %w", name, ErrBackendNotAvailable)
	}
	dev, swap, err := b.Open(cfg, width, height)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("backend %q: %w", name, err)
	}
	framepace.Logger().Info("backend: opened", "backend", name, "width", width, "height", height,
		"buffers", swap.BufferCount())
	return b, dev, swap, nil
}

// OpenDefault opens the first backend, in priority order, that opens
// successfully. The errors of skipped backends are returned joined if none
// succeeds.
func OpenDefault(cfg framepace.Config, width, height int) (Backend, gpucore.Device, gpucore.SwapChain, error) {
	names := Available()
	if len(names) == 0 {
		return nil, nil, nil, ErrBackendNotAvailable
	}
	var errs []error
	for _, name := range names {
		b, dev, swap, err := Open(name, cfg, width, height)
		if err == nil {
			return b, dev, swap, nil
		}
		framepace.Logger().Warn("backend: falling back", "backend", name, "err", err)
		errs = append(errs, err)
	}
	return nil, nil, nil, fmt.Errorf("%w: %w", ErrBackendNotAvailable, errors.Join(errs...))
}

// orderedNames lists registered backends: priority names first, then the
// rest sorted. Callers hold registryMu.
func orderedNames() []string {
	names := make([]string, 0, len(backends))
	seen := make(map[string]bool, len(backendPriority))
	for _, name := range backendPriority {
		if _, ok := backends[name]; ok {
			names = append(names, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range backends {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}
