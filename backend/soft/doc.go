// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package soft implements a software GPU for the frame pacing core.
//
// Command buffers are executed in submission order by a worker goroutine,
// so the CPU and the "GPU" genuinely run in parallel. Fences are timeline
// fences: a signal sets the fence value once every earlier submission has
// executed, and waits block until the value is reached.
//
// Back buffers are *image.RGBA. Clears are rasterised; draws are counted and
// forwarded to their Record callback with a *Pass. Present copies the back
// buffer into a front image that can be read after a drain.
//
// Importing the package registers the "soft" backend:
//
//	import _ "github.com/gogpu/framepace/backend/soft"
package soft
