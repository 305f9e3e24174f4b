// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import "slices"

// timeline is the backend's fence. The HAL reports completion per queue
// submission rather than per fence value, so every signaled value records
// the index of the last submission queued before it. A value is reached
// once the queue has completed that index.
type timeline struct {
	points    []timelinePoint // ascending in both value and index
	completed uint64
	destroyed bool
}

type timelinePoint struct {
	value uint64
	index uint64
}

func (t *timeline) signal(value, index uint64) {
	t.points = append(t.points, timelinePoint{value: value, index: index})
}

// reached folds every point the queue has finished into completed and
// reports whether value is covered.
func (t *timeline) reached(value, polled uint64) bool {
	n := 0
	for n < len(t.points) && t.points[n].index <= polled {
		t.completed = t.points[n].value
		n++
	}
	t.points = slices.Delete(t.points, 0, n)
	return value <= t.completed
}
