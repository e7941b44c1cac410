// Copyright 2024 The shadowgc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shadowgc

import (
	"time"
	"unsafe"
)

// MarkMode selects between the two marking strategies below. Both are
// correct; the choice only affects stack usage versus speed on deep object
// graphs. The source design treats this as a build-time choice so the
// visitor code can specialise; in Go, where both paths are plain functions
// rather than distinct compiled artifacts, a runtime field on
// CollectorConfig serves the same purpose without needing a second build of
// the package.
type MarkMode int

const (
	// MarkQueue drains an explicit grey queue (the default). Bounds stack
	// usage at the cost of a heap buffer and a pointer store/load per grey
	// transition.
	MarkQueue MarkMode = iota
	// MarkRecursive recurses through each object's trace thunk instead of
	// queueing it. Faster on shallow graphs, but risks stack overflow on
	// deep ones.
	MarkRecursive
)

const initialThreshold = 2048 // bytes

// collectionStats is reported to the optional metrics hook after each run.
type collectionStats struct {
	survivedBytes uint64
	freedBytes    uint64
	duration      time.Duration
}

// mark runs the marking phase: seed the grey queue from every shadow-stack
// root, then drain it, tracing each object's interior and promoting it to
// Black.
func (c *Collector) mark() {
	v := newVisitor(c)
	c.roots.traceRoots(v)

	// In MarkRecursive mode, visitGc already drained each object's
	// interior inline, so v.grey stays empty and this loop is a no-op; in
	// MarkQueue mode (the default) it drains the explicit grey queue.
	for len(v.grey) > 0 {
		last := len(v.grey) - 1
		h := v.grey[last]
		v.grey = v.grey[:last]
		payload := unsafe.Pointer(uintptr(unsafe.Pointer(h)) + h.typ.valueOffset)
		h.typ.traceFn(payload, v)
		h.state = black
	}
}

// collect runs one full stop-the-world cycle: mark, sweep, recompute the
// threshold.
func (c *Collector) collect() collectionStats {
	start := time.Now()
	before := c.alloc.liveBytes

	c.mark()
	survived := c.alloc.sweep()

	c.threshold = uint64(1.5 * float64(survived))
	if c.threshold < initialThreshold {
		c.threshold = initialThreshold
	}

	stats := collectionStats{
		survivedBytes: survived,
		freedBytes:    before - survived,
		duration:      time.Since(start),
	}
	c.recordCollection(stats)
	return stats
}

// maybeCollect runs a collection only if live bytes has reached the current
// threshold.
func (c *Collector) maybeCollect() {
	if c.alloc.liveBytes >= c.threshold {
		c.collect()
	}
}
