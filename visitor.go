// Copyright 2024 The shadowgc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shadowgc

import "unsafe"

// Visitor carries the collector identity and grey queue through one mark
// phase. It is exported only so that hand-written Trace implementations
// can call v.Visit on nested Trace values; application code never
// constructs one itself.
type Visitor struct {
	collector *Collector
	grey      []*objHeader
}

const greyQueueInitialCapacity = 64

func newVisitor(c *Collector) *Visitor {
	return &Visitor{collector: c, grey: make([]*objHeader, 0, greyQueueInitialCapacity)}
}

// Visit traces a nested value that is not itself a Gc[T] but whose type
// implements Trace (e.g. a struct field holding another traceable struct
// by value). This is the generic fallback Visit path; Gc[T] overrides it
// with visitGc below, which is what actually drives marking.
func (v *Visitor) Visit(t Trace) {
	if t == nil {
		return
	}
	if !t.NeedsTrace() {
		return
	}
	t.Visit(v)
}

// visitGc is the specialised entry point invoked for every Gc[T] field
// encountered during tracing. It asserts the collector identity, locates
// the header by pointer subtraction, and performs the White/Grey/Black
// transition.
func visitGc[T any](v *Visitor, g Gc[T]) {
	if g.collector == nil {
		return // zero-value Gc[T], e.g. an unset optional field
	}
	if g.identity != v.collector.identity {
		fatal("shadowgc: wrong-collector Gc[%s] handed to visitor (got %s, want %s)",
			typeInfoFor[T]().name, g.identity, v.collector.identity)
	}

	ti := typeInfoFor[T]()
	h := headerOf(unsafe.Pointer(g.value), ti.valueOffset)
	switch h.state {
	case white:
		if !ti.needsTrace {
			h.state = black
			return
		}
		if v.collector.config.MarkMode == MarkRecursive {
			// Recurse immediately instead of queueing: no Grey ever
			// observably persists on this object between this call and
			// its completion.
			h.state = black
			payload := unsafe.Pointer(uintptr(unsafe.Pointer(h)) + ti.valueOffset)
			ti.traceFn(payload, v)
			return
		}
		h.state = grey
		v.grey = append(v.grey, h)
	case grey, black:
		// already discovered this phase; nothing to do.
	}
}
