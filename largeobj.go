// Copyright 2024 The shadowgc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shadowgc

import "unsafe"

// largeBox is the large-object shape: a header and the payload, logically
// linked into an intrusive list. Go generics cannot express a single
// type-erased intrusive linked list the way a systems language can (the
// prev pointer would have to live in objHeader itself and be wasted on
// every small object), so the allocator instead keeps the list as an
// ordered slice of type-erased handles (largeBoxRef); each handle still
// only exposes the header, exactly as a real intrusive list node would, and
// the allocator still walks it head-to-tail and rebuilds it in place on
// every sweep, matching the observable behavior of a true intrusive list.
type largeBox[T any] struct {
	header objHeader
	value  T
}

// largeBoxRef is the type-erased handle the allocator's large list is built
// from. sweepLarge drops the allocator's own reference to a reclaimed box so
// nothing but a stale (and, after the generation check, unusable) Gc[T] in
// mutator code keeps it reachable; Go's own runtime collector reclaims the
// backing memory once that last reference is gone.
type largeBoxRef struct {
	header *objHeader
}

// allocLarge heap-allocates a box and links it at the head of the
// allocator's large-object list.
func allocLarge[T any](a *allocator, ti *typeInfo, value T) unsafe.Pointer {
	box := &largeBox[T]{
		header: objHeader{typ: ti, state: white},
		value:  value,
	}
	// Most-recently-allocated-first, the same head-insert convention
	// mcentral.go uses for its own span list.
	a.largeBoxes = append([]largeBoxRef{{header: &box.header}}, a.largeBoxes...)
	a.liveBytes += uint64(ti.totalSize)
	return unsafe.Pointer(&box.value)
}

// sweepLarge is the large-object half of the sweep: walk the list, drop
// White boxes (invoking their drop thunk), relink Black survivors with
// their mark reset to White, and abort on Grey.
func (a *allocator) sweepLarge() sweepStats {
	var stats sweepStats
	kept := make([]largeBoxRef, 0, len(a.largeBoxes))
	for _, ref := range a.largeBoxes {
		h := ref.header
		switch h.state {
		case white:
			stats.freedBytes += h.typ.totalSize
			if h.typ.dropFn != nil {
				payload := unsafe.Pointer(uintptr(unsafe.Pointer(h)) + h.typ.valueOffset)
				h.typ.dropFn(payload)
			}
			// Bump generation before letting go so a stale handle into
			// this exact box is detectably dead even though, unlike a
			// small slot, its memory is never reused for anything else.
			h.generation++
		case grey:
			fatal("shadowgc: grey object observed during sweep (%s)", h.typ.name)
		case black:
			stats.survivedBytes += h.typ.totalSize
			h.state = white
			kept = append(kept, ref)
		}
	}
	a.largeBoxes = kept
	return stats
}
