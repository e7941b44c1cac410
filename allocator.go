// Copyright 2024 The shadowgc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shadowgc

import (
	"reflect"
	"unsafe"
)

// allocator is the set of small-object arenas (one per payload type, lazily
// created) plus the large-object list, and the live-byte accounting the
// collector's invariants require.
type allocator struct {
	arenas     map[reflect.Type]any // reflect.Type -> *typedArena[T], built lazily per type
	sweepers   []func() sweepStats  // one per distinct small type seen, in first-seen order
	largeBoxes []largeBoxRef
	liveBytes  uint64
}

func newAllocator() *allocator {
	return &allocator{arenas: make(map[reflect.Type]any)}
}

// smallArenaFor returns this allocator's arena for T, building it (and
// registering it for sweep) the first time T is allocated. The arena lives
// on the allocator, not in the process-wide typeInfo cache, so distinct
// Collectors never share backing memory for the same payload type.
func smallArenaFor[T any](a *allocator, rt reflect.Type) *typedArena[T] {
	if v, ok := a.arenas[rt]; ok {
		return v.(*typedArena[T])
	}
	ar := newTypedArena[T]()
	a.arenas[rt] = ar
	a.sweepers = append(a.sweepers, func() sweepStats { return ar.sweep() })
	return ar
}

// allocPayload classifies T as small or large and allocates accordingly,
// returning a raw pointer to the freshly constructed payload.
func allocPayload[T any](a *allocator, value T) (unsafe.Pointer, *typeInfo) {
	ti := typeInfoFor[T]()
	if ti.small {
		ar := smallArenaFor[T](a, reflect.TypeOf((*T)(nil)).Elem())
		slot := ar.allocSlot()
		h := (*objHeader)(slot)
		h.typ = ti
		h.state = white
		payload := unsafe.Pointer(uintptr(slot) + ti.valueOffset)
		*(*T)(payload) = value
		a.liveBytes += uint64(ti.totalSize)
		return payload, ti
	}
	return allocLarge(a, ti, value), ti
}

// sweep runs a full sweep: every small arena, then the large list, then
// asserts the survivor-byte total against the pre-sweep live total before
// updating it.
func (a *allocator) sweep() (survived uint64) {
	provisional := a.liveBytes
	var freed, survivedAcc uint64
	for _, sw := range a.sweepers {
		stats := sw()
		freed += uint64(stats.freedBytes)
		survivedAcc += uint64(stats.survivedBytes)
	}
	stats := a.sweepLarge()
	freed += uint64(stats.freedBytes)
	survivedAcc += uint64(stats.survivedBytes)

	if provisional-freed != survivedAcc {
		fatal("shadowgc: survivor-byte accounting mismatch: expected %d, got %d", provisional-freed, survivedAcc)
	}
	a.liveBytes = survivedAcc
	return survivedAcc
}
