// Copyright 2024 The shadowgc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shadowgc

import "unsafe"

// slotsPerSlab is the number of slots carved out of each backing allocation
// a type's arena grows by, the "allocate a run of pages, amortize the cost"
// strategy malloc.go uses: growing in batches rather than one Go allocation
// per managed object is what makes the arena worth having over letting Go's
// own allocator handle every Gc[T] individually.
const slotsPerSlab = 256

// freeSlot overlays the first word of a free slot, exactly like the
// teacher's span free lists: freeing a slot threads it onto the arena's
// free list without any extra bookkeeping allocation. It aliases the same
// address as the slot's objHeader.typ field, which is itself pointer-typed,
// so the overlay never places a non-pointer bit pattern where the host
// collector expects to find (or not find) a pointer.
type freeSlot struct {
	next *freeSlot
}

// arenaSlab is the backing allocation one arena grows by. A []smallSlot[T]
// slab is an ordinary typed Go allocation, so the host runtime's own
// collector scans it exactly as it would any other slice of structs,
// finding and keeping alive every Gc[T] field, string, slice, or other
// pointer a payload embeds. A raw []byte buffer reinterpreted via
// unsafe.Pointer has none of that: Go's GC marks a []byte backing array
// noscan and never looks inside it, so a real pointer smuggled through one
// (a dropCounter's *int64, a Gc[T] field, anything heap-allocated) would be
// invisible to the host collector, which could then free its target while
// the shadow stack still considers the owning object reachable.
type arenaSlab[T any] struct {
	slots []smallSlot[T]
	live  []bool // live[i] reports whether slot i currently holds a managed object
}

// typedArena is a fixed-slot free-list allocator for exactly one payload
// type. Every small-object type gets its own arena, grown in slab-sized
// batches: unlike a size-class-indexed []byte arena, a []smallSlot[T] slab
// can only be scanned correctly if every slot in it really is a
// smallSlot[T], so arenas can no longer be shared across unrelated payload
// types that happen to round to the same size class.
type typedArena[T any] struct {
	slabs []*arenaSlab[T]
	free  *freeSlot
}

func newTypedArena[T any]() *typedArena[T] {
	return &typedArena[T]{}
}

// grow carves a fresh slab out of a single backing allocation and threads
// every slot in it onto the free list.
func (a *typedArena[T]) grow() {
	slab := &arenaSlab[T]{
		slots: make([]smallSlot[T], slotsPerSlab),
		live:  make([]bool, slotsPerSlab),
	}
	a.slabs = append(a.slabs, slab)
	for i := slotsPerSlab - 1; i >= 0; i-- {
		slot := (*freeSlot)(unsafe.Pointer(&slab.slots[i]))
		slot.next = a.free
		a.free = slot
	}
}

// allocSlot bump-allocates a slot from the free list, growing the arena
// first if it is empty, and marks it live for the next sweep.
func (a *typedArena[T]) allocSlot() unsafe.Pointer {
	if a.free == nil {
		a.grow()
	}
	slot := unsafe.Pointer(a.free)
	a.free = a.free.next
	a.markLive(slot, true)
	return slot
}

// markLive records whether the slot at the given address currently holds a
// managed object, for the benefit of sweep (which must skip slots that were
// never allocated, i.e. already on the free list).
func (a *typedArena[T]) markLive(slot unsafe.Pointer, live bool) {
	addr := uintptr(slot)
	for _, slab := range a.slabs {
		start := uintptr(unsafe.Pointer(&slab.slots[0]))
		stride := unsafe.Sizeof(slab.slots[0])
		end := start + uintptr(len(slab.slots))*stride
		if addr >= start && addr < end {
			idx := (addr - start) / stride
			slab.live[idx] = live
			return
		}
	}
	panic("shadowgc: slot does not belong to this arena")
}

// sweepStats accumulates the result of sweeping one arena.
type sweepStats struct {
	freedBytes    uintptr
	survivedBytes uintptr
}

// sweep is the small-arena half of the sweep algorithm: skip free slots,
// reclaim White ones (running their drop thunk first), abort on Grey (a
// marking bug), and reset Black survivors to White.
func (a *typedArena[T]) sweep() sweepStats {
	var stats sweepStats
	for _, slab := range a.slabs {
		for i := range slab.slots {
			if !slab.live[i] {
				continue
			}
			h := &slab.slots[i].header
			switch h.state {
			case white:
				stats.freedBytes += h.typ.totalSize
				if h.typ.dropFn != nil {
					payload := unsafe.Pointer(uintptr(unsafe.Pointer(h)) + h.typ.valueOffset)
					h.typ.dropFn(payload)
				}
				slab.live[i] = false
				h.generation++
				slot := (*freeSlot)(unsafe.Pointer(h))
				slot.next = a.free
				a.free = slot
			case grey:
				fatal("shadowgc: grey object observed during sweep (%s)", h.typ.name)
			case black:
				stats.survivedBytes += h.typ.totalSize
				h.state = white
			}
		}
	}
	return stats
}
