// Copyright 2024 The shadowgc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shadowgc

import (
	"fmt"
	"unsafe"

	"github.com/google/uuid"
)

// Gc[T] is a managed reference: a pointer plus the collector's opaque
// identity. In the source language this is lifetime-parameterised so the
// compiler rejects a Gc used after the memory it names could have been
// reclaimed; Go has no lifetimes, so this port enforces the same thing
// dynamically with a generation counter, stamped on the handle at
// allocation time and checked against the live counter in the object's
// header on every dereference (see header.go and DESIGN.md — a naive "one
// counter per collection, bumped at every Safepoint" design was considered
// and rejected because it false-positives on handles nested inside a
// still-reachable root; per-object generations, bumped only when that exact
// slot is actually freed, do not have that problem).
type Gc[T any] struct {
	collector  *Collector
	identity   uuid.UUID
	generation uint64
	value      *T
}

// StaleGcHandleError reports that a Gc[T] was dereferenced after the object
// it named was reclaimed — the
// dynamic analogue of a borrow-checker rejection at the safepoint that
// would have invalidated it.
type StaleGcHandleError struct {
	TypeName         string
	HandleGeneration uint64
	LiveGeneration   uint64
}

func (e *StaleGcHandleError) Error() string {
	return fmt.Sprintf("shadowgc: stale Gc[%s] handle (generation %d, slot is now generation %d) — the object was collected, most likely because it wasn't reachable from a root at the last Safepoint",
		e.TypeName, e.HandleGeneration, e.LiveGeneration)
}

func (g Gc[T]) header() *objHeader {
	return headerOf(unsafe.Pointer(g.value), typeInfoFor[T]().valueOffset)
}

func (g Gc[T]) checkLive() {
	if g.collector == nil {
		panic(&StaleGcHandleError{})
	}
	if g.identity != g.collector.identity {
		fatal("shadowgc: Gc handle belongs to a different collector")
	}
	live := g.header().generation
	if g.generation != live {
		panic(&StaleGcHandleError{
			TypeName:         typeInfoFor[T]().name,
			HandleGeneration: g.generation,
			LiveGeneration:   live,
		})
	}
}

// Deref returns the payload. Calling it on a handle whose object has since
// been collected panics with *StaleGcHandleError.
func (g Gc[T]) Deref() *T {
	g.checkLive()
	return g.value
}

// IsValid reports whether g's object is still live, without panicking.
func (g Gc[T]) IsValid() bool {
	return g.collector != nil && g.identity == g.collector.identity && g.generation == g.header().generation
}

// NeedsTrace is always true for Gc[T]: a managed reference is, definitionally,
// something the collector must trace through.
func (Gc[T]) NeedsTrace() bool { return true }

// Visit drives marking through the specialised visitor entry point
// (visitGc).
func (g Gc[T]) Visit(v *Visitor) {
	visitGc(v, g)
}

// rebrand is the dynamic-generation analogue of the source language's
// GcBrand/GcRebrand: there, this is a purely static operation with no
// runtime work, and it is exactly that here too. Validity is carried by the
// per-object generation rather than by anything stored against a particular
// safepoint, so re-associating a root with the lifetime beginning after a
// safepoint requires no data to change at all — the value is simply handed
// back unmodified. The method exists so call sites that conceptually
// "rebrand" read that way, matching the source language's vocabulary.
func (g Gc[T]) rebrand() Gc[T] { return g }

func (g Gc[T]) String() string {
	if !g.IsValid() {
		return "Gc(<stale>)"
	}
	return fmt.Sprintf("Gc(%v)", *g.value)
}

// Equal reports whether two live Gc[T] handles refer to value-equal
// payloads, delegating to T's own equality the way the source language's
// PartialEq delegation does. It is a free function, not a method, because
// Go does not allow a method to introduce the extra `comparable` type
// parameter needed here.
func Equal[T comparable](a, b Gc[T]) bool {
	return *a.Deref() == *b.Deref()
}
