// Copyright 2024 The shadowgc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package shadowgc is an embeddable, single-threaded tracing mark-sweep
// collector.
//
// The mutator allocates through a Context, which hands back a Gc[T] handle
// tied to the generation of the object it names. At a Safepoint the mutator
// declares its live roots explicitly; anything unreachable from those roots
// becomes eligible for reclamation. There is no compiler borrow checker
// backing that invalidation here (Go has none), so it is enforced
// dynamically: every managed object carries a generation counter bumped
// once when it is actually freed, every Gc[T] stamps the generation it saw
// at allocation time, and any later dereference of a handle whose object has
// since been freed panics. See DESIGN.md for the full mapping from the
// host-language-agnostic design to this port.
//
// The collector is not safe for concurrent use. A Context must be used from
// a single goroutine for its entire lifetime.
package shadowgc
