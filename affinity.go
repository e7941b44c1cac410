// Copyright 2024 The shadowgc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shadowgc

import (
	"bytes"
	"runtime"
	"strconv"
)

// currentGoroutineID parses the numeric goroutine id out of a minimal stack
// trace. The source language enforces "the mutator context is !Send" at
// compile time; Go has no such mechanism, so a Context instead records the
// goroutine that created it and checks every entry point against it. This
// is intentionally not used on Deref — an ordinary read must never suspend,
// block, or re-enter the collector, and a cross-goroutine misuse of a raw
// *T obtained from Deref is the same kind of unchecked hazard a plain
// pointer has in any language; the guard covers the operations that
// actually touch collector-shared state (Alloc, Safepoint, RecurseContext,
// Close).
func currentGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// "goroutine 123 [running]:"
	b := buf[:n]
	const prefix = "goroutine "
	if !bytes.HasPrefix(b, []byte(prefix)) {
		return 0
	}
	b = b[len(prefix):]
	end := bytes.IndexByte(b, ' ')
	if end < 0 {
		return 0
	}
	id, err := strconv.ParseUint(string(b[:end]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
