// Copyright 2024 The shadowgc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shadowgc

import "unsafe"

// markState is the tri-color mark of a managed object. It is encoded in a
// single byte; the header is the type-info word, this tag, and a generation
// word.
type markState uint8

const (
	white markState = iota
	grey
	black
)

func (s markState) String() string {
	switch s {
	case white:
		return "white"
	case grey:
		return "grey"
	case black:
		return "black"
	default:
		return "invalid"
	}
}

// objHeader is the fixed prefix on every managed allocation: a pointer to
// the payload's type info plus its mark state, and a generation counter
// used to detect use of a Gc[T] handle whose underlying slot has since been
// freed (see gc.go). The source language rejects that case at compile time
// via lifetimes; generation is this port's dynamic substitute, bumped once
// per free so that neither a handle minted before the free nor one minted
// for whatever gets allocated into the slot afterward can collide.
type objHeader struct {
	typ        *typeInfo
	state      markState
	generation uint64
}

// headerOf recovers the header address from a payload pointer by inverting
// the header-to-payload displacement recorded in the type info. This
// inversion must be exact for every allocation path.
func headerOf(payload unsafe.Pointer, valueOffset uintptr) *objHeader {
	return (*objHeader)(unsafe.Pointer(uintptr(payload) - valueOffset))
}
