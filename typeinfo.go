// Copyright 2024 The shadowgc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shadowgc

import (
	"reflect"
	"sync"
	"unsafe"
)

// typeInfo is the immutable, statically-built descriptor for a payload type,
// shared by every allocation of that type. It is built once and never
// mutated after construction.
type typeInfo struct {
	name        string
	valueSize   uintptr
	valueOffset uintptr
	totalSize   uintptr
	small       bool
	needsTrace  bool
	traceFn     func(payload unsafe.Pointer, v *Visitor)
	dropFn      func(payload unsafe.Pointer) // nil iff the payload needs no destruction
}

// smallSlot mirrors the small-arena allocation shape: a header immediately
// followed by the payload. The large-object shape
// (largeBox[T]) is defined in largeobj.go, alongside the large-object list
// it backs.
type smallSlot[T any] struct {
	header objHeader
	value  T
}

var typeInfoRegistry sync.Map // reflect.Type -> *typeInfo

// typeInfoFor returns the (lazily built, cached) descriptor for T. Building
// it is read-only and idempotent, so a race to build it twice is harmless:
// LoadOrStore resolves to a single winner.
func typeInfoFor[T any]() *typeInfo {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	if v, ok := typeInfoRegistry.Load(rt); ok {
		return v.(*typeInfo)
	}
	ti := buildTypeInfo[T](rt)
	actual, _ := typeInfoRegistry.LoadOrStore(rt, ti)
	return actual.(*typeInfo)
}

func buildTypeInfo[T any](rt reflect.Type) *typeInfo {
	var small smallSlot[T]
	smallOffset := uintptr(unsafe.Pointer(&small.value)) - uintptr(unsafe.Pointer(&small))
	valueSize := unsafe.Sizeof(small.value)

	isSmall := smallOffset+valueSize <= maxSmallSize

	var offset uintptr
	if isSmall {
		offset = smallOffset
	} else {
		var large largeBox[T]
		offset = uintptr(unsafe.Pointer(&large.value)) - uintptr(unsafe.Pointer(&large))
	}

	ti := &typeInfo{
		name:        rt.String(),
		valueSize:   valueSize,
		valueOffset: offset,
		totalSize:   offset + valueSize,
		small:       isSmall,
		needsTrace:  needsTraceValue[T](),
		traceFn: func(payload unsafe.Pointer, v *Visitor) {
			traceValue((*T)(payload), v)
		},
	}
	if dropFn := buildDropFn[T](); dropFn != nil {
		ti.dropFn = func(payload unsafe.Pointer) {
			dropFn((*T)(payload))
		}
	}
	return ti
}

// buildDropFn decides, once per type, whether reclaiming a T must run a
// destructor. GcSafe.NeedsDrop is the authority when T implements it: false
// means never call Finalize even if one exists, and true requires one to
// exist (a type that claims a destructor but provides none is a
// programming error, caught here instead of silently doing nothing at
// sweep time). T not implementing the contract at all (typeInfoFor is
// usable for any T, not only ones that have gone through Alloc) falls back
// to Finalizer's mere presence, the same optional-interface idiom
// needsTraceValue/traceValue use for Trace.
func buildDropFn[T any]() func(*T) {
	var zero T
	nd, hasContract := any(&zero).(interface{ NeedsDrop() bool })
	_, hasFinalizer := any(&zero).(Finalizer)

	if hasContract && !nd.NeedsDrop() {
		return nil
	}
	if hasFinalizer {
		return func(t *T) {
			any(t).(Finalizer).Finalize()
		}
	}
	if hasContract && nd.NeedsDrop() {
		fatal("shadowgc: type %s declares NeedsDrop() == true but implements no Finalize method", reflect.TypeOf(zero))
	}
	return nil
}
