// Copyright 2024 The shadowgc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shadowgc

// Leaf wraps a value that is statically known to contain no managed
// references — the NullTrace marker. Composite Trace implementations do not
// strictly need this: any field whose type does not itself implement Trace
// is already treated as a leaf by the fallback in trace.go. Leaf exists for
// the common case of a blanket primitive-type impl (lib.rs gives every
// primitive type a trivial Trace impl) — wrapping a value in Leaf[T] makes
// that "contains nothing traceable" promise explicit and self-documenting
// at the field declaration, rather than implicit in what the field's type
// happens not to implement. It also satisfies GcSafe, so Leaf[T] can be
// allocated directly as well as embedded as a field.
type Leaf[T any] struct {
	Value T
}

func (Leaf[T]) NeedsTrace() bool        { return false }
func (Leaf[T]) Visit(*Visitor)          {}
func (Leaf[T]) NeedsDrop() bool         { return false }
func (Leaf[T]) isNullTrace()            {}
func (Leaf[T]) VisitImmutable(*Visitor) {}

var (
	_ NullTrace      = Leaf[int]{}
	_ TraceImmutable = Leaf[int]{}
	_ GcSafe         = Leaf[int]{}
)
