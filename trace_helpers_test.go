// Copyright 2024 The shadowgc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shadowgc

import "sync/atomic"

// leafInt is a trivial GcSafe leaf, standing in for the primitive types
// original_source/libs/simple/src/lib.rs gives blanket Trace impls to.
type leafInt int

func (leafInt) NeedsTrace() bool { return false }
func (leafInt) Visit(*Visitor)   {}
func (leafInt) NeedsDrop() bool  { return false }

// node is a binary tree whose children are themselves managed references,
// used for the binary-tree-retained-across-a-safepoint scenario.
type node struct {
	Left, Right Gc[node]
}

func (node) NeedsDrop() bool { return false }

// NeedsTrace is true for every node, set children or not: node has Gc
// fields, and the collector reads NeedsTrace once per type.
func (node) NeedsTrace() bool { return true }
func (n node) Visit(v *Visitor) {
	n.Left.Visit(v)
	n.Right.Visit(v)
}

func makeTree(ctx *Context, depth int) Gc[node] {
	if depth == 0 {
		return Alloc(ctx, node{})
	}
	left := makeTree(ctx, depth-1)
	right := makeTree(ctx, depth-1)
	return Alloc(ctx, node{Left: left, Right: right})
}

func itemCheck(g Gc[node]) int {
	n := g.Deref()
	if n.Left.collector == nil {
		return 1
	}
	return 1 + itemCheck(n.Left) + itemCheck(n.Right)
}

func countNodes(g Gc[node]) int {
	n := g.Deref()
	if n.Left.collector == nil {
		return 1
	}
	return 1 + countNodes(n.Left) + countNodes(n.Right)
}

// dropCounter increments a shared counter exactly once when reclaimed,
// checking that destructors run exactly once.
type dropCounter struct {
	counter *int64
}

func (dropCounter) NeedsTrace() bool { return false }
func (dropCounter) Visit(*Visitor)   {}
func (dropCounter) NeedsDrop() bool  { return true }
func (d dropCounter) Finalize()      { atomic.AddInt64(d.counter, 1) }

// bigLeaf exceeds maxSmallSize so any allocation of it takes the
// large-object path.
type bigLeaf struct {
	_ [maxSmallSize + 1024]byte
}

func (bigLeaf) NeedsTrace() bool { return false }
func (bigLeaf) Visit(*Visitor)   {}
func (bigLeaf) NeedsDrop() bool  { return false }

// bigDropLeaf is the same shape as bigLeaf but with a destructor, for
// testing the large-object drop path specifically.
type bigDropLeaf struct {
	counter *int64
	_       [maxSmallSize + 1024]byte
}

func (bigDropLeaf) NeedsTrace() bool { return false }
func (bigDropLeaf) Visit(*Visitor)   {}
func (bigDropLeaf) NeedsDrop() bool  { return true }
func (d bigDropLeaf) Finalize()      { atomic.AddInt64(d.counter, 1) }
