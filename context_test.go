// Copyright 2024 The shadowgc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shadowgc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocProducesLiveHandle(t *testing.T) {
	c := CreateCollector()
	ctx := c.IntoContext()
	defer ctx.Close()

	g := Alloc(ctx, leafInt(7))
	require.True(t, g.IsValid())
	require.Equal(t, 7, int(*g.Deref()))
}

func TestAllocDoesNotTriggerImmediateCollection(t *testing.T) {
	// original_source/libs/simple/src/lib.rs's alloc() never calls
	// maybe_collect itself; only a safepoint does. A fresh, unrooted
	// allocation must still be observable immediately after Alloc returns.
	c := CreateCollector()
	ctx := c.IntoContext()
	defer ctx.Close()

	for i := 0; i < 64; i++ {
		Alloc(ctx, bigLeaf{}) // each one alone exceeds the initial threshold
	}
	require.Equal(t, uint64(0), c.Collections())
}

func TestSafepointTriggersCollectionAtThreshold(t *testing.T) {
	c := CreateCollector()
	ctx := c.IntoContext()
	defer ctx.Close()

	root := Alloc(ctx, bigLeaf{})
	root = Safepoint(ctx, root)
	require.Equal(t, uint64(1), c.Collections())
	_ = root.Deref()
}

func TestStaleHandlePanicsAfterCollection(t *testing.T) {
	c := CreateCollector()
	ctx := c.IntoContext()
	defer ctx.Close()

	stale := Alloc(ctx, leafInt(1))
	c.collect() // stale is unrooted, reclaimed

	require.False(t, stale.IsValid())
	require.Panics(t, func() { stale.Deref() })
}

func TestWrongCollectorHandleAborts(t *testing.T) {
	c1 := CreateCollector()
	ctx1 := c1.IntoContext()
	defer ctx1.Close()
	c2 := CreateCollector()
	ctx2 := c2.IntoContext()
	defer ctx2.Close()

	g := Alloc(ctx1, leafInt(1))

	v2 := newVisitor(c2)
	require.Panics(t, func() { visitGc(v2, g) })
}

func TestContextCloseRejectsReuse(t *testing.T) {
	c := CreateCollector()
	ctx := c.IntoContext()
	ctx.Close()
	require.Panics(t, func() { Alloc(ctx, leafInt(1)) })
}

func TestTryAllocSucceedsWithoutError(t *testing.T) {
	c := CreateCollector()
	ctx := c.IntoContext()
	defer ctx.Close()

	g, err := TryAlloc(ctx, leafInt(9))
	require.NoError(t, err)
	require.Equal(t, 9, int(*g.Deref()))
}

func TestEqualComparesPayloads(t *testing.T) {
	c := CreateCollector()
	ctx := c.IntoContext()
	defer ctx.Close()

	a := Alloc(ctx, leafInt(5))
	b := Alloc(ctx, leafInt(5))
	d := Alloc(ctx, leafInt(6))
	require.True(t, Equal(a, b))
	require.False(t, Equal(a, d))
}
