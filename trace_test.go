// Copyright 2024 The shadowgc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shadowgc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLeafNeedsTraceIsFalse(t *testing.T) {
	var l Leaf[int]
	require.False(t, l.NeedsTrace())
	var nt NullTrace = l
	require.False(t, nt.NeedsTrace())
	var ti TraceImmutable = l
	ti.VisitImmutable(nil) // must not panic
}

// TestLeafAllocatesAndSurvivesCollection checks that Leaf[T] is not just an
// interface-conformance marker but a genuinely usable GcSafe payload: it can
// be allocated directly, and a collection that finds nothing rooting it
// reclaims it like any other leaf.
func TestLeafAllocatesAndIsReclaimedByCollection(t *testing.T) {
	c := CreateCollector()
	ctx := c.IntoContext()
	defer ctx.Close()

	g := Alloc(ctx, Leaf[string]{Value: "shadowgc"})
	require.Equal(t, "shadowgc", g.Deref().Value)

	c.collect()
	require.Equal(t, uint64(0), c.LiveBytes())
}

func TestNeedsTraceValueFallsBackForNonTraceTypes(t *testing.T) {
	// leafInt implements Trace explicitly and reports false.
	require.False(t, needsTraceValue[leafInt]())
	// a bare int implements nothing; the dynamic fallback treats it as a leaf.
	require.False(t, needsTraceValue[int]())
}

func TestNodeNeedsTraceIsTrueWithOrWithoutChildren(t *testing.T) {
	var empty node
	require.True(t, empty.NeedsTrace())

	c := CreateCollector()
	ctx := c.IntoContext()
	defer ctx.Close()

	leaf := Alloc(ctx, node{})
	parent := node{Left: leaf}
	require.True(t, parent.NeedsTrace())
}

func TestTypeInfoDropFnPicksUpFinalizer(t *testing.T) {
	ti := typeInfoFor[dropCounter]()
	require.NotNil(t, ti.dropFn)

	leafTi := typeInfoFor[leafInt]()
	require.Nil(t, leafTi.dropFn)
}
