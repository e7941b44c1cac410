// Copyright 2024 The shadowgc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shadowgc

// Context is the handle application code actually holds. It exposes
// allocation, safepoint entry, and nested sub-context creation, and is the
// sole enforcer of "no live managed pointer crosses a safepoint except via
// the shadow stack". A Context must be used from a single goroutine for
// its whole lifetime; see affinity.go.
type Context struct {
	collector *Collector
	creator   uint64
	closed    bool
}

func (ctx *Context) checkAffinity() {
	if ctx.closed {
		fatal("shadowgc: Context used after Close")
	}
	if id := currentGoroutineID(); id != 0 && ctx.creator != 0 && id != ctx.creator {
		fatal("shadowgc: Context used from goroutine %d, but was created on goroutine %d (contexts are not safe to share across goroutines)", id, ctx.creator)
	}
}

// Close releases this Context's share of the collector. The collector's
// arenas and large list live until every Context sharing it has been
// closed; Go has no deterministic destructors, so this is the explicit
// stand-in for dropping the context: doing so does not itself collect,
// since the collector state is refcounted and lives until no context
// remains.
func (ctx *Context) Close() {
	ctx.checkAffinity()
	ctx.closed = true
	ctx.collector.refs.Add(-1)
}

// Collector returns the collector this context is attached to.
func (ctx *Context) Collector() *Collector { return ctx.collector }

// Alloc allocates value and returns a managed handle to it. It is a free
// function rather than a method because Go does not allow a method to
// introduce an additional type parameter on top of a non-generic receiver
// type.
func Alloc[T GcSafe](ctx *Context, value T) Gc[T] {
	ctx.checkAffinity()
	payload, ti := allocPayload(ctx.collector.alloc, value)
	h := headerOf(payload, ti.valueOffset)
	return Gc[T]{
		collector:  ctx.collector,
		identity:   ctx.collector.identity,
		generation: h.generation,
		value:      (*T)(payload),
	}
}

// TryAlloc is the optional fallible-alloc variant: it recovers a panic from
// the underlying system allocator (e.g. Go itself running out of memory)
// and reports it as an error instead, wrapped with github.com/pkg/errors so
// the cause carries a stack trace. Every other programming-error category
// remains a hard panic; only genuine allocation failure is treated as
// recoverable.
func TryAlloc[T GcSafe](ctx *Context, value T) (g Gc[T], err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(*FatalError); ok {
				panic(r) // programming errors are never downgraded to an error return
			}
			err = wrapAllocFailure(r)
		}
	}()
	return Alloc(ctx, value), nil
}

// Safepoint pushes root onto the shadow stack, lets the collector decide
// whether to run a collection, pops the root back off, and returns the
// rebranded root. A collection runs only when live bytes have reached the
// threshold; when one does, any Gc the caller still holds from before this
// call whose backing object was not reachable through root is, after this
// call, stale: dereferencing it panics (see gc.go).
func Safepoint[T Trace](ctx *Context, root T) T {
	ctx.checkAffinity()
	c := ctx.collector
	tok := pushRoot(&c.roots, &root)
	c.maybeCollect()
	c.roots.pop(tok)
	return rebrandValue(root)
}

// RecurseContext pushes root, creates a nested context sharing the same
// collector, invokes fn with the nested context and root, then pops. No
// implicit collection occurs here — callers compose this with an explicit
// Safepoint afterwards for the "do work, then collect" pattern.
func RecurseContext[T Trace, R any](ctx *Context, root T, fn func(nested *Context, root T) R) (T, R) {
	ctx.checkAffinity()
	c := ctx.collector
	tok := pushRoot(&c.roots, &root)
	nested := c.newContext()
	defer nested.Close()

	result := fn(nested, root)
	c.roots.pop(tok)
	return rebrandValue(root), result
}

// SafepointRecurse composes RecurseContext with a trailing Safepoint, the
// common "do work, then collect" pattern.
func SafepointRecurse[T Trace, R any](ctx *Context, root T, fn func(nested *Context, root T) R) (T, R) {
	root, result := RecurseContext(ctx, root, fn)
	return Safepoint(ctx, root), result
}

// rebrandValue is the dynamic-generation analogue of re-typing root at the
// lifetime that begins after a safepoint. Gc[T] itself needs no change
// (see Gc.rebrand); a composite root type that embeds Gc fields is expected
// to implement Trace, and since validity here rides on each object's own
// generation rather than on anything stored per safepoint, composite types
// need no rebrand step either — the value is returned as received.
func rebrandValue[T any](root T) T { return root }
