// Copyright 2024 The shadowgc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shadowgc

import (
	"fmt"

	"github.com/pkg/errors"
)

// FatalError wraps every programming-error category that is a hard abort:
// wrong-collector pointers, shadow-stack push/pop mismatches, a Grey object
// observed at sweep, and survivor-byte accounting mismatches. There is no
// recovery path for any of these — the heap is considered corrupted, the
// same throw()-and-never-return convention msize.go uses for its own
// invariant checks, translated to idiomatic Go panic/recover.
type FatalError struct {
	Msg string
}

func (e *FatalError) Error() string { return e.Msg }

// fatal mirrors msize.go's throw(): it never returns.
func fatal(format string, args ...any) {
	panic(&FatalError{Msg: fmt.Sprintf(format, args...)})
}

// AllocError reports that the underlying system allocator could not satisfy
// a request made through TryAlloc, the one place a recoverable failure is
// allowed: allocation failure is propagated according to the host
// language's usual policy rather than treated as a programming error. It
// carries the original recovered value via github.com/pkg/errors so callers
// get a stack trace pinned to the allocation site, not just the panic
// message.
type AllocError struct {
	cause error
}

func (e *AllocError) Error() string { return e.cause.Error() }
func (e *AllocError) Unwrap() error { return e.cause }

func wrapAllocFailure(recovered any) error {
	err, ok := recovered.(error)
	if !ok {
		err = errors.Errorf("%v", recovered)
	}
	return &AllocError{cause: errors.Wrap(err, "shadowgc: allocation failed")}
}
