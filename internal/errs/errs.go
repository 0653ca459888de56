// Package errs wraps the two warning-grade failure classes spec.md §7
// distinguishes from outright rejections — StorageFailure and
// ResolutionFailure — with the caller frame that observed them, using
// github.com/go-stack/stack the way the teacher's log package captures
// a call site for its own warnings.
package errs

import (
	"fmt"

	"github.com/go-stack/stack"
)

// Kind names one of spec.md §7's warning-grade failure classes.
type Kind string

const (
	StorageFailure    Kind = "storage_failure"
	ResolutionFailure Kind = "resolution_failure"
)

// Warning is a non-fatal failure: the operation that produced it still
// completed (a message was accepted, an identity was still returned),
// but something downstream of the happy path did not go as planned.
type Warning struct {
	Kind  Kind
	Err   error
	Frame stack.Call
}

// New captures the caller's frame (skip=1 is New's own caller) and
// wraps err under kind.
func New(kind Kind, err error) *Warning {
	return &Warning{Kind: kind, Err: err, Frame: stack.Caller(1)}
}

func (w *Warning) Error() string {
	return fmt.Sprintf("%s: %s: %v", w.Frame, w.Kind, w.Err)
}

func (w *Warning) Unwrap() error { return w.Err }
