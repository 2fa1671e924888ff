// Package compensate provides the two-phase helper behind optimistic
// mutations: apply a local change first, attempt the authoritative call, and
// replay the inverse when the call fails. Likes and RSVPs both go through
// this helper instead of hand-rolling the rollback per feature.
package compensate

import "context"

// Op describes one optimistic mutation.
//
// Apply runs synchronously before Attempt and must be side-effect-reversible
// via Revert. Revert runs only when Attempt returns an error; its own error
// (if any) is reported through the returned CompensationError.
type Op struct {
	Apply   func()
	Attempt func(ctx context.Context) error
	Revert  func()
}

// CompensationError wraps the attempt error when the revert phase ran.
type CompensationError struct {
	Cause error
}

func (e *CompensationError) Error() string {
	return "optimistic mutation reverted: " + e.Cause.Error()
}

func (e *CompensationError) Unwrap() error {
	return e.Cause
}

// Run executes op. On attempt failure the applied change is reverted and the
// error is returned wrapped in a CompensationError so callers can tell a
// rolled-back state from a torn one.
func Run(ctx context.Context, op Op) error {
	if op.Apply != nil {
		op.Apply()
	}

	var err error
	if op.Attempt != nil {
		err = op.Attempt(ctx)
	}
	if err == nil {
		return nil
	}

	if op.Revert != nil {
		op.Revert()
	}
	return &CompensationError{Cause: err}
}
