// Package fsm holds helpers for github.com/looplab/fsm callbacks.
package fsm

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
)

// WrapEvent adapts an error-returning callback. A returned error is recorded
// on the event; in a before_ callback it also cancels the transition.
func WrapEvent(fn func(ctx context.Context, event *fsm.Event) error) fsm.Callback {
	return func(ctx context.Context, event *fsm.Event) {
		if err := fn(ctx, event); err != nil {
			event.Cancel(err)
		}
	}
}

// IsRealError reports whether err is more than a no-op or a guard refusal.
func IsRealError(err error) bool {
	if err == nil {
		return false
	}

	var noTransition fsm.NoTransitionError
	var canceled fsm.CanceledError
	if errors.As(err, &noTransition) || errors.As(err, &canceled) {
		return false
	}
	return true
}
