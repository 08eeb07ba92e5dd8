/*
Package saga runs short sequences of remote operations that cannot be made atomic.

A typical sequence stores a file and then writes the document that references
it. When the second step fails, the effect of the first step is left behind. The
Runner reports such orphaned effects to a Reporter and, when configured, runs a
best effort compensation. The error of the failed step is always returned
unchanged.
*/
package saga

import (
	"context"
	"time"

	"github.com/relabs-tech/sakamichi/core/logger"
)

// Effect describes a remote side effect that outlived a failed sequence
type Effect struct {
	// Kind is the kind of the effect, e.g. "file", "user" or "document"
	Kind string `json:"kind"`
	// Resource names the container of the effect, e.g. the bucket or collection
	Resource string `json:"resource"`
	// ID is the platform id of the effect
	ID string `json:"id"`
	// Detail says which step failed
	Detail string `json:"detail"`
	// Compensated is true if the effect was undone successfully
	Compensated bool `json:"compensated"`
	// RequestID is the request that caused the effect
	RequestID string `json:"requestID,omitempty"`
	// Time is when the failure was observed
	Time time.Time `json:"time"`
}

// Reporter receives orphaned effects
type Reporter interface {
	Orphaned(ctx context.Context, effect Effect)
}

// Runner runs two step sequences
type Runner struct {
	Reporter Reporter
	// Compensate enables undo of the first step when a later step fails
	Compensate bool
}

// Then runs step after effect has already happened. If step fails, the effect is
// reported and, if enabled, undone with undo. undo may be nil.
func (r *Runner) Then(ctx context.Context, effect Effect, undo func(ctx context.Context) error, step func(ctx context.Context) error) error {
	err := step(ctx)
	if err == nil {
		return nil
	}
	rlog := logger.FromContext(ctx)

	if r.Compensate && undo != nil {
		if undoErr := undo(context.WithoutCancel(ctx)); undoErr != nil {
			rlog.WithError(undoErr).Warnf("could not compensate %s %s in %s", effect.Kind, effect.ID, effect.Resource)
		} else {
			effect.Compensated = true
		}
	}

	effect.RequestID = logger.RequestIDFromContext(ctx)
	effect.Time = time.Now().UTC()
	if r.Reporter != nil {
		r.Reporter.Orphaned(ctx, effect)
	}
	return err
}
