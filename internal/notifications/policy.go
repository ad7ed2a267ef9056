// Package notifications implements the result-diff notification policy: the
// decision of whether a freshly computed result set is a notify-worthy change
// over the previously stored one.
package notifications

import (
	"github.com/jacobstr/crusher/internal/types"
)

// Decision captures the outcome of evaluating new results against a
// watcher's stored results.
type Decision struct {
	Notify bool
	Reason string
}

// Evaluate applies the notification policy for one watcher.
//
// A notification fires iff the new result set is non-empty AND the watcher is
// not silenced AND the new set differs structurally from the previous one.
// The comparison covers full value equality — composition, ordering, and
// scores — so a fraction shift or a re-ranking counts as a change, while a
// byte-identical recomputation does not.
//
// Callers persist the new results unconditionally regardless of the
// decision; silencing suppresses the message, never the state update.
func Evaluate(previous, fresh []types.Result, silenced bool) Decision {
	if len(fresh) == 0 {
		return Decision{Notify: false, Reason: "no results"}
	}
	if silenced {
		return Decision{Notify: false, Reason: "watcher silenced"}
	}
	if types.ResultsEqual(previous, fresh) {
		return Decision{Notify: false, Reason: "results unchanged"}
	}
	return Decision{Notify: true, Reason: "results changed"}
}
