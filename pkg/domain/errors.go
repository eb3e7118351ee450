package domain

import (
	"errors"
	"fmt"
)

// ErrMalformedRule matches every *MalformedRuleError via errors.Is.
var ErrMalformedRule = errors.New("malformed rule")

// ErrDuplicateRule is returned by Table.Add for a repeated (state, read) pair.
var ErrDuplicateRule = errors.New("duplicate rule")

// ErrMissingStartState is returned when a run is requested without a start state.
var ErrMissingStartState = errors.New("start state is required")

// ErrInvalidStepLimit is returned when the step cap is not positive.
var ErrInvalidStepLimit = errors.New("step limit must be positive")

// ErrEmptyTrace is returned when playback is requested over a trace with no snapshots.
var ErrEmptyTrace = errors.New("trace has no snapshots")

// ErrIndexOutOfRange is returned for snapshot indexes outside the trace.
var ErrIndexOutOfRange = errors.New("snapshot index out of range")

// ErrInvalidDelay is returned when auto-play is started with a non-positive delay.
var ErrInvalidDelay = errors.New("auto-play delay must be positive")

// ErrRunReplaced is returned when a session's run was resubmitted between
// reading it and writing the cursor back.
var ErrRunReplaced = errors.New("session run was replaced")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// MalformedRuleError names the offending line of the rule text.
type MalformedRuleError struct {
	Line   int
	Text   string
	Reason string
}

func (e *MalformedRuleError) Error() string {
	return fmt.Sprintf("line %d: malformed rule %q: %s", e.Line, e.Text, e.Reason)
}

// Is reports ErrMalformedRule as a match.
func (e *MalformedRuleError) Is(target error) bool {
	return target == ErrMalformedRule
}

// MalformedLines extracts every *MalformedRuleError from err, including joined errors.
func MalformedLines(err error) []*MalformedRuleError {
	var out []*MalformedRuleError
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if m, ok := e.(*MalformedRuleError); ok {
			out = append(out, m)
			return
		}
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				walk(inner)
			}
			return
		}
		walk(errors.Unwrap(e))
	}
	walk(err)
	return out
}
