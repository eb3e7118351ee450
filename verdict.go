package turing

import "github.com/aretw0/turing/pkg/domain"

// Verdict is a caller-level reading of a run's final state.
// The engine itself gives state names no meaning.
type Verdict string

const (
	VerdictAccepted  Verdict = "accepted"
	VerdictRejected  Verdict = "rejected"
	VerdictUndecided Verdict = "undecided"
)

// Conventional halting state names used by the sample machines.
const (
	DefaultAcceptState = "state_accept"
	DefaultRejectState = "state_reject"
)

// Judge maps a run to a verdict using the given accept and reject state names.
// Runs stopped by the step cap are always undecided.
func Judge(run *domain.Run, accept, reject string) Verdict {
	if run == nil || run.Outcome != domain.OutcomeHalted {
		return VerdictUndecided
	}
	switch run.FinalState {
	case accept:
		return VerdictAccepted
	case reject:
		return VerdictRejected
	}
	return VerdictUndecided
}
