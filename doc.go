/*
Package turing simulates single-tape deterministic Turing machines and records
every configuration they pass through.

A machine is described by a rule table, one rule per line:

	<state> <symbol> -> <state> <symbol> <L|R>

'_' is the blank symbol and '*' the wildcard: a wildcard read matches any
symbol without a literal rule for the same state, and a wildcard write leaves
the cell unchanged.

# Usage

	eng, err := turing.New(turing.WithStepLimit(500))
	if err != nil {
		log.Fatal(err)
	}

	run, err := eng.Run(ctx, domain.Request{
		Rules:      rules,
		StartState: "state_start",
		Input:      "#012",
	})
	if err != nil {
		// domain.ErrMalformedRule: fix the rule text and resubmit.
		log.Fatal(err)
	}

	for i, snap := range run.Trace {
		fmt.Println(i, snap.State, snap.TapeString(), snap.Head)
	}

The trace can be replayed with package playback, served over HTTP with
pkg/adapters/http, or exposed to agents with pkg/adapters/mcp.
*/
package turing
