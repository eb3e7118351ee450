package turing_test

import (
	"context"
	"fmt"

	"github.com/aretw0/turing"
	"github.com/aretw0/turing/pkg/domain"
)

func Example() {
	eng, err := turing.New()
	if err != nil {
		panic(err)
	}

	// Turn every 0 into 1, then step back onto the last written cell.
	rules := `
q0 0 -> q0 1 R
q0 _ -> done _ L
`
	run, err := eng.Run(context.Background(), domain.Request{Rules: rules, StartState: "q0", Input: "00"})
	if err != nil {
		panic(err)
	}

	for i, snap := range run.Trace {
		fmt.Printf("%d %s %s %d\n", i, snap.State, snap.TapeString(), snap.Head)
	}
	fmt.Println(run.Outcome, run.FinalState)

	// Output:
	// 0 q0 00 0
	// 1 q0 10 1
	// 2 q0 11_ 2
	// 3 done 11_ 1
	// halted done
}
