package runtime_test

import (
	"context"
	"math/rand"
	"reflect"
	"testing"

	"github.com/aretw0/turing/internal/runtime"
	"github.com/aretw0/turing/pkg/domain"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var (
	propStates   = []string{"a", "b", "c", "h"}
	propAlphabet = []domain.Symbol{'0', '1', '#', domain.Blank}
)

// randomTable builds a deterministic table from seed. Roughly a third of the
// (state, symbol) pairs are left without a rule so runs can halt.
func randomTable(seed int64) *domain.Table {
	rng := rand.New(rand.NewSource(seed))
	table := domain.NewTable()
	pick := func() domain.Pattern {
		if rng.Intn(5) == 0 {
			return domain.AnySymbol()
		}
		return domain.Literal(propAlphabet[rng.Intn(len(propAlphabet))])
	}
	move := func() domain.Direction {
		if rng.Intn(2) == 0 {
			return domain.Left
		}
		return domain.Right
	}

	for _, state := range propStates[:3] {
		for _, sym := range propAlphabet {
			if rng.Intn(3) == 0 {
				continue
			}
			_ = table.Add(domain.Rule{
				From:  state,
				Read:  domain.Literal(sym),
				To:    propStates[rng.Intn(len(propStates))],
				Write: pick(),
				Move:  move(),
			})
		}
		if rng.Intn(2) == 0 {
			_ = table.Add(domain.Rule{
				From:  state,
				Read:  domain.AnySymbol(),
				To:    propStates[rng.Intn(len(propStates))],
				Write: pick(),
				Move:  move(),
			})
		}
	}
	return table
}

func TestEngine_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	const limit = 64
	engine, err := runtime.NewEngine(limit)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	properties.Property("runs are deterministic", prop.ForAll(
		func(seed int64, input string) bool {
			table := randomTable(seed)
			r1, err1 := engine.Execute(ctx, table, "a", input)
			r2, err2 := engine.Execute(ctx, table, "a", input)
			return err1 == nil && err2 == nil && reflect.DeepEqual(r1, r2)
		},
		gen.Int64(),
		gen.RegexMatch(`[01#_]{0,8}`),
	))

	properties.Property("snapshot 0 is the initial configuration", prop.ForAll(
		func(seed int64, input string) bool {
			run, err := engine.Execute(ctx, randomTable(seed), "a", input)
			if err != nil {
				return false
			}
			first := run.Trace[0]
			want := domain.Symbols(input)
			if len(want) == 0 {
				want = []domain.Symbol{domain.Blank}
			}
			return first.State == "a" && first.Head == 0 && reflect.DeepEqual(first.Tape, want)
		},
		gen.Int64(),
		gen.RegexMatch(`[01#_]{0,8}`),
	))

	properties.Property("head stays on the tape and the tape grows by at most one cell", prop.ForAll(
		func(seed int64, input string) bool {
			run, err := engine.Execute(ctx, randomTable(seed), "a", input)
			if err != nil {
				return false
			}
			for i, snap := range run.Trace {
				if snap.Head < 0 || snap.Head >= len(snap.Tape) {
					return false
				}
				if i > 0 {
					grow := len(snap.Tape) - len(run.Trace[i-1].Tape)
					if grow < 0 || grow > 1 {
						return false
					}
				}
			}
			return true
		},
		gen.Int64(),
		gen.RegexMatch(`[01#_]{0,8}`),
	))

	properties.Property("trace length matches steps and respects the cap", prop.ForAll(
		func(seed int64, input string) bool {
			table := randomTable(seed)
			run, err := engine.Execute(ctx, table, "a", input)
			if err != nil {
				return false
			}
			if run.Trace.Len() != run.Steps+1 || run.Steps > limit {
				return false
			}
			last := run.Trace.Last()
			_, hasRule := table.Lookup(last.State, last.Read())
			switch run.Outcome {
			case domain.OutcomeHalted:
				return !hasRule
			case domain.OutcomeStepLimitExceeded:
				return hasRule && run.Steps == limit
			}
			return false
		},
		gen.Int64(),
		gen.RegexMatch(`[01#_]{0,8}`),
	))

	properties.TestingRun(t)
}
