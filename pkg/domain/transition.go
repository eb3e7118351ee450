package domain

import (
	"fmt"
	"sort"
)

// Pattern is one side of a rule: either a literal symbol or the wildcard.
type Pattern struct {
	Symbol Symbol `json:"symbol"`
	Any    bool   `json:"any,omitempty"`
}

// Literal builds a pattern matching exactly s.
func Literal(s Symbol) Pattern {
	return Pattern{Symbol: s}
}

// AnySymbol builds the wildcard pattern.
func AnySymbol() Pattern {
	return Pattern{Symbol: Wildcard, Any: true}
}

func (p Pattern) String() string {
	if p.Any {
		return Wildcard.String()
	}
	return p.Symbol.String()
}

// Rule is a single transition: (From, Read) -> (To, Write, Move).
type Rule struct {
	From  string    `json:"from"`
	Read  Pattern   `json:"read"`
	To    string    `json:"to"`
	Write Pattern   `json:"write"`
	Move  Direction `json:"move"`

	// Line is the 1-based line of the rule text the rule came from (0 if built in code).
	Line int `json:"line,omitempty"`
}

// Output returns the symbol to write after reading read.
// A wildcard write leaves the cell unchanged.
func (r Rule) Output(read Symbol) Symbol {
	if r.Write.Any {
		return read
	}
	return r.Write.Symbol
}

func (r Rule) String() string {
	return fmt.Sprintf("%s %s %s %s %s %s", r.From, r.Read, ArrowToken, r.To, r.Write, r.Move)
}

type ruleKey struct {
	state  string
	symbol Symbol
}

// Table is the transition function. Lookups try the literal tier first and
// fall back to the wildcard rule of the state.
type Table struct {
	literal  map[ruleKey]Rule
	wildcard map[string]Rule
	rules    []Rule
}

// NewTable creates an empty transition table.
func NewTable() *Table {
	return &Table{
		literal:  make(map[ruleKey]Rule),
		wildcard: make(map[string]Rule),
	}
}

// Add registers a rule. It returns ErrDuplicateRule if a rule with the same
// (state, read pattern) is already present.
func (t *Table) Add(r Rule) error {
	if r.Read.Any {
		if prev, ok := t.wildcard[r.From]; ok {
			return fmt.Errorf("%w: wildcard rule for state %q already declared on line %d", ErrDuplicateRule, r.From, prev.Line)
		}
		t.wildcard[r.From] = r
	} else {
		key := ruleKey{state: r.From, symbol: r.Read.Symbol}
		if prev, ok := t.literal[key]; ok {
			return fmt.Errorf("%w: (%s, %s) already declared on line %d", ErrDuplicateRule, r.From, r.Read, prev.Line)
		}
		t.literal[key] = r
	}
	t.rules = append(t.rules, r)
	return nil
}

// Lookup resolves the rule for (state, symbol): literal, then wildcard, then none.
func (t *Table) Lookup(state string, symbol Symbol) (Rule, bool) {
	if r, ok := t.literal[ruleKey{state: state, symbol: symbol}]; ok {
		return r, true
	}
	r, ok := t.wildcard[state]
	return r, ok
}

// Len returns the number of rules.
func (t *Table) Len() int {
	return len(t.rules)
}

// Rules returns the rules in declaration order.
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// States returns every state named by a rule, sorted.
func (t *Table) States() []string {
	seen := make(map[string]struct{})
	for _, r := range t.rules {
		seen[r.From] = struct{}{}
		seen[r.To] = struct{}{}
	}
	states := make([]string, 0, len(seen))
	for s := range seen {
		states = append(states, s)
	}
	sort.Strings(states)
	return states
}
