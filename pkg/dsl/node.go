package dsl

import "github.com/aretw0/turing/pkg/domain"

// StateBuilder provides a fluent API for the rules of one state.
type StateBuilder struct {
	name  string
	rules []domain.Rule
}

func pattern(s domain.Symbol) domain.Pattern {
	if s == domain.Wildcard {
		return domain.AnySymbol()
	}
	return domain.Literal(s)
}

// On adds (state, read) -> (next, write, move).
func (s *StateBuilder) On(read domain.Symbol, next string, write domain.Symbol, move domain.Direction) *StateBuilder {
	s.rules = append(s.rules, domain.Rule{
		From:  s.name,
		Read:  pattern(read),
		To:    next,
		Write: pattern(write),
		Move:  move,
	})
	return s
}

// Otherwise adds the wildcard rule: any unmatched symbol is kept and the
// head moves to next.
func (s *StateBuilder) Otherwise(next string, move domain.Direction) *StateBuilder {
	return s.On(domain.Wildcard, next, domain.Wildcard, move)
}

// Build returns a copy of the rules declared for this state.
func (s *StateBuilder) Build() []domain.Rule {
	out := make([]domain.Rule, len(s.rules))
	copy(out, s.rules)
	return out
}
