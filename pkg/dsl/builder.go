package dsl

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/aretw0/turing/pkg/domain"
)

// ErrInvalidName is returned by Build for state names rule text cannot carry.
var ErrInvalidName = errors.New("invalid state name")

// ErrInvalidRule is returned by Build for blank symbols or unknown moves.
var ErrInvalidRule = errors.New("invalid rule")

// Builder collects rules state by state, in declaration order.
type Builder struct {
	states map[string]*StateBuilder
	order  []string
}

// New creates a new table builder.
func New() *Builder {
	return &Builder{
		states: make(map[string]*StateBuilder),
	}
}

// State returns the builder for the named state, creating it on first use.
func (b *Builder) State(name string) *StateBuilder {
	if sb, ok := b.states[name]; ok {
		return sb
	}
	sb := &StateBuilder{name: name}
	b.states[name] = sb
	b.order = append(b.order, name)
	return sb
}

// rules flattens every state's rules in declaration order.
func (b *Builder) rules() []domain.Rule {
	var out []domain.Rule
	for _, name := range b.order {
		out = append(out, b.states[name].rules...)
	}
	return out
}

// Build compiles the rules into a table. Every invalid name and duplicate
// (state, read) pair is reported.
func (b *Builder) Build() (*domain.Table, error) {
	table := domain.NewTable()
	var errs []error
	for _, r := range b.rules() {
		if err := checkRule(r); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := table.Add(r); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return table, nil
}

// Rules renders the rules as text the compiler accepts, one rule per line.
func (b *Builder) Rules() string {
	var sb strings.Builder
	for _, r := range b.rules() {
		sb.WriteString(r.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Request pairs the rendered rules with a start state and input.
func (b *Builder) Request(start, input string) domain.Request {
	return domain.Request{Rules: b.Rules(), StartState: start, Input: input}
}

func checkRule(r domain.Rule) error {
	if err := checkName(r.From); err != nil {
		return err
	}
	if err := checkName(r.To); err != nil {
		return err
	}
	if unicode.IsSpace(rune(r.Read.Symbol)) || unicode.IsSpace(rune(r.Write.Symbol)) {
		return fmt.Errorf("%w: %s reads or writes whitespace", ErrInvalidRule, r.From)
	}
	if r.Move != domain.Left && r.Move != domain.Right {
		return fmt.Errorf("%w: %s moves %s", ErrInvalidRule, r.From, r.Move)
	}
	return nil
}

func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if name == domain.ArrowToken || strings.HasPrefix(name, "//") || strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
