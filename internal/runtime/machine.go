package runtime

import "github.com/aretw0/turing/pkg/domain"

// machine is the mutable configuration of a single run.
// It never escapes Execute; callers only see snapshots.
type machine struct {
	state string
	tape  []domain.Symbol
	head  int
}

func newMachine(start string, input []domain.Symbol) *machine {
	tape := input
	if len(tape) == 0 {
		tape = []domain.Symbol{domain.Blank}
	}
	return &machine{state: start, tape: tape}
}

func (m *machine) read() domain.Symbol {
	return m.tape[m.head]
}

// apply writes, moves and switches state. The tape grows by one blank cell
// when the head would leave it, so 0 <= head < len(tape) holds afterwards.
func (m *machine) apply(rule domain.Rule) {
	m.tape[m.head] = rule.Output(m.tape[m.head])

	switch rule.Move {
	case domain.Left:
		if m.head == 0 {
			m.tape = append([]domain.Symbol{domain.Blank}, m.tape...)
		} else {
			m.head--
		}
	case domain.Right:
		m.head++
		if m.head == len(m.tape) {
			m.tape = append(m.tape, domain.Blank)
		}
	}
	m.state = rule.To
}

// snapshot copies the tape so later writes never reach recorded snapshots.
func (m *machine) snapshot() domain.Snapshot {
	tape := make([]domain.Symbol, len(m.tape))
	copy(tape, m.tape)
	return domain.Snapshot{State: m.state, Tape: tape, Head: m.head}
}
