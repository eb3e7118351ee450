package domain

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Symbol is the content of a single tape cell.
type Symbol rune

const (
	// Blank marks a cell that was never written.
	Blank Symbol = '_'
	// Wildcard matches any symbol that has no literal rule for the same state.
	Wildcard Symbol = '*'
)

// ArrowToken separates the left and right side of a rule line.
const ArrowToken = "->"

func (s Symbol) String() string {
	return string(rune(s))
}

// MarshalJSON encodes the symbol as a one-character string.
func (s Symbol) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a one-character string.
func (s *Symbol) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	r, size := utf8.DecodeRuneInString(str)
	if size == 0 || size != len(str) || r == utf8.RuneError {
		return fmt.Errorf("symbol must be a single character, got %q", str)
	}
	*s = Symbol(r)
	return nil
}

// Symbols converts a string into tape cells, one per rune.
func Symbols(input string) []Symbol {
	out := make([]Symbol, 0, utf8.RuneCountInString(input))
	for _, r := range input {
		out = append(out, Symbol(r))
	}
	return out
}

// Direction is a single head move. There is no "stay" move.
type Direction int8

const (
	Left  Direction = -1
	Right Direction = 1
)

// ParseDirection accepts "L" or "R".
func ParseDirection(token string) (Direction, bool) {
	switch token {
	case "L":
		return Left, true
	case "R":
		return Right, true
	}
	return 0, false
}

func (d Direction) String() string {
	switch d {
	case Left:
		return "L"
	case Right:
		return "R"
	}
	return fmt.Sprintf("Direction(%d)", int8(d))
}

// MarshalJSON encodes the direction as "L" or "R".
func (d Direction) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes "L" or "R".
func (d *Direction) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, ok := ParseDirection(str)
	if !ok {
		return fmt.Errorf("invalid direction %q", str)
	}
	*d = parsed
	return nil
}
