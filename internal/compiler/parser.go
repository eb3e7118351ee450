package compiler

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/turing/pkg/domain"
)

// commentPrefix starts a comment line. '#' is a legal tape symbol, so it cannot be used here.
const commentPrefix = "//"

// Parser converts rule-table text into a transition table.
// It has no state; a single Parser may be shared.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse reads one rule per non-empty line:
//
//	<state> <symbol> -> <state> <symbol> <L|R>
//
// Every malformed line is reported; the returned error joins one
// *domain.MalformedRuleError per offending line.
func (p *Parser) Parse(text string) (*domain.Table, error) {
	table := domain.NewTable()
	var errs []error

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}

		rule, reason := parseLine(line)
		if reason == "" {
			rule.Line = lineNo
			if err := table.Add(rule); err != nil {
				reason = err.Error()
			}
		}
		if reason != "" {
			errs = append(errs, &domain.MalformedRuleError{Line: lineNo, Text: line, Reason: reason})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rule text: %w", err)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return table, nil
}

// parseLine returns the rule, or a non-empty reason when the line is malformed.
func parseLine(line string) (domain.Rule, string) {
	fields := strings.Fields(line)

	arrow := -1
	for i, f := range fields {
		if f == domain.ArrowToken {
			arrow = i
			break
		}
	}
	if arrow < 0 {
		return domain.Rule{}, "missing arrow " + domain.ArrowToken
	}
	if arrow != 2 || len(fields) != 6 {
		return domain.Rule{}, fmt.Sprintf("expected 2 fields before %s and 3 after, got %d and %d",
			domain.ArrowToken, arrow, len(fields)-arrow-1)
	}

	read, err := parsePattern(fields[1])
	if err != nil {
		return domain.Rule{}, "read " + err.Error()
	}
	write, err := parsePattern(fields[4])
	if err != nil {
		return domain.Rule{}, "write " + err.Error()
	}
	move, ok := domain.ParseDirection(fields[5])
	if !ok {
		return domain.Rule{}, fmt.Sprintf("direction must be L or R, got %q", fields[5])
	}

	return domain.Rule{
		From:  fields[0],
		Read:  read,
		To:    fields[3],
		Write: write,
		Move:  move,
	}, ""
}

func parsePattern(token string) (domain.Pattern, error) {
	if utf8.RuneCountInString(token) != 1 {
		return domain.Pattern{}, fmt.Errorf("symbol must be a single character, got %q", token)
	}
	r, _ := utf8.DecodeRuneInString(token)
	if r == utf8.RuneError {
		return domain.Pattern{}, fmt.Errorf("symbol is not valid UTF-8: %q", token)
	}
	if domain.Symbol(r) == domain.Wildcard {
		return domain.AnySymbol(), nil
	}
	return domain.Literal(domain.Symbol(r)), nil
}
