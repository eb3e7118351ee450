package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/turing/pkg/domain"
)

// ErrInvalidRules is returned by Validate after the offending lines are printed.
var ErrInvalidRules = errors.New("rule text is invalid")

// Validate parses a machine's rules and lists every malformed line.
func (a *App) Validate(ctx context.Context, machine string) error {
	def, _, err := a.Machine(RunOptions{Machine: machine})
	if err != nil {
		return err
	}
	eng, err := a.Engine(def.StepLimit)
	if err != nil {
		return err
	}

	table, err := eng.Parse(ctx, def.Rules)
	if err != nil {
		lines := domain.MalformedLines(err)
		if len(lines) == 0 {
			return err
		}
		for _, l := range lines {
			fmt.Fprintf(a.Out, "line %d: %s\n    %s\n", l.Line, l.Reason, l.Text)
		}
		return fmt.Errorf("%s: %d malformed line(s): %w", def.Name, len(lines), ErrInvalidRules)
	}

	fmt.Fprintf(a.Out, "%s: %d rules, %d states\n", def.Name, table.Len(), len(table.States()))
	if def.Start != "" && !contains(table.States(), def.Start) {
		fmt.Fprintf(a.Out, "warning: start state %q does not appear in any rule\n", def.Start)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
