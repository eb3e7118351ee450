package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/turing/pkg/domain"
)

// Report is the data behind the markdown run summary.
type Report struct {
	Title   string
	Request domain.Request
	Run     *domain.Run
	Verdict string

	// Diagram, when set, is a Mermaid chart appended in a code block.
	Diagram string
}

// Markdown renders the report. The output is stable for a given run.
func (r Report) Markdown() string {
	var sb strings.Builder

	title := r.Title
	if title == "" {
		title = "Run report"
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)

	sb.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Start state | %s |\n", code(r.Request.StartState))
	fmt.Fprintf(&sb, "| Input | %s |\n", code(r.Request.Input))
	fmt.Fprintf(&sb, "| Outcome | %s |\n", r.Run.Outcome)
	fmt.Fprintf(&sb, "| Final state | %s |\n", code(r.Run.FinalState))
	fmt.Fprintf(&sb, "| Steps | %d of %d |\n", r.Run.Steps, r.Run.StepLimit)
	if r.Verdict != "" {
		fmt.Fprintf(&sb, "| Verdict | %s |\n", r.Verdict)
	}

	sb.WriteString("\n## Trace\n\n")
	sb.WriteString("| # | State | Tape | Head |\n|---:|---|---|---:|\n")
	for i, snap := range r.Run.Trace {
		fmt.Fprintf(&sb, "| %d | %s | %s | %d |\n", i, code(snap.State), code(headTape(snap)), snap.Head)
	}

	if r.Run.Outcome == domain.OutcomeStepLimitExceeded {
		fmt.Fprintf(&sb, "\n> Stopped by the step limit of %d; the machine had not halted.\n", r.Run.StepLimit)
	}

	if r.Diagram != "" {
		sb.WriteString("\n## Transitions\n\n```mermaid\n")
		sb.WriteString(r.Diagram)
		if !strings.HasSuffix(r.Diagram, "\n") {
			sb.WriteByte('\n')
		}
		sb.WriteString("```\n")
	}
	return sb.String()
}

func headTape(snap domain.Snapshot) string {
	var sb strings.Builder
	for i, c := range snap.Tape {
		if i == snap.Head {
			sb.WriteString("[" + c.String() + "]")
		} else {
			sb.WriteString(c.String())
		}
	}
	return sb.String()
}

// code wraps s in a code span with table pipes escaped. Empty values show as "(empty)".
func code(s string) string {
	if s == "" {
		return "(empty)"
	}
	return "`" + strings.ReplaceAll(s, "|", `\|`) + "`"
}
