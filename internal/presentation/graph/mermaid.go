package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/turing/pkg/domain"
)

// Overlay contains run data to highlight on the diagram.
type Overlay struct {
	VisitedStates []string
	CurrentState  string
}

// OverlayFromTrace marks every state the trace passed through, and its last state as current.
func OverlayFromTrace(trace domain.Trace) *Overlay {
	o := &Overlay{}
	for _, s := range trace {
		o.VisitedStates = append(o.VisitedStates, s.State)
	}
	if trace.Len() > 0 {
		o.CurrentState = trace.Last().State
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of the transition table.
// Shapes:
// - Start state: ((Circle))
// - States without outgoing rules (halting): ([Stadium])
// - Others: [Rectangle]
// Each rule is one edge labelled "read/write move".
func GenerateMermaid(table *domain.Table, start string, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	outgoing := make(map[string]bool)
	for _, r := range table.Rules() {
		outgoing[r.From] = true
	}

	states := table.States()
	if start != "" && !contains(states, start) {
		states = append([]string{start}, states...)
	}

	for _, state := range states {
		safeID := sanitizeMermaidID(state)
		opener, closer := "[", "]"
		switch {
		case state == start:
			opener, closer = "((", "))"
		case !outgoing[state]:
			opener, closer = "([", "])"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(state), closer)
	}

	for _, r := range table.Rules() {
		label := fmt.Sprintf("%s/%s %s", r.Read, r.Write, r.Move)
		fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", sanitizeMermaidID(r.From), escapeLabel(label), sanitizeMermaidID(r.To))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text stays readable on both light and dark themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, state := range overlay.VisitedStates {
			safeID := sanitizeMermaidID(state)
			if safeID != "" && !seen[safeID] {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentState != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentState))
		}
	}

	return sb.String()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "#quot;")
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_", "\"", "_")
	return r.Replace(id)
}
