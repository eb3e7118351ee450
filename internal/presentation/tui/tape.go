package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/turing/pkg/domain"
	"github.com/muesli/termenv"
)

// TapeRenderer draws one snapshot per line: position, state and tape, with
// the head cell bracketed and highlighted. Under the Ascii profile the output
// carries no escape codes.
type TapeRenderer struct {
	profile termenv.Profile
}

// NewTapeRenderer creates a renderer for the given colour profile.
func NewTapeRenderer(profile termenv.Profile) *TapeRenderer {
	return &TapeRenderer{profile: profile}
}

// Render matches turing.SnapshotRenderer.
func (r *TapeRenderer) Render(index, total int, snap domain.Snapshot) string {
	var sb strings.Builder

	pos := fmt.Sprintf("[%d/%d]", index, total-1)
	sb.WriteString(r.profile.String(pos).Faint().String())
	sb.WriteByte(' ')
	sb.WriteString(r.profile.String(snap.State).Foreground(r.profile.Color("#c084fc")).Bold().String())
	sb.WriteByte(' ')

	for i, c := range snap.Tape {
		if i == snap.Head {
			cell := "[" + c.String() + "]"
			sb.WriteString(r.profile.String(cell).Reverse().Bold().String())
			continue
		}
		if c == domain.Blank {
			sb.WriteString(r.profile.String(c.String()).Faint().String())
			continue
		}
		sb.WriteString(c.String())
	}
	return sb.String()
}
