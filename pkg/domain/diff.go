package domain

// SnapshotDiff represents the changes between two rendered snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type SnapshotDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	// Index is the trace position of the new snapshot.
	Index int `json:"index"`

	State  *string `json:"cur_state,omitempty"`
	Head   *int    `json:"cur_head_pos,omitempty"`
	Length *int    `json:"length,omitempty"`

	// Cells holds only the positions whose symbol changed (or that are new).
	// Clients should truncate their tape to Length before merging.
	Cells map[int]Symbol `json:"cells,omitempty"`
}

// DiffSnapshots calculates the difference between the previously rendered
// snapshot and the next one. If prev is nil, the diff carries the entire snapshot.
// It returns nil when nothing changed.
func DiffSnapshots(sessionID string, index int, prev *Snapshot, next Snapshot) *SnapshotDiff {
	diff := &SnapshotDiff{
		SessionID: sessionID,
		Index:     index,
	}

	if prev == nil || prev.State != next.State {
		diff.State = &next.State
	}
	if prev == nil || prev.Head != next.Head {
		diff.Head = &next.Head
	}
	if prev == nil || len(prev.Tape) != len(next.Tape) {
		n := len(next.Tape)
		diff.Length = &n
	}
	diff.Cells = diffCells(prev, next)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffCells(prev *Snapshot, next Snapshot) map[int]Symbol {
	delta := make(map[int]Symbol)
	for i, sym := range next.Tape {
		if prev == nil || i >= len(prev.Tape) || prev.Tape[i] != sym {
			delta[i] = sym
		}
	}
	if len(delta) == 0 {
		return nil
	}
	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SnapshotDiff) IsEmpty() bool {
	return d.State == nil &&
		d.Head == nil &&
		d.Length == nil &&
		len(d.Cells) == 0
}
