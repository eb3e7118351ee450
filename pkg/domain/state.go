package domain

import "time"

// Outcome describes why a run stopped stepping.
type Outcome string

const (
	// OutcomeHalted means no rule matched the final configuration.
	OutcomeHalted Outcome = "halted"
	// OutcomeStepLimitExceeded means the step cap was reached while a rule still matched.
	OutcomeStepLimitExceeded Outcome = "step_limit_exceeded"
)

// Snapshot is the externally visible form of one configuration.
// Snapshots are never mutated once they are part of a Trace.
type Snapshot struct {
	State string   `json:"cur_state"`
	Tape  []Symbol `json:"tape"`
	Head  int      `json:"cur_head_pos"`
}

// Read returns the symbol under the head.
func (s Snapshot) Read() Symbol {
	if s.Head < 0 || s.Head >= len(s.Tape) {
		return Blank
	}
	return s.Tape[s.Head]
}

// TapeString renders the tape as a plain string.
func (s Snapshot) TapeString() string {
	runes := make([]rune, len(s.Tape))
	for i, c := range s.Tape {
		runes[i] = rune(c)
	}
	return string(runes)
}

// Trace is the ordered record of snapshots of one run, indexed 0..Len()-1.
type Trace []Snapshot

// Len returns the number of snapshots.
func (t Trace) Len() int {
	return len(t)
}

// At returns the snapshot at index i.
func (t Trace) At(i int) (Snapshot, error) {
	if i < 0 || i >= len(t) {
		return Snapshot{}, ErrIndexOutOfRange
	}
	return t[i], nil
}

// Last returns the final snapshot. A trace produced by the engine is never empty.
func (t Trace) Last() Snapshot {
	if len(t) == 0 {
		return Snapshot{}
	}
	return t[len(t)-1]
}

// Request is what a caller submits: rule text, start state and input.
// The JSON names match the original submission form.
type Request struct {
	Rules      string `json:"tm_data" yaml:"rules" mapstructure:"rules"`
	StartState string `json:"start_state" yaml:"start" mapstructure:"start"`
	Input      string `json:"input_string" yaml:"input" mapstructure:"input"`
}

// Run is the complete result of executing one request.
type Run struct {
	Trace      Trace   `json:"trace"`
	Outcome    Outcome `json:"outcome"`
	FinalState string  `json:"final_state"`
	Steps      int     `json:"steps"`
	StepLimit  int     `json:"step_limit"`
}

// Response is the envelope handed to transports: a trace on success,
// a diagnostic string when Error is true.
type Response struct {
	Error bool `json:"error"`
	Data  any  `json:"data"`
}

// NewTraceResponse wraps a successful run.
func NewTraceResponse(run *Run) Response {
	return Response{Error: false, Data: run.Trace}
}

// NewErrorResponse wraps a failure.
func NewErrorResponse(err error) Response {
	return Response{Error: true, Data: err.Error()}
}

// Session is a submitted run together with the playback cursor reviewing it.
// A new submission replaces the whole session.
type Session struct {
	ID        string    `json:"id"`
	Request   Request   `json:"request"`
	Run       *Run      `json:"run"`
	Cursor    int       `json:"cursor"`
	UpdatedAt time.Time `json:"updated_at"`

	// RunID changes with every submission, so a cached player can tell
	// whether the stored run is still the one it wraps.
	RunID string `json:"run_id,omitempty"`

	// Sealed holds the encrypted session when a store encrypts at rest.
	Sealed []byte `json:"sealed,omitempty"`
}

// NewSession creates a session positioned at the first snapshot.
func NewSession(id string, req Request, run *Run) *Session {
	return &Session{
		ID:        id,
		Request:   req,
		Run:       run,
		UpdatedAt: time.Now().UTC(),
	}
}

// Clone copies the session header. The trace is shared since snapshots are immutable.
func (s *Session) Clone() *Session {
	c := *s
	if s.Run != nil {
		run := *s.Run
		c.Run = &run
	}
	return &c
}
