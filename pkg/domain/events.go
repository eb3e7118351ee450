package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStep       EventType = "step"
	EventHalt       EventType = "halt"
	EventParseError EventType = "parse_error"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// StepEvent is emitted after each applied transition.
type StepEvent struct {
	EventBase
	Step  int       `json:"step"`
	From  string    `json:"from"`
	To    string    `json:"to"`
	Read  Symbol    `json:"read"`
	Write Symbol    `json:"write"`
	Move  Direction `json:"move"`
	Head  int       `json:"head"`
}

// HaltEvent is emitted once per run when stepping stops.
type HaltEvent struct {
	EventBase
	Outcome    Outcome       `json:"outcome"`
	FinalState string        `json:"final_state"`
	Steps      int           `json:"steps"`
	Duration   time.Duration `json:"duration"`
}

// ParseErrorEvent is emitted when rule text is rejected.
type ParseErrorEvent struct {
	EventBase
	Lines int `json:"lines"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks run synchronously on the engine's goroutine.
type LifecycleHooks struct {
	OnStep       func(context.Context, *StepEvent)
	OnHalt       func(context.Context, *HaltEvent)
	OnParseError func(context.Context, *ParseErrorEvent)
}
