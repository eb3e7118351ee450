package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/turing/pkg/domain"
)

// cancelCheckInterval is how many steps run between context checks.
const cancelCheckInterval = 1024

// Engine steps a configuration against a transition table until it halts
// or reaches the step cap. It holds no per-run state and is safe for
// concurrent use.
type Engine struct {
	stepLimit int
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	now       func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the time source used for event timestamps and durations.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an engine that applies at most stepLimit transitions per run.
func NewEngine(stepLimit int, opts ...EngineOption) (*Engine, error) {
	if stepLimit <= 0 {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidStepLimit, stepLimit)
	}
	e := &Engine{
		stepLimit: stepLimit,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// StepLimit returns the configured step cap.
func (e *Engine) StepLimit() int {
	return e.stepLimit
}

// Execute runs the machine from (start, input) with the head on cell 0.
// The returned trace always holds at least the initial snapshot. The only
// error paths are a missing start state, a nil table and context cancellation;
// halting and the step cap are outcomes, not errors.
func (e *Engine) Execute(ctx context.Context, table *domain.Table, start string, input string) (*domain.Run, error) {
	if table == nil {
		return nil, fmt.Errorf("transition table is required")
	}
	if start == "" {
		return nil, domain.ErrMissingStartState
	}

	began := e.now()
	m := newMachine(start, domain.Symbols(input))
	trace := domain.Trace{m.snapshot()}

	outcome := domain.OutcomeHalted
	steps := 0
	for {
		rule, ok := table.Lookup(m.state, m.read())
		if !ok {
			break
		}
		if steps == e.stepLimit {
			outcome = domain.OutcomeStepLimitExceeded
			break
		}
		if steps%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("run interrupted after %d steps: %w", steps, err)
			}
		}

		read := m.read()
		from := m.state
		m.apply(rule)
		steps++
		trace = append(trace, m.snapshot())

		if e.hooks.OnStep != nil {
			e.hooks.OnStep(ctx, &domain.StepEvent{
				EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventStep},
				Step:      steps,
				From:      from,
				To:        rule.To,
				Read:      read,
				Write:     rule.Output(read),
				Move:      rule.Move,
				Head:      m.head,
			})
		}
	}

	run := &domain.Run{
		Trace:      trace,
		Outcome:    outcome,
		FinalState: m.state,
		Steps:      steps,
		StepLimit:  e.stepLimit,
	}

	elapsed := e.now().Sub(began)
	e.logger.Debug("run finished",
		"outcome", outcome,
		"final_state", run.FinalState,
		"steps", steps,
		"tape_len", len(m.tape),
		"duration", elapsed,
	)
	if e.hooks.OnHalt != nil {
		e.hooks.OnHalt(ctx, &domain.HaltEvent{
			EventBase:  domain.EventBase{Timestamp: e.now(), Type: domain.EventHalt},
			Outcome:    outcome,
			FinalState: run.FinalState,
			Steps:      steps,
			Duration:   elapsed,
		})
	}
	return run, nil
}
