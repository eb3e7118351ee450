package turing

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/turing/internal/compiler"
	"github.com/aretw0/turing/internal/runtime"
	"github.com/aretw0/turing/pkg/domain"
	"github.com/aretw0/turing/pkg/ports"
)

// Version is the release of the library and the binaries built from it.
//
//go:embed VERSION
var Version string

// DefaultStepLimit caps runs when no WithStepLimit option is given.
const DefaultStepLimit = 100

// Engine is the high-level entry point of the library.
// It ties the rule parser to the execution engine and is safe for concurrent use.
type Engine struct {
	parser    *compiler.Parser
	runtime   *runtime.Engine
	stepLimit int
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStepLimit sets the maximum number of transitions per run.
func WithStepLimit(limit int) Option {
	return func(e *Engine) {
		e.stepLimit = limit
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New initializes an Engine.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{
		parser:    compiler.NewParser(),
		stepLimit: DefaultStepLimit,
	}
	for _, opt := range opts {
		opt(eng)
	}

	// Ensure logger is initialized (so we don't pass nil to runtime)
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	rt, err := runtime.NewEngine(eng.stepLimit,
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
	)
	if err != nil {
		return nil, err
	}
	eng.runtime = rt
	return eng, nil
}

// StepLimit returns the configured step cap.
func (e *Engine) StepLimit() int {
	return e.stepLimit
}

// Limited returns an engine with e's hooks and logger capped at limit.
// It returns e itself when the limit is unchanged.
func (e *Engine) Limited(limit int) (ports.Simulator, error) {
	if limit == e.stepLimit {
		return e, nil
	}
	eng, err := New(WithStepLimit(limit), WithLifecycleHooks(e.hooks), WithLogger(e.logger))
	if err != nil {
		return nil, err
	}
	return eng, nil
}

// Parse converts rule text into a transition table.
// Failures match domain.ErrMalformedRule and name every offending line.
func (e *Engine) Parse(ctx context.Context, rules string) (*domain.Table, error) {
	table, err := e.parser.Parse(rules)
	if err != nil {
		lines := domain.MalformedLines(err)
		e.logger.Debug("rule text rejected", "lines", len(lines), "err", err)
		if e.hooks.OnParseError != nil {
			e.hooks.OnParseError(ctx, &domain.ParseErrorEvent{
				EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventParseError},
				Lines:     len(lines),
			})
		}
		return nil, err
	}
	return table, nil
}

// Run parses the request rules and executes them against the request input.
func (e *Engine) Run(ctx context.Context, req domain.Request) (*domain.Run, error) {
	if req.StartState == "" {
		return nil, domain.ErrMissingStartState
	}
	table, err := e.Parse(ctx, req.Rules)
	if err != nil {
		return nil, err
	}
	run, err := e.runtime.Execute(ctx, table, req.StartState, req.Input)
	if err != nil {
		return nil, fmt.Errorf("execution failed: %w", err)
	}
	return run, nil
}

// Simulate runs the request and wraps the result in the transport envelope.
// It never fails: errors become {"error": true, "data": "<diagnostic>"}.
func (e *Engine) Simulate(ctx context.Context, req domain.Request) domain.Response {
	run, err := e.Run(ctx, req)
	if err != nil {
		return domain.NewErrorResponse(err)
	}
	return domain.NewTraceResponse(run)
}
