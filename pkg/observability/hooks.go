package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/turing/pkg/domain"
)

// LoggingHooks logs halts and parse errors at info level and every step at debug.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStep: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step",
				"step", e.Step,
				"from", e.From,
				"to", e.To,
				"read", e.Read.String(),
				"write", e.Write.String(),
				"move", e.Move.String(),
				"head", e.Head,
			)
		},
		OnHalt: func(ctx context.Context, e *domain.HaltEvent) {
			logger.InfoContext(ctx, "halt",
				"outcome", e.Outcome,
				"final_state", e.FinalState,
				"steps", e.Steps,
				"duration", e.Duration,
			)
		},
		OnParseError: func(ctx context.Context, e *domain.ParseErrorEvent) {
			logger.InfoContext(ctx, "parse_error", "lines", e.Lines)
		},
	}
}

// Compose returns hooks that call each set in order. Nil callbacks are skipped.
func Compose(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks

	var steps []func(context.Context, *domain.StepEvent)
	var halts []func(context.Context, *domain.HaltEvent)
	var parses []func(context.Context, *domain.ParseErrorEvent)
	for _, s := range sets {
		if s.OnStep != nil {
			steps = append(steps, s.OnStep)
		}
		if s.OnHalt != nil {
			halts = append(halts, s.OnHalt)
		}
		if s.OnParseError != nil {
			parses = append(parses, s.OnParseError)
		}
	}

	if len(steps) > 0 {
		out.OnStep = func(ctx context.Context, e *domain.StepEvent) {
			for _, fn := range steps {
				fn(ctx, e)
			}
		}
	}
	if len(halts) > 0 {
		out.OnHalt = func(ctx context.Context, e *domain.HaltEvent) {
			for _, fn := range halts {
				fn(ctx, e)
			}
		}
	}
	if len(parses) > 0 {
		out.OnParseError = func(ctx context.Context, e *domain.ParseErrorEvent) {
			for _, fn := range parses {
				fn(ctx, e)
			}
		}
	}
	return out
}
