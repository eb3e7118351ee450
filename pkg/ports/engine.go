package ports

import (
	"context"

	"github.com/aretw0/turing/pkg/domain"
)

// Simulator is the stateless engine used by adapters (HTTP, MCP, CLI).
// Every call is independent; no run state is kept between calls.
type Simulator interface {
	// Parse validates rule text and builds the transition table.
	Parse(ctx context.Context, rules string) (*domain.Table, error)

	// Run executes a request and returns the complete run.
	Run(ctx context.Context, req domain.Request) (*domain.Run, error)

	// Simulate runs a request and wraps the result in the transport envelope.
	Simulate(ctx context.Context, req domain.Request) domain.Response

	// StepLimit returns the step cap applied to every run.
	StepLimit() int

	// Limited returns a simulator with the same hooks and logger whose runs
	// are capped at limit instead.
	Limited(limit int) (Simulator, error)
}
