package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/aretw0/turing"
	"github.com/aretw0/turing/internal/logging"
	"github.com/aretw0/turing/internal/presentation/graph"
	"github.com/aretw0/turing/internal/presentation/tui"
	"github.com/aretw0/turing/pkg/definition"
	"github.com/aretw0/turing/pkg/domain"
	"github.com/aretw0/turing/pkg/observability"
	"github.com/aretw0/turing/pkg/playback"
	"github.com/aretw0/turing/pkg/registry"
	"github.com/aretw0/turing/pkg/session"
)

// DefaultAutoDelay is the auto-play period of the interactive player.
const DefaultAutoDelay = 500 * time.Millisecond

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	// Machine is a registered name or a path to a machine file.
	Machine    string
	StartState string
	Input      string
	Accept     string
	Reject     string

	// InputSet marks Input as given even when empty. Otherwise an empty
	// Input runs the machine's sample input.
	InputSet bool

	JSON        bool
	Report      bool
	Graph       bool
	Interactive bool
	Auto        time.Duration
	Watch       bool

	// SessionID, when set, persists the run in the configured store.
	SessionID string
}

// App carries what every command needs. Tests replace In, Out and Ticker.
type App struct {
	Config Config
	In     io.Reader
	Out    io.Writer
	Logger *slog.Logger
	Ticker playback.TickerFactory
}

func (a *App) logger() *slog.Logger {
	if a.Logger == nil {
		return logging.NewNop()
	}
	return a.Logger
}

// Engine builds an engine whose step cap is the --max-steps override,
// else the machine's own limit, else turing.DefaultStepLimit.
func (a *App) Engine(machineLimit int, extra ...domain.LifecycleHooks) (*turing.Engine, error) {
	limit := turing.DefaultStepLimit
	if machineLimit > 0 {
		limit = machineLimit
	}
	if a.Config.MaxSteps > 0 {
		limit = a.Config.MaxSteps
	}
	hooks := append([]domain.LifecycleHooks{observability.LoggingHooks(a.logger())}, extra...)
	return turing.New(
		turing.WithStepLimit(limit),
		turing.WithLogger(a.logger()),
		turing.WithLifecycleHooks(observability.Compose(hooks...)),
	)
}

// Registry returns the builtin machines plus those in --machines-dir.
func (a *App) Registry() (*registry.Registry, error) {
	machines, err := registry.NewWithBuiltins()
	if err != nil {
		return nil, err
	}
	if a.Config.MachinesDir != "" {
		n, err := machines.LoadDir(a.Config.MachinesDir)
		if err != nil {
			return nil, err
		}
		a.logger().Debug("machines loaded", "dir", a.Config.MachinesDir, "count", n)
	}
	return machines, nil
}

// Machine resolves opts.Machine, a file path or a registered name, and
// applies the command line overrides.
func (a *App) Machine(opts RunOptions) (*definition.Definition, domain.Request, error) {
	def, err := a.resolve(opts.Machine)
	if err != nil {
		return nil, domain.Request{}, err
	}
	if opts.StartState != "" {
		def.Start = opts.StartState
	}
	if opts.Accept != "" {
		def.Accept = opts.Accept
	}
	if opts.Reject != "" {
		def.Reject = opts.Reject
	}
	if def.Accept == "" {
		def.Accept = turing.DefaultAcceptState
	}
	if def.Reject == "" {
		def.Reject = turing.DefaultRejectState
	}
	if opts.Input == "" && !opts.InputSet {
		return def, def.SampleRequest(), nil
	}
	return def, def.Request(opts.Input), nil
}

func (a *App) resolve(ref string) (*definition.Definition, error) {
	if _, err := os.Stat(ref); err == nil {
		return definition.Load(ref)
	}
	machines, err := a.Registry()
	if err != nil {
		return nil, err
	}
	if def, err := machines.Get(ref); err == nil {
		return def, nil
	}
	return definition.Load(ref)
}

// Run executes a machine and presents the trace as opts asks.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	def, req, err := a.Machine(opts)
	if err != nil {
		return err
	}
	eng, err := a.Engine(def.StepLimit)
	if err != nil {
		return err
	}

	run, err := eng.Run(ctx, req)
	if opts.JSON {
		resp := domain.NewErrorResponse(err)
		if err == nil {
			resp = domain.NewTraceResponse(run)
		}
		if encErr := writeJSON(a.Out, resp); encErr != nil {
			return encErr
		}
	}
	if err != nil {
		return err
	}

	if opts.SessionID != "" {
		if err := a.persist(ctx, opts.SessionID, req, run); err != nil {
			return err
		}
	}
	if opts.JSON {
		return nil
	}

	verdict := turing.Judge(run, def.Accept, def.Reject)
	switch {
	case opts.Report:
		return a.report(ctx, eng, def, req, run, verdict, opts.Graph)
	case opts.Graph:
		return a.graph(ctx, eng, req, run)
	case opts.Interactive:
		return a.interactive(ctx, run, opts.Auto)
	case opts.Auto > 0:
		if err := a.autoPlay(ctx, run, opts.Auto); err != nil {
			return err
		}
	default:
		a.printTrace(run)
	}

	fmt.Fprintln(a.Out, Summary(run, verdict))
	return nil
}

// Summary is the one-line result printed after a trace.
func Summary(run *domain.Run, verdict turing.Verdict) string {
	if run.Outcome == domain.OutcomeStepLimitExceeded {
		return fmt.Sprintf("stopped by the step limit (%d) in %s: %s", run.StepLimit, run.FinalState, verdict)
	}
	return fmt.Sprintf("halted in %s after %d steps: %s", run.FinalState, run.Steps, verdict)
}

func (a *App) tapeRenderer() turing.SnapshotRenderer {
	return tui.NewTapeRenderer(ColorProfile(a.Out)).Render
}

func (a *App) printTrace(run *domain.Run) {
	render := a.tapeRenderer()
	for i, snap := range run.Trace {
		fmt.Fprintln(a.Out, render(i, run.Trace.Len(), snap))
	}
}

// autoPlay drives a Playback Controller until the last snapshot is shown.
func (a *App) autoPlay(ctx context.Context, run *domain.Run, delay time.Duration) error {
	render := a.tapeRenderer()
	total := run.Trace.Len()
	done := make(chan struct{})
	var once sync.Once

	ctrl, err := playback.New(run.Trace, func(index int, snap domain.Snapshot) {
		fmt.Fprintln(a.Out, render(index, total, snap))
		if index == total-1 {
			once.Do(func() { close(done) })
		}
	}, playback.WithTicker(a.Ticker), playback.WithLogger(a.logger()))
	if err != nil {
		return err
	}
	defer ctrl.Close()

	ctrl.Reset()
	if total > 1 {
		if err := ctrl.StartAuto(delay); err != nil {
			return err
		}
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *App) interactive(ctx context.Context, run *domain.Run, delay time.Duration) error {
	r := turing.NewRunner()
	r.Input = a.In
	r.Output = a.Out
	r.Renderer = a.tapeRenderer()
	r.TickerFactory = a.Ticker
	r.AutoDelay = DefaultAutoDelay
	if delay > 0 {
		r.AutoDelay = delay
	}
	return r.Run(ctx, run)
}

func (a *App) report(ctx context.Context, eng *turing.Engine, def *definition.Definition, req domain.Request, run *domain.Run, verdict turing.Verdict, withGraph bool) error {
	rep := tui.Report{
		Title:   def.Name,
		Request: req,
		Run:     run,
		Verdict: string(verdict),
	}
	if withGraph {
		table, err := eng.Parse(ctx, req.Rules)
		if err != nil {
			return err
		}
		rep.Diagram = graph.GenerateMermaid(table, req.StartState, graph.OverlayFromTrace(run.Trace))
	}

	render, err := tui.NewRenderer(IsTerminal(a.Out), Width(a.Out))
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := render(rep.Markdown())
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	_, err = io.WriteString(a.Out, out)
	return err
}

func (a *App) graph(ctx context.Context, eng *turing.Engine, req domain.Request, run *domain.Run) error {
	table, err := eng.Parse(ctx, req.Rules)
	if err != nil {
		return err
	}
	var overlay *graph.Overlay
	if run != nil {
		overlay = graph.OverlayFromTrace(run.Trace)
	}
	_, err = io.WriteString(a.Out, graph.GenerateMermaid(table, req.StartState, overlay))
	return err
}

// Graph prints the Mermaid diagram of a machine without running it.
func (a *App) Graph(ctx context.Context, opts RunOptions) error {
	def, req, err := a.Machine(opts)
	if err != nil {
		return err
	}
	eng, err := a.Engine(def.StepLimit)
	if err != nil {
		return err
	}
	return a.graph(ctx, eng, req, nil)
}

func (a *App) persist(ctx context.Context, id string, req domain.Request, run *domain.Run) error {
	mgr, closeFn, err := a.Sessions(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	if _, err := mgr.Submit(ctx, id, req, run); err != nil {
		return fmt.Errorf("failed to save session %q: %w", id, err)
	}
	a.logger().Info("session saved", "session_id", id, "store", a.Config.Store)
	return nil
}

// Sessions opens the configured store behind a session manager.
// The returned function closes the store.
func (a *App) Sessions(ctx context.Context) (*session.Manager, func(), error) {
	backend, err := OpenStore(ctx, a.Config)
	if err != nil {
		return nil, nil, err
	}
	opts := []session.Option{session.WithLogger(a.logger())}
	if backend.Locker != nil {
		opts = append(opts, session.WithLocker(backend.Locker))
	}
	closeFn := func() {
		if err := backend.Close(); err != nil {
			a.logger().Warn("failed to close session store", "err", err)
		}
	}
	return session.NewManager(backend.Store, opts...), closeFn, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
