package turing

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/turing/pkg/domain"
	"github.com/aretw0/turing/pkg/playback"
)

// SnapshotRenderer turns one snapshot into printable text.
// This allows for TUI rendering (ANSI colours) without coupling the core package.
type SnapshotRenderer func(index, total int, snap domain.Snapshot) string

// PlainRenderer prints "[i/n] state tape" with the head cell in brackets.
func PlainRenderer(index, total int, snap domain.Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%d/%d] %s ", index, total-1, snap.State)
	for i, c := range snap.Tape {
		if i == snap.Head {
			fmt.Fprintf(&sb, "[%s]", c)
		} else {
			sb.WriteString(c.String())
		}
	}
	return sb.String()
}

// Runner replays a finished run in a terminal, driven by line commands:
//
//	<enter>|n  step forward      b  step backward
//	r          reset             a  toggle auto-play
//	g <i>      jump to index i   q  quit
type Runner struct {
	Input     io.Reader
	Output    io.Writer
	Renderer  SnapshotRenderer
	AutoDelay time.Duration

	// TickerFactory overrides the auto-play clock (tests).
	TickerFactory playback.TickerFactory
}

// NewRunner creates a Runner with the plain renderer and a 500ms auto-play period.
// Input and Output must be set before Run.
func NewRunner() *Runner {
	return &Runner{
		Renderer:  PlainRenderer,
		AutoDelay: 500 * time.Millisecond,
	}
}

// Run renders snapshot 0 and processes commands until quit, EOF or ctx is done.
func (r *Runner) Run(ctx context.Context, run *domain.Run) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	render := r.Renderer
	if render == nil {
		render = PlainRenderer
	}

	// The auto-play timer renders from its own goroutine.
	var outMu sync.Mutex
	total := run.Trace.Len()
	show := func(index int, snap domain.Snapshot) {
		outMu.Lock()
		defer outMu.Unlock()
		fmt.Fprintln(r.Output, render(index, total, snap))
	}

	opts := []playback.Option{}
	if r.TickerFactory != nil {
		opts = append(opts, playback.WithTicker(r.TickerFactory))
	}
	ctrl, err := playback.New(run.Trace, show, opts...)
	if err != nil {
		return err
	}
	defer ctrl.Close()
	ctrl.Reset()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(r.Input)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			if err != nil {
				return fmt.Errorf("input error: %w", err)
			}
			return nil
		case line := <-lines:
			quit, err := r.dispatch(ctrl, line)
			if err != nil {
				outMu.Lock()
				fmt.Fprintf(r.Output, "error: %v\n", err)
				outMu.Unlock()
			}
			if quit {
				return nil
			}
		}
	}
}

func (r *Runner) dispatch(ctrl *playback.Controller, line string) (bool, error) {
	cmd, arg, _ := strings.Cut(line, " ")
	switch cmd {
	case "", "n", "next":
		ctrl.StepForward()
	case "b", "back":
		ctrl.StepBackward()
	case "r", "reset":
		ctrl.Reset()
	case "a", "auto":
		if _, err := ctrl.ToggleAuto(r.AutoDelay); err != nil {
			return false, err
		}
	case "g", "goto":
		i, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil {
			return false, fmt.Errorf("invalid index %q", arg)
		}
		return false, ctrl.Seek(i)
	case "q", "quit", "exit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q", cmd)
	}
	return false, nil
}
