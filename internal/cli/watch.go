package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchDebounce collapses the burst of events a single editor save produces.
const WatchDebounce = 100 * time.Millisecond

// ErrWatchNeedsFile is returned when --watch names a builtin machine.
var ErrWatchNeedsFile = errors.New("--watch needs a machine file")

// Watch runs a machine file and runs it again every time the file changes,
// until ctx is done. A change cancels a run still playing; each new run
// discards the previous trace. Failed runs are reported and the watch goes on.
func (a *App) Watch(ctx context.Context, opts RunOptions) error {
	if opts.Interactive {
		return errors.New("--watch cannot be combined with --interactive")
	}
	path, err := filepath.Abs(opts.Machine)
	if err != nil {
		return err
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return fmt.Errorf("%w, got %q", ErrWatchNeedsFile, opts.Machine)
	}
	opts.Machine = path
	name := filepath.Base(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often save by replacing the file, which drops a watch on the
	// file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}
	a.logger().Info("Starting watcher", "path", path)

	errs := watcher.Errors
	for {
		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- a.Run(runCtx, opts) }()
		running := true

		var settle <-chan time.Time
	wait:
		for {
			select {
			case <-ctx.Done():
				cancel()
				if running {
					<-done
				}
				return ctx.Err()

			case err := <-done:
				running = false
				if err != nil && !IsInterrupted(err) {
					fmt.Fprintf(a.Out, "error: %v\n", err)
				}
				fmt.Fprintf(a.Out, "waiting for changes to %s\n", name)

			case ev, ok := <-watcher.Events:
				if !ok {
					cancel()
					if running {
						<-done
					}
					return nil
				}
				if filepath.Clean(ev.Name) != path {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					settle = time.After(WatchDebounce)
				}

			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				a.logger().Warn("file watcher error", "err", err)

			case <-settle:
				break wait
			}
		}

		cancel()
		if running {
			<-done
		}
		a.logger().Info("Change detected, running again", "path", path)
		fmt.Fprintf(a.Out, "%s changed, running again\n", name)
	}
}
