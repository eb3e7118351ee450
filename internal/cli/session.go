package cli

import (
	"context"
	"errors"
	"fmt"
)

// ListSessions prints the stored session IDs.
func (a *App) ListSessions(ctx context.Context) error {
	mgr, closeFn, err := a.Sessions(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	ids, err := mgr.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(a.Out, "No sessions found.")
		return nil
	}
	for _, id := range ids {
		sess, err := mgr.Load(ctx, id)
		if err != nil {
			// Expired or removed between List and Load.
			a.logger().Debug("session vanished while listing", "session_id", id, "err", err)
			continue
		}
		fmt.Fprintf(a.Out, "- %s\t%s\t%s\t%d/%d\n", id, sess.Run.Outcome, sess.Run.FinalState, sess.Cursor, sess.Run.Trace.Len()-1)
	}
	return nil
}

// InspectSession prints one session as indented JSON.
func (a *App) InspectSession(ctx context.Context, id string) error {
	mgr, closeFn, err := a.Sessions(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	sess, err := mgr.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load session %q: %w", id, err)
	}
	return writeJSON(a.Out, sess)
}

// RemoveSessions deletes every given session and reports each failure.
func (a *App) RemoveSessions(ctx context.Context, ids []string) error {
	mgr, closeFn, err := a.Sessions(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	var errs []error
	for _, id := range ids {
		if err := mgr.Delete(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove %q: %w", id, err))
			continue
		}
		fmt.Fprintf(a.Out, "Removed session '%s'\n", id)
	}
	return errors.Join(errs...)
}
