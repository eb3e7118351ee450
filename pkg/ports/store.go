package ports

import (
	"context"

	"github.com/aretw0/turing/pkg/domain"
)

// StateStore persists sessions: the run a user submitted and where they are in it.
// Saving a session replaces whatever was stored under the same ID.
type StateStore interface {
	// Save persists the session under sessionID.
	Save(ctx context.Context, sessionID string, session *domain.Session) error

	// Load retrieves a session.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of stored sessions.
	List(ctx context.Context) ([]string, error)
}
