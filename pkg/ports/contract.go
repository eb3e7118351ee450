package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/turing/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractSession(id string) *domain.Session {
	run := &domain.Run{
		Trace: domain.Trace{
			{State: "q0", Tape: domain.Symbols("#0"), Head: 0},
			{State: "q1", Tape: domain.Symbols("#0"), Head: 1},
		},
		Outcome:    domain.OutcomeHalted,
		FinalState: "q1",
		Steps:      1,
		StepLimit:  100,
	}
	return domain.NewSession(id, domain.Request{Rules: "q0 # -> q1 # R", StartState: "q0", Input: "#0"}, run)
}

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		session := contractSession(sessionID)
		session.Cursor = 1

		err := store.Save(ctx, sessionID, session)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, session.ID, loaded.ID)
		assert.Equal(t, session.Request, loaded.Request)
		assert.Equal(t, 1, loaded.Cursor)
		require.NotNil(t, loaded.Run)
		assert.Equal(t, session.Run.Trace, loaded.Run.Trace)
		assert.Equal(t, domain.OutcomeHalted, loaded.Run.Outcome)
	})

	t.Run("Save Replaces", func(t *testing.T) {
		session := contractSession(sessionID)
		session.Request.Input = "#00"
		require.NoError(t, store.Save(ctx, sessionID, session))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "#00", loaded.Request.Input)
		assert.Equal(t, 0, loaded.Cursor)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, contractSession(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Deleting twice should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, contractSession(id1))
		_ = store.Save(ctx, id2, contractSession(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
