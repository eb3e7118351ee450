package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/turing/pkg/adapters/sqlite"
	"github.com/aretw0/turing/pkg/domain"
	"github.com/aretw0/turing/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.StateStore = (*sqlite.Store)(nil)

func TestSQLiteStore_Contract(t *testing.T) {
	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ports.RunStateStoreContract(t, store)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	ctx := context.Background()

	store, err := sqlite.Open(path)
	require.NoError(t, err)

	run := &domain.Run{
		Trace:   domain.Trace{{State: "q0", Tape: domain.Symbols("1")}},
		Outcome: domain.OutcomeStepLimitExceeded,
	}
	session := domain.NewSession("s1", domain.Request{StartState: "q0", Input: "1"}, run)
	session.Cursor = 0
	require.NoError(t, store.Save(ctx, "s1", session))
	require.NoError(t, store.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeStepLimitExceeded, loaded.Run.Outcome)
	assert.Equal(t, "1", loaded.Run.Trace[0].TapeString())
}
