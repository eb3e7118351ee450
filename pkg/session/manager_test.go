package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/turing/pkg/adapters/memory"
	"github.com/aretw0/turing/pkg/domain"
	"github.com/aretw0/turing/pkg/ports"
	"github.com/aretw0/turing/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore adds latency so a missing lock shows up as lost updates.
type SlowStore struct {
	*memory.Store
}

func (s SlowStore) Save(ctx context.Context, id string, sess *domain.Session) error {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Save(ctx, id, sess)
}

func (s SlowStore) Load(ctx context.Context, id string) (*domain.Session, error) {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Load(ctx, id)
}

func sampleRun(n int) *domain.Run {
	trace := make(domain.Trace, n)
	for i := range trace {
		trace[i] = domain.Snapshot{State: "q", Tape: domain.Symbols("0"), Head: 0}
	}
	return &domain.Run{Trace: trace, Outcome: domain.OutcomeHalted, Steps: n - 1}
}

func TestManager_SubmitResetsCursor(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(memory.NewStore())

	_, err := mgr.Submit(ctx, "s", domain.Request{Input: "a"}, sampleRun(3))
	require.NoError(t, err)
	_, err = mgr.SetCursor(ctx, "s", 2)
	require.NoError(t, err)

	s, err := mgr.Submit(ctx, "s", domain.Request{Input: "b"}, sampleRun(5))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Cursor)

	loaded, err := mgr.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "b", loaded.Request.Input)
	assert.Equal(t, 5, loaded.Run.Trace.Len())
	assert.Equal(t, 0, loaded.Cursor)
}

func TestManager_SubmitEmptyRun(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	_, err := mgr.Submit(context.Background(), "s", domain.Request{}, &domain.Run{})
	assert.ErrorIs(t, err, domain.ErrEmptyTrace)
}

func TestManager_SetCursorBounds(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(memory.NewStore())
	_, err := mgr.Submit(ctx, "s", domain.Request{}, sampleRun(2))
	require.NoError(t, err)

	_, err = mgr.SetCursor(ctx, "s", 2)
	assert.ErrorIs(t, err, domain.ErrIndexOutOfRange)
	_, err = mgr.SetCursor(ctx, "s", -1)
	assert.ErrorIs(t, err, domain.ErrIndexOutOfRange)

	s, err := mgr.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, 0, s.Cursor, "failed update must not be saved")

	_, err = mgr.SetCursor(ctx, "missing", 0)
	assert.True(t, session.IsNotFound(err))
}

func TestManager_ConcurrentUpdatesAreSerialized(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(SlowStore{memory.NewStore()})
	_, err := mgr.Submit(ctx, "race", domain.Request{}, sampleRun(100))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := mgr.Update(ctx, "race", func(s *domain.Session) error {
				s.Cursor++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	s, err := mgr.Load(ctx, "race")
	require.NoError(t, err)
	assert.Equal(t, 20, s.Cursor, "read-modify-write lost updates")
}

type fakeLocker struct {
	mu       sync.Mutex
	locked   []string
	unlocked []string
	err      error
}

func (f *fakeLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	f.locked = append(f.locked, key)
	f.mu.Unlock()
	return func(ctx context.Context) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.unlocked = append(f.unlocked, key)
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	ctx := context.Background()
	locker := &fakeLocker{}
	mgr := session.NewManager(memory.NewStore(), session.WithLocker(locker), session.WithLockTTL(time.Second))

	_, err := mgr.Submit(ctx, "s1", domain.Request{}, sampleRun(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, locker.locked)
	assert.Equal(t, []string{"s1"}, locker.unlocked)

	locker.err = errors.New("redis down")
	_, err = mgr.Load(ctx, "s1")
	assert.ErrorContains(t, err, "redis down")
}

func TestManager_List(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(memory.NewStore())
	_, _ = mgr.Submit(ctx, "b", domain.Request{}, sampleRun(1))
	_, _ = mgr.Submit(ctx, "a", domain.Request{}, sampleRun(1))

	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
	assert.NotNil(t, mgr.Store())
}

func TestManager_MoveCursorRejectsReplacedRun(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(memory.NewStore())

	first, err := mgr.Submit(ctx, "s", domain.Request{}, sampleRun(3))
	require.NoError(t, err)
	require.NotEmpty(t, first.RunID)

	_, err = mgr.MoveCursor(ctx, "s", first.RunID, 1)
	require.NoError(t, err)

	second, err := mgr.Submit(ctx, "s", domain.Request{}, sampleRun(3))
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, second.RunID)

	_, err = mgr.MoveCursor(ctx, "s", first.RunID, 2)
	assert.ErrorIs(t, err, domain.ErrRunReplaced)

	loaded, err := mgr.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, second.RunID, loaded.RunID)
	assert.Equal(t, 0, loaded.Cursor)
}
