package turing_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/turing"
	"github.com/aretw0/turing/internal/testutils"
	"github.com/aretw0/turing/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Simulate_Success(t *testing.T) {
	eng, err := turing.New()
	require.NoError(t, err)
	assert.Equal(t, turing.DefaultStepLimit, eng.StepLimit())

	resp := eng.Simulate(context.Background(), domain.Request{
		Rules:      testutils.EqualCountsRules,
		StartState: "state_start",
		Input:      "#01",
	})
	require.False(t, resp.Error)

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded struct {
		Error bool              `json:"error"`
		Data  []domain.Snapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Data, 5)
	assert.Equal(t, domain.Snapshot{State: "state_start", Tape: domain.Symbols("#01"), Head: 0}, decoded.Data[0])
	assert.Equal(t, "state_reject", decoded.Data[4].State)
}

func TestEngine_Simulate_MalformedRule(t *testing.T) {
	eng, err := turing.New()
	require.NoError(t, err)

	resp := eng.Simulate(context.Background(), domain.Request{
		Rules:      "look_for_0 0 -> look_for_1 X R\nlook_for_0 0 -> look_for_1 X R",
		StartState: "look_for_0",
		Input:      "0",
	})
	assert.True(t, resp.Error)
	msg, ok := resp.Data.(string)
	require.True(t, ok)
	assert.Contains(t, msg, "line 2")
	assert.Contains(t, msg, "duplicate rule")
}

func TestEngine_Run_Errors(t *testing.T) {
	eng, err := turing.New()
	require.NoError(t, err)

	_, err = eng.Run(context.Background(), domain.Request{Rules: "q a -> q a R"})
	assert.ErrorIs(t, err, domain.ErrMissingStartState)

	_, err = eng.Run(context.Background(), domain.Request{Rules: "q a q a R", StartState: "q"})
	assert.ErrorIs(t, err, domain.ErrMalformedRule)

	_, err = turing.New(turing.WithStepLimit(-1))
	assert.ErrorIs(t, err, domain.ErrInvalidStepLimit)
}

func TestEngine_StepLimitIsAnOutcome(t *testing.T) {
	eng, err := turing.New(turing.WithStepLimit(10))
	require.NoError(t, err)

	run, err := eng.Run(context.Background(), domain.Request{Rules: "q * -> q * R", StartState: "q", Input: "a"})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeStepLimitExceeded, run.Outcome)
	assert.Len(t, run.Trace, 11)

	resp := eng.Simulate(context.Background(), domain.Request{Rules: "q * -> q * R", StartState: "q", Input: "a"})
	assert.False(t, resp.Error)
}

func TestEngine_ParseErrorHook(t *testing.T) {
	var lines int
	eng, err := turing.New(turing.WithLifecycleHooks(domain.LifecycleHooks{
		OnParseError: func(ctx context.Context, e *domain.ParseErrorEvent) { lines = e.Lines },
	}))
	require.NoError(t, err)

	_, err = eng.Parse(context.Background(), "bad\nworse\nq a -> q a R")
	require.Error(t, err)
	assert.Equal(t, 2, lines)
}

func TestEngine_Limited(t *testing.T) {
	var lines int
	eng, err := turing.New(turing.WithLifecycleHooks(domain.LifecycleHooks{
		OnParseError: func(ctx context.Context, e *domain.ParseErrorEvent) { lines = e.Lines },
	}))
	require.NoError(t, err)

	same, err := eng.Limited(turing.DefaultStepLimit)
	require.NoError(t, err)
	assert.Same(t, eng, same)

	short, err := eng.Limited(4)
	require.NoError(t, err)
	assert.Equal(t, 4, short.StepLimit())
	assert.Equal(t, turing.DefaultStepLimit, eng.StepLimit())

	run, err := short.Run(context.Background(), domain.Request{Rules: "q * -> q * R", StartState: "q", Input: "a"})
	require.NoError(t, err)
	assert.Len(t, run.Trace, 5)

	_, err = short.Parse(context.Background(), "bad")
	require.Error(t, err)
	assert.Equal(t, 1, lines, "hooks carry over")

	_, err = eng.Limited(0)
	assert.ErrorIs(t, err, domain.ErrInvalidStepLimit)
}

func TestJudge(t *testing.T) {
	accepted := &domain.Run{Outcome: domain.OutcomeHalted, FinalState: "state_accept"}
	rejected := &domain.Run{Outcome: domain.OutcomeHalted, FinalState: "state_reject"}
	stuck := &domain.Run{Outcome: domain.OutcomeHalted, FinalState: "look_for_1"}
	capped := &domain.Run{Outcome: domain.OutcomeStepLimitExceeded, FinalState: "state_accept"}

	assert.Equal(t, turing.VerdictAccepted, turing.Judge(accepted, turing.DefaultAcceptState, turing.DefaultRejectState))
	assert.Equal(t, turing.VerdictRejected, turing.Judge(rejected, turing.DefaultAcceptState, turing.DefaultRejectState))
	assert.Equal(t, turing.VerdictUndecided, turing.Judge(stuck, turing.DefaultAcceptState, turing.DefaultRejectState))
	assert.Equal(t, turing.VerdictUndecided, turing.Judge(capped, turing.DefaultAcceptState, turing.DefaultRejectState))
	assert.Equal(t, turing.VerdictUndecided, turing.Judge(nil, "a", "r"))
}
