package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/turing"
	"github.com/aretw0/turing/internal/testutils"
	turinghttp "github.com/aretw0/turing/pkg/adapters/http"
	"github.com/aretw0/turing/pkg/adapters/memory"
	"github.com/aretw0/turing/pkg/definition"
	"github.com/aretw0/turing/pkg/domain"
	"github.com/aretw0/turing/pkg/playback"
	"github.com/aretw0/turing/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *turing.Engine {
	t.Helper()
	eng, err := turing.New()
	require.NoError(t, err)
	return eng
}

func rejectRequest() domain.Request {
	return domain.Request{Rules: testutils.EqualCountsRules, StartState: "state_start", Input: "#01"}
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) turinghttp.SessionView {
	t.Helper()
	var v turinghttp.SessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type envelope struct {
	Error bool            `json:"error"`
	Data  json.RawMessage `json:"data"`
}

func TestGenerateTM(t *testing.T) {
	h := turinghttp.NewHandler(newEngine(t))

	t.Run("trace", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/generate_tm", rejectRequest())
		require.Equal(t, http.StatusOK, w.Code)

		var env envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.False(t, env.Error)

		var trace []domain.Snapshot
		require.NoError(t, json.Unmarshal(env.Data, &trace))
		require.Len(t, trace, 5)
		assert.Equal(t, "state_start", trace[0].State)
		assert.Equal(t, "state_reject", trace[4].State)
		assert.Contains(t, string(env.Data), `"cur_head_pos":0`)
		assert.Contains(t, string(env.Data), `"tape":["#","0","1"]`)
	})

	t.Run("malformed rules", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/generate_tm", domain.Request{Rules: "q0 0 q1 1 R", StartState: "q0", Input: "0"})
		require.Equal(t, http.StatusOK, w.Code)

		var env envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.True(t, env.Error)
		assert.Contains(t, string(env.Data), "line 1")
	})

	t.Run("bad json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/generate_tm", strings.NewReader("{"))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"error":true`)
	})
}

func TestSessionPlayback(t *testing.T) {
	h := turinghttp.NewHandler(newEngine(t))

	w := do(t, h, http.MethodPost, "/sessions", rejectRequest())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	v := decodeView(t, w)
	require.NotEmpty(t, v.ID)
	assert.Equal(t, 0, v.Index)
	assert.Equal(t, 5, v.Length)
	assert.Equal(t, domain.OutcomeHalted, v.Outcome)
	assert.Equal(t, "state_reject", v.FinalState)
	assert.Equal(t, 4, v.Steps)

	base := "/sessions/" + v.ID

	v = decodeView(t, do(t, h, http.MethodPost, base+"/forward", nil))
	assert.Equal(t, 1, v.Index)
	assert.Equal(t, "look_for_0", v.Snapshot.State)

	v = decodeView(t, do(t, h, http.MethodPost, base+"/backward", nil))
	assert.Equal(t, 0, v.Index)

	v = decodeView(t, do(t, h, http.MethodPost, base+"/backward", nil))
	assert.Equal(t, 0, v.Index, "backward at the first snapshot is a no-op")

	v = decodeView(t, do(t, h, http.MethodPost, base+"/seek", turinghttp.SeekRequest{Index: 4}))
	assert.Equal(t, 4, v.Index)

	v = decodeView(t, do(t, h, http.MethodPost, base+"/forward", nil))
	assert.Equal(t, 4, v.Index, "forward at the last snapshot is a no-op")

	w = do(t, h, http.MethodPost, base+"/seek", turinghttp.SeekRequest{Index: 5})
	assert.Equal(t, http.StatusNotFound, w.Code)

	v = decodeView(t, do(t, h, http.MethodPost, base+"/reset", nil))
	assert.Equal(t, 0, v.Index)

	w = do(t, h, http.MethodGet, base+"/snapshots/2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, "look_for_1", snap.State)
	assert.Equal(t, 0, decodeView(t, do(t, h, http.MethodGet, base, nil)).Index, "snapshot reads do not move the cursor")

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, base+"/snapshots/99", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, base+"/snapshots/x", nil).Code)

	w = do(t, h, http.MethodGet, "/sessions", nil)
	assert.Contains(t, w.Body.String(), v.ID)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, base, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, base, nil).Code)
}

func TestSubmitReplacesRun(t *testing.T) {
	h := turinghttp.NewHandler(newEngine(t))

	w := do(t, h, http.MethodPost, "/sessions/fixed/run", rejectRequest())
	require.Equal(t, http.StatusOK, w.Code)
	do(t, h, http.MethodPost, "/sessions/fixed/forward", nil)

	accept := rejectRequest()
	accept.Input = "#012"
	v := decodeView(t, do(t, h, http.MethodPost, "/sessions/fixed/run", accept))
	assert.Equal(t, "fixed", v.ID)
	assert.Equal(t, 0, v.Index)
	assert.Equal(t, 14, v.Length)
	assert.Equal(t, "state_accept", v.FinalState)
}

func TestSubmitErrors(t *testing.T) {
	h := turinghttp.NewHandler(newEngine(t))

	w := do(t, h, http.MethodPost, "/sessions", domain.Request{Rules: "bad", StartState: "q0"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, h, http.MethodPost, "/sessions", domain.Request{Rules: "q0 0 -> q0 0 R"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "start state")

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/sessions/missing/forward", nil).Code)
}

func TestPlayerRebuiltFromStore(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	eng := newEngine(t)

	a := turinghttp.NewHandler(eng, turinghttp.WithSessions(mgr))
	b := turinghttp.NewHandler(eng, turinghttp.WithSessions(mgr))

	v := decodeView(t, do(t, a, http.MethodPost, "/sessions", rejectRequest()))
	do(t, a, http.MethodPost, "/sessions/"+v.ID+"/forward", nil)
	do(t, a, http.MethodPost, "/sessions/"+v.ID+"/forward", nil)

	other := decodeView(t, do(t, b, http.MethodGet, "/sessions/"+v.ID, nil))
	assert.Equal(t, 2, other.Index)
	assert.Equal(t, "look_for_1", other.Snapshot.State)
}

func acceptRequest() domain.Request {
	return domain.Request{Rules: testutils.EqualCountsRules, StartState: "state_start", Input: "#012"}
}

func TestPlayerFollowsResubmittedRun(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	eng := newEngine(t)

	a := turinghttp.NewHandler(eng, turinghttp.WithSessions(mgr))
	b := turinghttp.NewHandler(eng, turinghttp.WithSessions(mgr))

	v := decodeView(t, do(t, a, http.MethodPost, "/sessions/s1/run", acceptRequest()))
	require.Equal(t, 14, v.Length)
	do(t, a, http.MethodPost, "/sessions/s1/forward", nil)

	flip := domain.Request{Rules: "q a -> q b R", StartState: "q", Input: "a"}
	v = decodeView(t, do(t, b, http.MethodPost, "/sessions/s1/run", flip))
	require.Equal(t, 2, v.Length)

	got := decodeView(t, do(t, a, http.MethodGet, "/sessions/s1", nil))
	assert.Equal(t, 2, got.Length)
	assert.Equal(t, 0, got.Index)
	assert.Equal(t, "q", got.FinalState)
	assert.Equal(t, "q", got.Snapshot.State)

	w := do(t, a, http.MethodPost, "/sessions/s1/forward", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got = decodeView(t, w)
	assert.Equal(t, 1, got.Index)
	assert.Equal(t, "b_", got.Snapshot.TapeString())

	// Forward at the end of the new trace stays put.
	w = do(t, a, http.MethodPost, "/sessions/s1/forward", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, decodeView(t, w).Index)
}

func TestPlayerBuiltOnceUnderConcurrentRequests(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	eng := newEngine(t)

	a := turinghttp.NewHandler(eng, turinghttp.WithSessions(mgr))
	b := turinghttp.NewHandler(eng, turinghttp.WithSessions(mgr))
	do(t, a, http.MethodPost, "/sessions/s1/run", acceptRequest())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			do(t, b, http.MethodPost, "/sessions/s1/forward", nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, decodeView(t, do(t, b, http.MethodGet, "/sessions/s1", nil)).Index)
}

type manualTicker struct {
	ch chan time.Time
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               {}

func TestAutoPlay(t *testing.T) {
	tickers := make(chan *manualTicker, 4)
	factory := func(d time.Duration) playback.Ticker {
		tk := &manualTicker{ch: make(chan time.Time)}
		tickers <- tk
		return tk
	}
	h := turinghttp.NewHandler(newEngine(t), turinghttp.WithTicker(factory))

	v := decodeView(t, do(t, h, http.MethodPost, "/sessions", rejectRequest()))
	base := "/sessions/" + v.ID

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, base+"/auto", turinghttp.AutoRequest{DelayMS: 0}).Code)

	v = decodeView(t, do(t, h, http.MethodPost, base+"/auto", turinghttp.AutoRequest{DelayMS: 10}))
	assert.True(t, v.Playing)

	tk := <-tickers
	tk.ch <- time.Now()
	tk.ch <- time.Now()
	assert.Eventually(t, func() bool {
		return decodeView(t, do(t, h, http.MethodGet, base, nil)).Index == 2
	}, time.Second, 5*time.Millisecond)

	v = decodeView(t, do(t, h, http.MethodPost, base+"/auto", turinghttp.AutoRequest{DelayMS: 10}))
	assert.False(t, v.Playing)
	assert.Equal(t, 2, v.Index)
}

func TestSubscribeEvents(t *testing.T) {
	srv := httptest.NewServer(turinghttp.NewHandler(newEngine(t)))
	defer srv.Close()

	body, _ := json.Marshal(rejectRequest())
	resp, err := http.Post(srv.URL+"/sessions/live/run", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sessions/live/events", nil)
	stream, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer stream.Body.Close()
	assert.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))

	reader := bufio.NewReader(stream.Body)
	readEvent := func() []string {
		var lines []string
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimRight(line, "\n")
			if line == "" {
				return lines
			}
			lines = append(lines, line)
		}
	}

	assert.Equal(t, []string{"event: ping", "data: connected"}, readEvent())

	resp, err = http.Post(srv.URL+"/sessions/live/forward", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	ev := readEvent()
	require.Len(t, ev, 2)
	assert.Equal(t, "event: snapshot", ev[0])

	var diff domain.SnapshotDiff
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(ev[1], "data: ")), &diff))
	assert.Equal(t, "live", diff.SessionID)
	assert.Equal(t, 1, diff.Index)
	require.NotNil(t, diff.State)
	assert.Equal(t, "look_for_0", *diff.State)
	require.NotNil(t, diff.Head)
	assert.Equal(t, 1, *diff.Head)
	assert.Nil(t, diff.Length)
	assert.Empty(t, diff.Cells)
}

func TestHealthInfoMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("turing_steps_total 0\n"))
	})
	h := turinghttp.NewHandler(newEngine(t), turinghttp.WithMetricsHandler(metrics))

	assert.JSONEq(t, `{"status":"ok"}`, do(t, h, http.MethodGet, "/health", nil).Body.String())

	var info map[string]any
	require.NoError(t, json.Unmarshal(do(t, h, http.MethodGet, "/info", nil).Body.Bytes(), &info))
	assert.Equal(t, "turing-http", info["app"])
	assert.Equal(t, float64(turing.DefaultStepLimit), info["step_limit"])

	assert.Contains(t, do(t, h, http.MethodGet, "/metrics", nil).Body.String(), "turing_steps_total")
}

func TestMachines(t *testing.T) {
	h := turinghttp.NewHandler(newEngine(t))

	w := do(t, h, http.MethodGet, "/machines", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []turinghttp.MachineSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "binary_increment", list[0].Name)
	assert.Equal(t, "equal_counts", list[1].Name)
	assert.Equal(t, "#012", list[1].Input)
	assert.Equal(t, 200, list[0].StepLimit, "the machine file's step_limit")
	assert.Equal(t, 100, list[1].StepLimit)

	w = do(t, h, http.MethodGet, "/machines/equal_counts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var def definition.Definition
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &def))
	assert.Equal(t, "state_start", def.Start)
	assert.Contains(t, def.Rules, "state_start * -> state_start * L")

	w = do(t, h, http.MethodGet, "/machines/busy_beaver", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	capped := turinghttp.NewHandler(newEngine(t), turinghttp.WithMaxSteps(5))
	list = nil
	require.NoError(t, json.Unmarshal(do(t, capped, http.MethodGet, "/machines", nil).Body.Bytes(), &list))
	assert.Equal(t, 5, list[0].StepLimit)
}
