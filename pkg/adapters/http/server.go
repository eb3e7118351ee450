package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/turing"
	"github.com/aretw0/turing/pkg/adapters/memory"
	"github.com/aretw0/turing/pkg/definition"
	"github.com/aretw0/turing/pkg/domain"
	"github.com/aretw0/turing/pkg/playback"
	"github.com/aretw0/turing/pkg/ports"
	"github.com/aretw0/turing/pkg/registry"
	"github.com/aretw0/turing/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

// Server serves the simulation endpoint and the session playback API.
// Each session gets one playback.Controller on the replica that serves it;
// the run itself lives in the session store so any replica can rebuild it.
type Server struct {
	Engine   ports.Simulator
	Sessions *session.Manager
	Streams  *StreamManager
	Machines *registry.Registry

	metrics   http.Handler
	newTicker playback.TickerFactory
	maxSteps  int

	mu      sync.Mutex
	players map[string]*player
}

// player is the live controller of one session run plus the last snapshot
// it rendered, which is the base of the next SSE diff.
type player struct {
	runID string
	ctrl  *playback.Controller
	prev  *domain.Snapshot
}

// Option configures the Server.
type Option func(*Server)

// WithSessions sets the session manager. Defaults to an in-memory store.
func WithSessions(m *session.Manager) Option {
	return func(s *Server) {
		s.Sessions = m
	}
}

// WithRegistry sets the machines listed under /machines. Defaults to the builtins.
func WithRegistry(r *registry.Registry) Option {
	return func(s *Server) {
		s.Machines = r
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithMaxSteps reports n as every machine's step cap under /machines,
// mirroring a server-wide --max-steps override.
func WithMaxSteps(n int) Option {
	return func(s *Server) {
		s.maxSteps = n
	}
}

// WithTicker sets the ticker used for auto-play.
func WithTicker(factory playback.TickerFactory) Option {
	return func(s *Server) {
		s.newTicker = factory
	}
}

// NewServer builds a Server around engine.
func NewServer(engine ports.Simulator, opts ...Option) *Server {
	s := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
		players: make(map[string]*player),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Sessions == nil {
		s.Sessions = session.NewManager(memory.NewStore())
	}
	if s.Machines == nil {
		machines, err := registry.NewWithBuiltins()
		if err != nil {
			slog.Error("builtin machines unavailable", "error", err)
			machines = registry.NewRegistry()
		}
		s.Machines = machines
	}
	return s
}

// NewHandler creates the HTTP handler for engine.
func NewHandler(engine ports.Simulator, opts ...Option) http.Handler {
	return NewServer(engine, opts...).Routes()
}

// Routes returns the chi router for the server.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Post("/generate_tm", s.GenerateTM)

	r.Get("/machines", s.ListMachines)
	r.Get("/machines/{name}", s.GetMachine)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/run", s.SubmitRun)
			r.Post("/forward", s.Forward)
			r.Post("/backward", s.Backward)
			r.Post("/reset", s.Reset)
			r.Post("/seek", s.Seek)
			r.Post("/auto", s.ToggleAuto)
			r.Get("/snapshots/{index}", s.GetSnapshot)
			r.Get("/events", s.SubscribeEvents)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionView is what the session endpoints return.
type SessionView struct {
	ID string `json:"id"`
	playback.View
	Outcome    domain.Outcome `json:"outcome"`
	FinalState string         `json:"final_state"`
	Steps      int            `json:"steps"`
}

// AutoRequest is the body of POST /sessions/{id}/auto.
type AutoRequest struct {
	DelayMS int `json:"delay_ms"`
}

// SeekRequest is the body of POST /sessions/{id}/seek.
type SeekRequest struct {
	Index int `json:"index"`
}

// GenerateTM handles POST /generate_tm. Simulation failures are reported
// inside the envelope with status 200, like the form it replaces.
func (s *Server) GenerateTM(w http.ResponseWriter, r *http.Request) {
	var req domain.Request
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		slog.Warn("GenerateTM: Invalid request body", "error", err)
		return
	}

	resp := s.Engine.Simulate(r.Context(), req)
	if resp.Error {
		slog.Debug("GenerateTM: simulation rejected", "reason", resp.Data)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		slog.Error("ListSessions failed", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// CreateSession handles POST /sessions with a fresh ID.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	s.submit(w, r, uuid.NewString(), http.StatusCreated)
}

// SubmitRun handles POST /sessions/{id}/run, replacing any previous run.
func (s *Server) SubmitRun(w http.ResponseWriter, r *http.Request) {
	s.submit(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request, id string, status int) {
	var req domain.Request
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	run, err := s.Engine.Run(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	sess, err := s.Sessions.Submit(r.Context(), id, req, run)
	if err != nil {
		writeError(w, statusFor(err), err)
		slog.Error("Submit failed", "session_id", id, "error", err)
		return
	}

	s.mu.Lock()
	p, err := s.installPlayer(id, sess)
	if err == nil {
		p.ctrl.Reset()
	}
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	slog.Info("Session run submitted", "session_id", id, "snapshots", run.Trace.Len(), "outcome", run.Outcome)
	writeJSON(w, status, s.view(sess, p))
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, p, err := s.load(r, id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(sess, p))
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	if p, ok := s.players[id]; ok {
		p.ctrl.Close()
		delete(s.players, id)
	}
	s.mu.Unlock()

	if err := s.Sessions.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		slog.Error("DeleteSession failed", "session_id", id, "error", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Forward handles POST /sessions/{id}/forward.
func (s *Server) Forward(w http.ResponseWriter, r *http.Request) {
	s.navigate(w, r, func(c *playback.Controller) error {
		c.StepForward()
		return nil
	})
}

// Backward handles POST /sessions/{id}/backward.
func (s *Server) Backward(w http.ResponseWriter, r *http.Request) {
	s.navigate(w, r, func(c *playback.Controller) error {
		c.StepBackward()
		return nil
	})
}

// Reset handles POST /sessions/{id}/reset.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	s.navigate(w, r, func(c *playback.Controller) error {
		c.Reset()
		return nil
	})
}

// Seek handles POST /sessions/{id}/seek.
func (s *Server) Seek(w http.ResponseWriter, r *http.Request) {
	var body SeekRequest
	if err := decode(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	s.navigate(w, r, func(c *playback.Controller) error {
		return c.Seek(body.Index)
	})
}

// ToggleAuto handles POST /sessions/{id}/auto.
func (s *Server) ToggleAuto(w http.ResponseWriter, r *http.Request) {
	var body AutoRequest
	if err := decode(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	s.navigate(w, r, func(c *playback.Controller) error {
		_, err := c.ToggleAuto(time.Duration(body.DelayMS) * time.Millisecond)
		return err
	})
}

// navigate applies fn to the session's controller and persists the new cursor.
func (s *Server) navigate(w http.ResponseWriter, r *http.Request, fn func(*playback.Controller) error) {
	id := chi.URLParam(r, "id")
	_, p, err := s.load(r, id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if err := fn(p.ctrl); err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	sess, err := s.Sessions.MoveCursor(r.Context(), id, p.runID, p.ctrl.Index())
	if errors.Is(err, domain.ErrRunReplaced) {
		s.dropPlayer(id, p)
		writeError(w, statusFor(err), err)
		slog.Warn("Session run replaced during navigation", "session_id", id)
		return
	}
	if err != nil {
		writeError(w, statusFor(err), err)
		slog.Error("Persisting cursor failed", "session_id", id, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(sess, p))
}

// GetSnapshot handles GET /sessions/{id}/snapshots/{index}. It does not move
// the cursor.
func (s *Server) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid snapshot index: %w", err))
		return
	}

	sess, err := s.Sessions.Load(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if sess.Run == nil {
		writeError(w, http.StatusNotFound, domain.ErrEmptyTrace)
		return
	}
	snap, err := sess.Run.Trace.At(index)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE). Every snapshot the
// session's controller renders is pushed as a diff against the previous one.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		slog.Error("SubscribeEvents: Streaming not supported")
		return
	}

	id := chi.URLParam(r, "id")
	slog.Info("SSE: Subscribing to Session Updates", "session_id", id)

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			slog.Info("SSE Client Disconnected", "session_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// MachineSummary is one entry of GET /machines.
type MachineSummary struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Start       string `json:"start"`
	Input       string `json:"input,omitempty"`
	StepLimit   int    `json:"step_limit"`
}

// ListMachines handles GET /machines.
func (s *Server) ListMachines(w http.ResponseWriter, r *http.Request) {
	names := s.Machines.Names()
	out := make([]MachineSummary, 0, len(names))
	for _, name := range names {
		def, err := s.Machines.Get(name)
		if err != nil {
			continue
		}
		out = append(out, MachineSummary{
			Name:        def.Name,
			Description: def.Description,
			Start:       def.Start,
			Input:       def.Input,
			StepLimit:   def.EffectiveStepLimit(s.maxSteps, s.Engine.StepLimit()),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// GetMachine handles GET /machines/{name}: the full definition, rules included.
func (s *Server) GetMachine(w http.ResponseWriter, r *http.Request) {
	def, err := s.Machines.Get(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"app":        "turing-http",
		"version":    strings.TrimSpace(turing.Version),
		"step_limit": s.Engine.StepLimit(),
	})
}

// load returns the stored session and its live player. The player is
// rebuilt from the store when this replica has none or when it wraps a run
// that has since been replaced.
func (s *Server) load(r *http.Request, id string) (*domain.Session, *player, error) {
	sess, err := s.Sessions.Load(r.Context(), id)
	if err != nil {
		return nil, nil, err
	}
	if sess.Run == nil || sess.Run.Trace.Len() == 0 {
		return nil, nil, domain.ErrEmptyTrace
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.players[id]; ok && p.runID == sess.RunID {
		return sess, p, nil
	}
	p, err := s.installPlayer(id, sess)
	if err != nil {
		return nil, nil, err
	}
	if err := p.ctrl.Seek(sess.Cursor); err != nil {
		p.ctrl.Reset()
	}
	slog.Debug("Rebuilt playback controller from store", "session_id", id, "run_id", sess.RunID, "cursor", p.ctrl.Index())
	return sess, p, nil
}

// installPlayer closes the session's controller, if any, and installs a new
// one over the session's run. Callers hold s.mu.
func (s *Server) installPlayer(id string, sess *domain.Session) (*player, error) {
	p := &player{runID: sess.RunID}
	opts := []playback.Option{}
	if s.newTicker != nil {
		opts = append(opts, playback.WithTicker(s.newTicker))
	}

	ctrl, err := playback.New(sess.Run.Trace, func(index int, snap domain.Snapshot) {
		diff := domain.DiffSnapshots(id, index, p.prev, snap)
		p.prev = &snap
		if diff == nil {
			return
		}
		if b, err := json.Marshal(diff); err == nil {
			s.Streams.Broadcast(id, string(b))
		}
	}, opts...)
	if err != nil {
		return nil, err
	}
	p.ctrl = ctrl

	if old, ok := s.players[id]; ok {
		old.ctrl.Close()
	}
	s.players[id] = p
	return p, nil
}

// dropPlayer closes p and forgets it, unless another player already took its place.
func (s *Server) dropPlayer(id string, p *player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ctrl.Close()
	if cur, ok := s.players[id]; ok && cur == p {
		delete(s.players, id)
	}
}

// Close stops every auto-play timer.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.players {
		p.ctrl.Close()
		delete(s.players, id)
	}
}

func (s *Server) view(sess *domain.Session, p *player) SessionView {
	v := SessionView{
		ID:   sess.ID,
		View: p.ctrl.View(),
	}
	if sess.Run != nil {
		v.Outcome = sess.Run.Outcome
		v.FinalState = sess.Run.FinalState
		v.Steps = sess.Run.Steps
	}
	return v
}

// -- Helpers --

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, definition.ErrUnknownMachine),
		errors.Is(err, domain.ErrIndexOutOfRange),
		errors.Is(err, domain.ErrEmptyTrace):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMalformedRule),
		errors.Is(err, domain.ErrMissingStartState):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidDelay):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRunReplaced):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, domain.NewErrorResponse(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}
