package playback

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/turing/pkg/domain"
)

// Renderer receives the snapshot at the new index after every change.
// It is called with the controller lock held and must not call back into
// the controller.
type Renderer func(index int, snap domain.Snapshot)

// Ticker is the subset of *time.Ticker the controller relies on.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a ticker firing every d.
type TickerFactory func(d time.Duration) Ticker

type stdTicker struct{ t *time.Ticker }

func (s stdTicker) C() <-chan time.Time { return s.t.C }
func (s stdTicker) Stop()               { s.t.Stop() }

// NewStdTicker wraps time.NewTicker.
func NewStdTicker(d time.Duration) Ticker {
	return stdTicker{t: time.NewTicker(d)}
}

// View is a read-only summary of the controller position.
type View struct {
	Index    int             `json:"index"`
	Length   int             `json:"length"`
	Playing  bool            `json:"playing"`
	Snapshot domain.Snapshot `json:"snapshot"`
}

// Controller navigates a trace. States are Idle(index) and Playing(index).
// All methods are safe for concurrent use.
type Controller struct {
	mu      sync.Mutex
	trace   domain.Trace
	render  Renderer
	index   int
	playing bool

	// generation invalidates ticks from a cancelled timer.
	generation uint64
	stop       chan struct{}

	newTicker TickerFactory
	logger    *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithTicker overrides the timer used by auto-play.
func WithTicker(factory TickerFactory) Option {
	return func(c *Controller) {
		if factory != nil {
			c.newTicker = factory
		}
	}
}

// WithLogger configures a logger for timer events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New wraps a trace. Nothing is rendered until Reset (or another move) is called.
// A nil renderer is allowed.
func New(trace domain.Trace, render Renderer, opts ...Option) (*Controller, error) {
	if len(trace) == 0 {
		return nil, domain.ErrEmptyTrace
	}
	if render == nil {
		render = func(int, domain.Snapshot) {}
	}
	c := &Controller{
		trace:     trace,
		render:    render,
		newTicker: NewStdTicker,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Reset goes back to snapshot 0, renders it and cancels auto-play.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	c.index = 0
	c.render(c.index, c.trace[c.index])
}

// StepForward advances one snapshot. At the last index it does nothing,
// except that a running auto-play stops. It reports whether the index moved.
func (c *Controller) StepForward() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.forwardLocked()
}

// StepBackward moves back one snapshot; it is a no-op at index 0.
func (c *Controller) StepBackward() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.index == 0 {
		return false
	}
	c.index--
	c.render(c.index, c.trace[c.index])
	return true
}

// Seek jumps to index i and renders it. Auto-play keeps running from there.
func (c *Controller) Seek(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i < 0 || i >= len(c.trace) {
		return domain.ErrIndexOutOfRange
	}
	c.index = i
	c.render(c.index, c.trace[c.index])
	return nil
}

// ToggleAuto starts auto-play with the given period when idle, or stops it
// when playing. It returns whether the controller is now playing.
func (c *Controller) ToggleAuto(delay time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.playing {
		c.stopLocked()
		return false, nil
	}
	if delay <= 0 {
		return false, domain.ErrInvalidDelay
	}
	c.startLocked(delay)
	return true, nil
}

// StartAuto (re)starts auto-play, cancelling any timer already running.
func (c *Controller) StartAuto(delay time.Duration) error {
	if delay <= 0 {
		return domain.ErrInvalidDelay
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	c.startLocked(delay)
	return nil
}

// StopAuto cancels auto-play. Once it returns no scheduled advance will fire.
func (c *Controller) StopAuto() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// Close releases the timer. The controller stays readable.
func (c *Controller) Close() {
	c.StopAuto()
}

// Current returns the snapshot at the current index.
func (c *Controller) Current() domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trace[c.index]
}

// Index returns the current position.
func (c *Controller) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Len returns the trace length.
func (c *Controller) Len() int {
	return len(c.trace)
}

// Playing reports whether auto-play is active.
func (c *Controller) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// View returns index, length, playing flag and current snapshot atomically.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return View{
		Index:    c.index,
		Length:   len(c.trace),
		Playing:  c.playing,
		Snapshot: c.trace[c.index],
	}
}

func (c *Controller) forwardLocked() bool {
	if c.index < len(c.trace)-1 {
		c.index++
		c.render(c.index, c.trace[c.index])
		return true
	}
	if c.playing {
		c.logger.Debug("auto-play reached end of trace", "index", c.index)
		c.stopLocked()
	}
	return false
}

func (c *Controller) startLocked(delay time.Duration) {
	c.generation++
	gen := c.generation
	stop := make(chan struct{})
	c.stop = stop
	c.playing = true
	ticker := c.newTicker(delay)

	c.logger.Debug("auto-play started", "delay", delay, "index", c.index)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C():
				if !c.tick(gen) {
					return
				}
			}
		}
	}()
}

// tick advances on behalf of the timer of generation gen.
// It returns false once that timer should exit.
func (c *Controller) tick(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.playing || c.generation != gen {
		return false
	}
	c.forwardLocked()
	return c.playing
}

func (c *Controller) stopLocked() {
	if !c.playing {
		return
	}
	c.playing = false
	c.generation++
	close(c.stop)
	c.stop = nil
	c.logger.Debug("auto-play stopped", "index", c.index)
}
