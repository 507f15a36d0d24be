// internal/game/controller.go
//
// Controller owns one live session and executes the effects produced by State.
// Responsibilities:
//   - Serialise reveals, restarts, ticks and delayed tasks behind one mutex.
//   - Arm the timer tick and delayed tasks on a Clock.
//   - Cancel every pending timer on restart.
//   - Push Updates to a Listener once the lock is released.

package game

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. The real clock is time.AfterFunc.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// RealClock returns the wall-clock Clock.
func RealClock() Clock { return realClock{} }

// Options configures a Controller.
type Options struct {
	ID       string
	Mode     string
	Delays   Delays
	Clock    Clock
	Rand     *rand.Rand
	Listener Listener
}

// Controller is safe for concurrent use.
type Controller struct {
	mu       sync.Mutex
	id       string
	mode     string
	state    *State
	delays   Delays
	clock    Clock
	rng      *rand.Rand
	listener Listener

	tick    Timer
	pending map[Timer]struct{}
	touched time.Time
}

// NewController deals a fresh board over symbols.
func NewController(symbols []string, opts Options) *Controller {
	c := newController(opts)
	c.state = NewState(symbols, c.rng)
	return c
}

// RestoreController resumes a persisted session.
func RestoreController(rec *Record, opts Options) *Controller {
	if opts.ID == "" {
		opts.ID = rec.ID
	}
	if opts.Mode == "" {
		opts.Mode = rec.Mode
	}
	c := newController(opts)
	c.state = Restore(rec)

	// A win that was matched but never announced still gets its signal.
	if c.state.Matched == c.state.Pairs() && !c.state.Completed {
		c.mu.Lock()
		c.schedule(Task{Kind: TaskComplete, Generation: c.state.Generation})
		c.mu.Unlock()
	}
	return c
}

func newController(opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.Delays == (Delays{}) {
		opts.Delays = DefaultDelays()
	}
	return &Controller{
		id:       opts.ID,
		mode:     opts.Mode,
		delays:   opts.Delays,
		clock:    opts.Clock,
		rng:      opts.Rand,
		listener: opts.Listener,
		pending:  make(map[Timer]struct{}),
		touched:  time.Now(),
	}
}

// ID returns the session identifier.
func (c *Controller) ID() string { return c.id }

// Reveal handles "tile i clicked" and returns the resulting view.
// Rejected clicks leave the view unchanged.
func (c *Controller) Reveal(i int) View {
	c.mu.Lock()
	c.touched = time.Now()
	ups := c.apply(c.state.Reveal(i))
	v := c.view()
	c.mu.Unlock()

	c.publish(ups)
	return v
}

// Restart handles "restart requested": every pending task is cancelled before
// the new board is dealt.
func (c *Controller) Restart() View {
	c.mu.Lock()
	c.touched = time.Now()
	c.cancelAll()
	ups := c.apply(c.state.Restart(c.rng))
	v := c.view()
	c.mu.Unlock()

	c.publish(ups)
	return v
}

// Stop cancels all pending timers without touching state.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.cancelAll()
	c.mu.Unlock()
}

// View returns the client-facing snapshot.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view()
}

// Record returns a persistable snapshot.
func (c *Controller) Record() *Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &Record{
		ID:        c.id,
		Mode:      c.mode,
		Symbols:   append([]string(nil), c.state.Symbols...),
		Tiles:     append([]Tile(nil), c.state.Tiles...),
		Moves:     c.state.Moves,
		Elapsed:   c.state.Elapsed,
		Matched:   c.state.Matched,
		Completed: c.state.Completed,
		UpdatedAt: time.Now().UTC(),
	}
}

// IdleSince reports when the session last received a reveal or restart.
func (c *Controller) IdleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.touched
}

// apply executes effects and returns the updates to publish. Caller holds mu.
func (c *Controller) apply(effs []Effect) []Update {
	var kind UpdateKind
	for _, e := range effs {
		switch e.Kind {
		case EffectStartTimer:
			c.armTick(c.state.Generation)
		case EffectStopTimer:
			c.stopTick()
		case EffectSchedule:
			c.schedule(e.Task)
		case EffectBoard:
			kind = UpdateBoard
		case EffectTiles:
			if kind == "" || kind == UpdateTick {
				kind = UpdateTiles
			}
		case EffectCounters:
			if kind == "" {
				kind = UpdateTick
			}
		case EffectComplete:
			log.Info().Str("sessionId", c.id).Int("moves", e.Moves).Int("elapsed", e.Elapsed).Msg("session complete")
			kind = UpdateComplete
		}
	}
	if kind == "" {
		return nil
	}
	return []Update{{Kind: kind, View: c.view()}}
}

func (c *Controller) schedule(t Task) {
	d := c.delays.Mismatch
	if t.Kind == TaskComplete {
		d = c.delays.Win
	}
	var tm Timer
	tm = c.clock.AfterFunc(d, func() {
		c.mu.Lock()
		delete(c.pending, tm)
		ups := c.apply(c.state.Resolve(t))
		c.mu.Unlock()
		c.publish(ups)
	})
	c.pending[tm] = struct{}{}
}

func (c *Controller) armTick(gen uint64) {
	c.tick = c.clock.AfterFunc(c.delays.Tick, func() {
		c.mu.Lock()
		effs := c.state.Tick(gen)
		if effs != nil {
			c.armTick(gen)
		}
		ups := c.apply(effs)
		c.mu.Unlock()
		c.publish(ups)
	})
}

func (c *Controller) stopTick() {
	if c.tick != nil {
		c.tick.Stop()
		c.tick = nil
	}
}

func (c *Controller) cancelAll() {
	c.stopTick()
	for t := range c.pending {
		t.Stop()
		delete(c.pending, t)
	}
}

func (c *Controller) view() View {
	s := c.state
	return View{
		ID:        c.id,
		Mode:      c.mode,
		Tiles:     s.TileViews(),
		Phase:     s.Phase,
		Locked:    s.Locked,
		Moves:     s.Moves,
		Elapsed:   s.Elapsed,
		Matched:   s.Matched,
		Pairs:     s.Pairs(),
		Running:   s.Running,
		Completed: s.Completed,
	}
}

func (c *Controller) publish(ups []Update) {
	if c.listener == nil {
		return
	}
	for _, u := range ups {
		c.listener.Notify(u)
	}
}
