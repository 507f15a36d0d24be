package session

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/internal/daily"
	"github.com/robalobadob/memory/internal/game"
	"github.com/robalobadob/memory/internal/store"
)

// Session modes.
const (
	ModeClassic = "classic"
	ModeDaily   = "daily"
)

var (
	ErrNotFound    = errors.New("session not found")
	ErrUnknownMode = errors.New("unknown mode")
)

// Config wires a Manager.
type Config struct {
	Symbols   []string
	Delays    game.Delays
	Clock     game.Clock
	Store     store.Store
	Listener  game.Listener // receives every update, typically the stream hub
	TTL       time.Duration // idle sessions older than this are evicted
	DailySalt string
	Now       func() time.Time
}

// Manager keeps live controllers keyed by session ID.
type Manager struct {
	mu       sync.Mutex
	cfg      Config
	sessions map[string]*game.Controller
}

func NewManager(cfg Config) *Manager {
	if cfg.Store == nil {
		cfg.Store = store.NewMemoryStore()
	}
	if cfg.Clock == nil {
		cfg.Clock = game.RealClock()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	return &Manager{
		cfg:      cfg,
		sessions: make(map[string]*game.Controller),
	}
}

// Create starts a session in the given mode.
func (m *Manager) Create(ctx context.Context, mode string) (*game.Controller, error) {
	var r1, r2 uint64
	switch mode {
	case "", ModeClassic:
		mode = ModeClassic
		r1, r2 = randomSeed()
	case ModeDaily:
		r1, r2 = daily.Seed(m.cfg.Now(), m.cfg.DailySalt)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	c := game.NewController(m.cfg.Symbols, game.Options{
		ID:       uuid.New().String(),
		Mode:     mode,
		Delays:   m.cfg.Delays,
		Clock:    m.cfg.Clock,
		Rand:     game.NewRand(r1, r2),
		Listener: game.ListenerFunc(m.notify),
	})

	m.mu.Lock()
	m.sessions[c.ID()] = c
	m.mu.Unlock()

	m.save(ctx, c)
	log.Info().Str("sessionId", c.ID()).Str("mode", mode).Msg("session created")
	return c, nil
}

// Get returns a live controller, restoring it from the store if needed.
func (m *Manager) Get(ctx context.Context, id string) (*game.Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.sessions[id]; ok {
		return c, nil
	}

	rec, err := m.cfg.Store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	r1, r2 := randomSeed()
	c := game.RestoreController(rec, game.Options{
		Delays:   m.cfg.Delays,
		Clock:    m.cfg.Clock,
		Rand:     game.NewRand(r1, r2),
		Listener: game.ListenerFunc(m.notify),
	})
	m.sessions[id] = c
	log.Info().Str("sessionId", id).Msg("session restored")
	return c, nil
}

// Reveal forwards "tile i clicked" to the session.
func (m *Manager) Reveal(ctx context.Context, id string, i int) (game.View, error) {
	c, err := m.Get(ctx, id)
	if err != nil {
		return game.View{}, err
	}
	return c.Reveal(i), nil
}

// Restart forwards "restart requested" to the session.
func (m *Manager) Restart(ctx context.Context, id string) (game.View, error) {
	c, err := m.Get(ctx, id)
	if err != nil {
		return game.View{}, err
	}
	return c.Restart(), nil
}

// Remove stops a session and drops its snapshot.
func (m *Manager) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	c, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		c.Stop()
	}
	return m.cfg.Store.Delete(ctx, id)
}

// Symbols returns a copy of the symbol set boards are dealt from.
func (m *Manager) Symbols() []string {
	return append([]string(nil), m.cfg.Symbols...)
}

// Pairs returns K, the number of symbols per board.
func (m *Manager) Pairs() int { return len(m.cfg.Symbols) }

// Today returns the date key the daily board is seeded with.
func (m *Manager) Today() string { return daily.DateKey(m.cfg.Now()) }

// Len reports the number of live controllers.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Run evicts idle sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Evict(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Evict unloads controllers idle past the TTL and prunes stale snapshots.
// Unloaded sessions stay resumable until their snapshot is pruned at 24×TTL.
func (m *Manager) Evict(ctx context.Context) {
	now := m.cfg.Now()
	cutoff := now.Add(-m.cfg.TTL)

	m.mu.Lock()
	var idle []*game.Controller
	for id, c := range m.sessions {
		if c.IdleSince().Before(cutoff) {
			idle = append(idle, c)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, c := range idle {
		c.Stop()
		m.save(ctx, c)
	}
	if len(idle) > 0 {
		log.Info().Int("count", len(idle)).Msg("evicted idle sessions")
	}

	n, err := m.cfg.Store.Prune(ctx, now.Add(-24*m.cfg.TTL))
	if err != nil {
		log.Warn().Err(err).Msg("prune snapshots")
	} else if n > 0 {
		log.Info().Int("count", n).Msg("pruned snapshots")
	}
}

// notify persists meaningful changes and fans the update out.
func (m *Manager) notify(u game.Update) {
	if u.Kind != game.UpdateTick {
		m.mu.Lock()
		c := m.sessions[u.View.ID]
		m.mu.Unlock()
		if c != nil {
			m.save(context.Background(), c)
		}
	}
	if m.cfg.Listener != nil {
		m.cfg.Listener.Notify(u)
	}
}

func (m *Manager) save(ctx context.Context, c *game.Controller) {
	if err := m.cfg.Store.Save(ctx, c.Record()); err != nil {
		log.Warn().Err(err).Str("sessionId", c.ID()).Msg("save snapshot")
	}
}

func randomSeed() (uint64, uint64) {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return binary.LittleEndian.Uint64(b[:8]), binary.LittleEndian.Uint64(b[8:])
}
