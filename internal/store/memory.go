// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// Used when no database path is configured and in tests.
//
// Characteristics:
//   - Stores *game.Record snapshots keyed by session ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.
//   - Get returns ErrNotFound for unknown IDs.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/memory/internal/game"
)

// ErrNotFound is returned by Get for unknown session IDs.
var ErrNotFound = errors.New("store: session not found")

// Store persists session snapshots so a session can be resumed after its
// controller is gone (eviction, process restart).
type Store interface {
	// Save persists or replaces a snapshot.
	Save(ctx context.Context, rec *game.Record) error

	// Get retrieves a snapshot by session ID.
	Get(ctx context.Context, id string) (*game.Record, error)

	// Delete removes a snapshot. Deleting a missing ID is not an error.
	Delete(ctx context.Context, id string) error

	// Prune removes snapshots not updated since cutoff and reports how many.
	Prune(ctx context.Context, cutoff time.Time) (int, error)
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu   sync.RWMutex            // guards recs map
	recs map[string]*game.Record // keyed by Record.ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{recs: make(map[string]*game.Record)}
}

// Save stores a copy of rec.
func (m *memory) Save(ctx context.Context, rec *game.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[rec.ID] = clone(rec)
	return nil
}

// Get returns a copy of the stored snapshot.
func (m *memory) Get(ctx context.Context, id string) (*game.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if rec, ok := m.recs[id]; ok {
		return clone(rec), nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recs, id)
	return nil
}

func (m *memory) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, rec := range m.recs {
		if rec.UpdatedAt.Before(cutoff) {
			delete(m.recs, id)
			n++
		}
	}
	return n, nil
}

func clone(rec *game.Record) *game.Record {
	cp := *rec
	cp.Symbols = append([]string(nil), rec.Symbols...)
	cp.Tiles = append([]game.Tile(nil), rec.Tiles...)
	return &cp
}
