package store

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/memory/assets"
	"github.com/robalobadob/memory/internal/game"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	schema, err := fs.ReadFile(assets.Migrations(), "001_sessions.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)
	return db
}

func sampleRecord(id string, updated time.Time) *game.Record {
	return &game.Record{
		ID:      id,
		Mode:    "classic",
		Symbols: []string{"🍎", "🍌"},
		Tiles: []game.Tile{
			{Index: 0, Symbol: "🍎", Status: game.StatusMatched},
			{Index: 1, Symbol: "🍌", Status: game.StatusHidden},
			{Index: 2, Symbol: "🍎", Status: game.StatusMatched},
			{Index: 3, Symbol: "🍌", Status: game.StatusRevealed},
		},
		Moves:     4,
		Elapsed:   17,
		Matched:   1,
		UpdatedAt: updated,
	}
}

func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore() },
		"sqlite": func(t *testing.T) Store { return NewSQLiteStore(openTestDB(t)) },
	}
	for name, mk := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st := mk(t)
			now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

			_, err := st.Get(ctx, "missing")
			require.ErrorIs(t, err, ErrNotFound)

			rec := sampleRecord("a", now)
			require.NoError(t, st.Save(ctx, rec))

			got, err := st.Get(ctx, "a")
			require.NoError(t, err)
			require.Equal(t, rec.Tiles, got.Tiles)
			require.Equal(t, rec.Symbols, got.Symbols)
			require.Equal(t, 4, got.Moves)
			require.Equal(t, 17, got.Elapsed)
			require.Equal(t, 1, got.Matched)
			require.False(t, got.Completed)
			require.True(t, now.Equal(got.UpdatedAt))

			// upsert
			rec.Moves = 5
			rec.Completed = true
			require.NoError(t, st.Save(ctx, rec))
			got, err = st.Get(ctx, "a")
			require.NoError(t, err)
			require.Equal(t, 5, got.Moves)
			require.True(t, got.Completed)

			require.NoError(t, st.Save(ctx, sampleRecord("old", now.Add(-2*time.Hour))))
			n, err := st.Prune(ctx, now.Add(-time.Hour))
			require.NoError(t, err)
			require.Equal(t, 1, n)
			_, err = st.Get(ctx, "old")
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, st.Delete(ctx, "a"))
			require.NoError(t, st.Delete(ctx, "a"))
			_, err = st.Get(ctx, "a")
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestMemoryStoreCopiesRecords(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	rec := sampleRecord("a", time.Now())
	require.NoError(t, st.Save(ctx, rec))

	rec.Tiles[1].Status = game.StatusMatched
	got, err := st.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, game.StatusHidden, got.Tiles[1].Status)
}
