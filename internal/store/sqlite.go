package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robalobadob/memory/internal/game"
)

// sqliteStore keeps snapshots in the sessions table (see assets/sql).
type sqliteStore struct {
	db *sql.DB
}

// timeLayout is fixed width so updated_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// tileRow is the JSON shape of one tile in the tiles column.
type tileRow struct {
	Symbol string      `json:"s"`
	Status game.Status `json:"st"`
}

// NewSQLiteStore wraps an opened, migrated database.
func NewSQLiteStore(db *sql.DB) Store {
	return &sqliteStore{db: db}
}

func (s *sqliteStore) Save(ctx context.Context, rec *game.Record) error {
	symbolsJSON, err := json.Marshal(rec.Symbols)
	if err != nil {
		return err
	}
	rows := make([]tileRow, len(rec.Tiles))
	for i, t := range rec.Tiles {
		rows[i] = tileRow{Symbol: t.Symbol, Status: t.Status}
	}
	tilesJSON, err := json.Marshal(rows)
	if err != nil {
		return err
	}

	updated := rec.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, mode, symbols, tiles, moves, elapsed, matched, completed, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			mode=excluded.mode, symbols=excluded.symbols, tiles=excluded.tiles,
			moves=excluded.moves, elapsed=excluded.elapsed, matched=excluded.matched,
			completed=excluded.completed, updated_at=excluded.updated_at`,
		rec.ID, rec.Mode, string(symbolsJSON), string(tilesJSON),
		rec.Moves, rec.Elapsed, rec.Matched, rec.Completed,
		updated.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", rec.ID, err)
	}
	return nil
}

func (s *sqliteStore) Get(ctx context.Context, id string) (*game.Record, error) {
	var (
		rec         game.Record
		symbolsJSON string
		tilesJSON   string
		updated     string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, mode, symbols, tiles, moves, elapsed, matched, completed, updated_at
		FROM sessions WHERE id=?`, id,
	).Scan(&rec.ID, &rec.Mode, &symbolsJSON, &tilesJSON,
		&rec.Moves, &rec.Elapsed, &rec.Matched, &rec.Completed, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}

	if err := json.Unmarshal([]byte(symbolsJSON), &rec.Symbols); err != nil {
		return nil, fmt.Errorf("decode symbols: %w", err)
	}
	var rows []tileRow
	if err := json.Unmarshal([]byte(tilesJSON), &rows); err != nil {
		return nil, fmt.Errorf("decode tiles: %w", err)
	}
	rec.Tiles = make([]game.Tile, len(rows))
	for i, r := range rows {
		rec.Tiles[i] = game.Tile{Index: i, Symbol: r.Symbol, Status: r.Status}
	}
	rec.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return &rec, nil
}

func (s *sqliteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id=?`, id)
	return err
}

func (s *sqliteStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`,
		cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
