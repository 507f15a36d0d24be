package game

import "time"

// Record is the persisted form of a session.
type Record struct {
	ID        string
	Mode      string
	Symbols   []string // K distinct symbols, in set order
	Tiles     []Tile   // board order
	Moves     int
	Elapsed   int
	Matched   int
	Completed bool
	UpdatedAt time.Time
}

// Restore rebuilds a State from a record. A pair left face up by an unresolved
// mismatch is turned back down and the timer stays stopped until the next
// reveal.
func Restore(rec *Record) *State {
	s := &State{
		Symbols:    append([]string(nil), rec.Symbols...),
		Tiles:      append([]Tile(nil), rec.Tiles...),
		Phase:      PhaseIdle,
		First:      noSelection,
		Second:     noSelection,
		Moves:      rec.Moves,
		Elapsed:    rec.Elapsed,
		Matched:    rec.Matched,
		Completed:  rec.Completed,
		Generation: 1,
	}
	for i := range s.Tiles {
		if s.Tiles[i].Status == StatusRevealed {
			s.Tiles[i].Status = StatusHidden
		}
	}
	return s
}
