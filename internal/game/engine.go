// internal/game/engine.go
//
// Pure state machine for a single memory game session.
// Responsibilities:
//   - Build and rebuild the board (Restart).
//   - Validate and apply reveals, comparing pairs (Reveal).
//   - Run delayed continuations: mismatch revert, win announcement (Resolve).
//   - Count elapsed seconds while the timer runs (Tick).
//
// Notes:
//   - No goroutines, clocks or locks live here. Every transition returns a list
//     of Effects and the Controller turns those into timers and notifications.
//   - Invalid reveals are dropped silently: no mutation, no effects.
//   - Generation is bumped on every restart; tasks and ticks from an older
//     generation resolve to nothing.

package game

import "math/rand/v2"

// State holds one session's board, selection buffer and counters.
type State struct {
	Symbols []string
	Tiles   []Tile

	Phase  Phase
	First  int
	Second int
	Locked bool

	Moves   int
	Elapsed int
	Matched int

	Running    bool // timer ticking
	Completed  bool // completion already announced
	Generation uint64
}

// NewState builds a fresh session over symbols.
func NewState(symbols []string, r *rand.Rand) *State {
	s := &State{Symbols: append([]string(nil), symbols...)}
	s.reset(r)
	return s
}

// Pairs is K, the number of distinct symbols.
func (s *State) Pairs() int { return len(s.Symbols) }

// Restart is start-new-session: counters zeroed, selection cleared, timer
// stopped and a new board dealt. Pending tasks become stale.
func (s *State) Restart(r *rand.Rand) []Effect {
	wasRunning := s.Running
	s.reset(r)

	var effs []Effect
	if wasRunning {
		effs = append(effs, Effect{Kind: EffectStopTimer})
	}
	return append(effs, Effect{Kind: EffectBoard}, s.counters())
}

func (s *State) reset(r *rand.Rand) {
	s.Tiles = NewBoard(s.Symbols, r)
	s.Phase = PhaseIdle
	s.First, s.Second = noSelection, noSelection
	s.Locked = false
	s.Moves, s.Elapsed, s.Matched = 0, 0, 0
	s.Running = false
	s.Completed = false
	s.Generation++
}

// Reveal flips tile i if the move is legal and resolves the turn when it is
// the second pick. Illegal picks return nil.
func (s *State) Reveal(i int) []Effect {
	if i < 0 || i >= len(s.Tiles) || s.Locked {
		return nil
	}
	if s.Tiles[i].Status == StatusMatched || i == s.First {
		return nil
	}

	s.Tiles[i].Status = StatusRevealed
	effs := []Effect{{Kind: EffectTiles, Tiles: []int{i}}}

	if s.Phase == PhaseIdle {
		s.First = i
		s.Phase = PhaseOneSelected
		if !s.Running {
			s.Running = true
			effs = append(effs, Effect{Kind: EffectStartTimer})
		}
		return effs
	}

	s.Second = i
	s.Moves++
	s.Locked = true
	s.Phase = PhaseComparing
	effs = append(effs, s.counters())

	return append(effs, s.compare()...)
}

// compare resolves a comparing turn. A match settles at once; a mismatch
// leaves the pair face up and schedules the revert.
func (s *State) compare() []Effect {
	a, b := s.First, s.Second
	if s.Tiles[a].Symbol != s.Tiles[b].Symbol {
		return []Effect{{Kind: EffectSchedule, Task: Task{Kind: TaskRevert, Generation: s.Generation}}}
	}

	s.Tiles[a].Status = StatusMatched
	s.Tiles[b].Status = StatusMatched
	s.Matched++
	s.clearSelection()

	effs := []Effect{{Kind: EffectTiles, Tiles: []int{a, b}}, s.counters()}
	if s.Matched == s.Pairs() {
		s.Running = false
		effs = append(effs,
			Effect{Kind: EffectStopTimer},
			Effect{Kind: EffectSchedule, Task: Task{Kind: TaskComplete, Generation: s.Generation}},
		)
	}
	return effs
}

// Resolve runs a delayed continuation. Stale or already-settled tasks are
// ignored.
func (s *State) Resolve(t Task) []Effect {
	if t.Generation != s.Generation {
		return nil
	}
	switch t.Kind {
	case TaskRevert:
		if s.Phase != PhaseComparing {
			return nil
		}
		a, b := s.First, s.Second
		s.Tiles[a].Status = StatusHidden
		s.Tiles[b].Status = StatusHidden
		s.clearSelection()
		return []Effect{{Kind: EffectTiles, Tiles: []int{a, b}}}

	case TaskComplete:
		if s.Completed || s.Matched != s.Pairs() {
			return nil
		}
		s.Completed = true
		return []Effect{{Kind: EffectComplete, Moves: s.Moves, Elapsed: s.Elapsed}}
	}
	return nil
}

// Tick adds one elapsed second if the timer of generation gen is running.
func (s *State) Tick(gen uint64) []Effect {
	if gen != s.Generation || !s.Running {
		return nil
	}
	s.Elapsed++
	return []Effect{s.counters()}
}

func (s *State) clearSelection() {
	s.First, s.Second = noSelection, noSelection
	s.Locked = false
	s.Phase = PhaseIdle
}

func (s *State) counters() Effect {
	return Effect{Kind: EffectCounters, Moves: s.Moves, Elapsed: s.Elapsed}
}

// TileViews projects the board for clients, hiding face-down symbols.
func (s *State) TileViews() []TileView {
	out := make([]TileView, len(s.Tiles))
	for i, t := range s.Tiles {
		out[i] = TileView{Index: t.Index, Status: t.Status}
		if t.Status != StatusHidden {
			out[i].Symbol = t.Symbol
		}
	}
	return out
}
