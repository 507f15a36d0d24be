// internal/game/types.go
//
// Core type definitions for the memory game engine.
// Defines:
//   - Status: per-tile flip state (hidden/revealed/matched).
//   - Phase: where the selection state machine currently is.
//   - Tile: one card on the board.
//   - Effect/Task: outputs of the state machine that the controller executes.
//   - View: the outward projection rendered by a client.

package game

import "time"

// Status is the flip state of a single tile.
type Status string

const (
	StatusHidden   Status = "hidden"
	StatusRevealed Status = "revealed"
	StatusMatched  Status = "matched"
)

// Phase is the selection state machine position.
//   - idle:         nothing selected.
//   - one_selected: first tile face up, waiting for the second.
//   - comparing:    two tiles face up, outcome pending (input locked).
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseOneSelected Phase = "one_selected"
	PhaseComparing   Phase = "comparing"
)

// Tile is one card. Index is its fixed board position.
type Tile struct {
	Index  int
	Symbol string
	Status Status
}

// noSelection marks an empty slot in the selection buffer.
const noSelection = -1

// TaskKind names a delayed continuation.
type TaskKind string

const (
	TaskRevert   TaskKind = "revert"   // flip a mismatched pair back
	TaskComplete TaskKind = "complete" // announce the win
)

// Task is a delayed continuation scheduled by the state machine.
// Generation ties it to the session it was created in.
type Task struct {
	Kind       TaskKind
	Generation uint64
}

// EffectKind enumerates what the controller must do after a transition.
type EffectKind int

const (
	EffectTiles     EffectKind = iota + 1 // Tiles changed status
	EffectCounters                        // moves/elapsed/matched changed
	EffectStartTimer                      // begin ticking
	EffectStopTimer                       // stop ticking
	EffectSchedule                        // run Task after Delay
	EffectBoard                           // whole board replaced
	EffectComplete                        // session complete; Moves/Elapsed are final
)

// Effect is a single instruction emitted by a transition.
// Only the fields relevant to Kind are set.
type Effect struct {
	Kind    EffectKind
	Tiles   []int
	Task    Task
	Moves   int
	Elapsed int
}

// Delays holds the wall-clock durations used by the controller.
type Delays struct {
	Mismatch time.Duration // face-up time of a mismatched pair
	Win      time.Duration // pause before announcing completion
	Tick     time.Duration // timer resolution
}

// DefaultDelays mirrors the classic browser game feel.
func DefaultDelays() Delays {
	return Delays{
		Mismatch: 800 * time.Millisecond,
		Win:      300 * time.Millisecond,
		Tick:     time.Second,
	}
}

// TileView is the client-facing projection of a tile.
// Symbol is empty while the tile is hidden.
type TileView struct {
	Index  int    `json:"index"`
	Status Status `json:"status"`
	Symbol string `json:"symbol,omitempty"`
}

// View is the client-facing projection of a whole session.
type View struct {
	ID        string     `json:"id"`
	Mode      string     `json:"mode"`
	Tiles     []TileView `json:"tiles"`
	Phase     Phase      `json:"phase"`
	Locked    bool       `json:"locked"`
	Moves     int        `json:"moves"`
	Elapsed   int        `json:"elapsed"`
	Matched   int        `json:"matched"`
	Pairs     int        `json:"pairs"`
	Running   bool       `json:"running"`
	Completed bool       `json:"completed"`
}

// UpdateKind classifies a notification for the presentation layer.
type UpdateKind string

const (
	UpdateBoard    UpdateKind = "board"
	UpdateTiles    UpdateKind = "tiles"
	UpdateTick     UpdateKind = "tick"
	UpdateComplete UpdateKind = "complete"
)

// Update is pushed to listeners after every state change.
type Update struct {
	Kind UpdateKind `json:"kind"`
	View View       `json:"view"`
}

// Listener receives updates. Notify is called without the controller lock
// held and must not block.
type Listener interface {
	Notify(u Update)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Update)

// Notify calls f(u).
func (f ListenerFunc) Notify(u Update) { f(u) }
