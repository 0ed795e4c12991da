// internal/game/types.go
//
// Core type definitions for the sorting game engine.
// Defines:
//   - Status: coarse session state (in_progress / ended).
//   - DropOutcome: what the UI reports after an item lands on a bin.
//   - Config / State: session settings and a read-only snapshot.
//   - Lookup / Renderer: the collaborators a Session talks to.

package game

import (
	"errors"
	"fmt"

	"github.com/robalobadob/recycle-sort/internal/catalog"
	"github.com/robalobadob/recycle-sort/internal/round"
)

// DefaultMaxAttempts is used when neither Config.MaxAttempts nor a round is given.
const DefaultMaxAttempts = 10

// Status is the coarse session state.
type Status string

const (
	InProgress Status = "in_progress"
	Ended      Status = "ended"
)

// DropOutcome is one drop gesture: which item landed on which bin.
type DropOutcome struct {
	ItemName string
	Bin      catalog.CategoryID
}

// Config holds the fixed settings of a session.
type Config struct {
	ID          string    // used only to tag log lines
	MaxAttempts int       // ≤0 → len(Round), or DefaultMaxAttempts without a round
	Round       round.Set // optional; restricts drops to these items
}

// State is a snapshot of a session.
type State struct {
	Status      Status   `json:"status"`
	Score       int      `json:"score"`
	Attempts    int      `json:"attempts"`
	MaxAttempts int      `json:"maxAttempts"`
	Sorted      []string `json:"sorted"` // items dropped into their correct bin, in order
}

// Lookup is the part of the catalog a session needs.
// *catalog.Catalog satisfies it.
type Lookup interface {
	Bin(id catalog.CategoryID) (*catalog.Bin, error)
	Lookup(name string) (catalog.Item, error)
}

// Renderer receives render requests. The core never draws anything itself.
type Renderer interface {
	// PresentItems shows the round's items as drag sources.
	PresentItems(items []catalog.Item)
	// HideItem removes an item that was sorted correctly.
	HideItem(name string)
}

// ErrSessionEnded is returned by ComputeResult once the round is over.
var ErrSessionEnded = errors.New("game: session ended")

// ErrAlreadySorted is returned when an item that was already put in the
// right bin is dropped again.
var ErrAlreadySorted = errors.New("game: item already sorted")

// NotInRoundError reports a drop of a catalog item that is not part of the round.
type NotInRoundError struct {
	Name string
}

func (e *NotInRoundError) Error() string {
	return fmt.Sprintf("game: item %q is not part of this round", e.Name)
}
