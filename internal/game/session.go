// internal/game/session.go
//
// Core game engine for a single sorting round.
// Responsibilities:
//   - Validate a drop outcome against bin membership.
//   - Track score and attempts; end the round after MaxAttempts drops or
//     once every round item is sorted.
//   - Publish ScoreUpdated / GameEnded to subscribers.
//   - Ask the Renderer to present the round and hide sorted items.
//
// Notes:
//   - State changes only in ComputeResult, and never after the session ends.
//   - Rejected drops (unknown item/bin, not in round, already sorted)
//     are logged and leave the state untouched.
//   - A Session is not safe for concurrent use; callers serialize drops.
package game

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/recycle-sort/internal/catalog"
	"github.com/robalobadob/recycle-sort/internal/round"
)

// Session holds the state of one round.
type Session struct {
	publisher

	cat         Lookup
	round       round.Set
	maxAttempts int
	renderer    Renderer
	log         zerolog.Logger

	score    int
	attempts int
	ended    bool
	sorted   []string
	isSorted map[string]bool // folded names of sorted items
}

// New constructs a session over cat.
func New(cat Lookup, cfg Config) *Session {
	limit := cfg.MaxAttempts
	if limit <= 0 {
		limit = DefaultMaxAttempts
		if len(cfg.Round) > 0 {
			limit = len(cfg.Round)
		}
	}
	lg := log.With().Str("component", "game").Logger()
	if cfg.ID != "" {
		lg = lg.With().Str("session", cfg.ID).Logger()
	}
	return &Session{
		cat:         cat,
		round:       append(round.Set(nil), cfg.Round...),
		maxAttempts: limit,
		log:         lg,
		isSorted:    make(map[string]bool),
	}
}

// Start attaches r and asks it to present the round's items.
// A nil r is allowed; render requests are then dropped.
func (s *Session) Start(r Renderer) error {
	s.renderer = r
	if r == nil || len(s.round) == 0 {
		return nil
	}
	items := make([]catalog.Item, 0, len(s.round))
	for _, name := range s.round {
		it, err := s.cat.Lookup(name)
		if err != nil {
			return fmt.Errorf("present round: %w", err)
		}
		items = append(items, it)
	}
	r.PresentItems(items)
	return nil
}

// SetRenderer replaces the renderer without presenting anything.
// A nil r stops render requests.
func (s *Session) SetRenderer(r Renderer) { s.renderer = r }

// ComputeResult applies one drop outcome.
//
// Validation rules:
//   - Session must not be ended (ErrSessionEnded, nothing else happens).
//   - Bin must be a known category (*catalog.UnknownCategoryError).
//   - Item must be in the catalog (*catalog.UnknownItemError).
//   - With a round: item must be in it (*NotInRoundError) and not sorted yet (ErrAlreadySorted).
//
// State transitions:
//   - Every accepted drop → attempts+1; a correct one also → score+1.
//   - attempts reaching MaxAttempts, or every round item sorted → Ended,
//     GameEnded fired once.
func (s *Session) ComputeResult(d DropOutcome) error {
	if s.ended {
		return ErrSessionEnded
	}
	bin, err := s.cat.Bin(d.Bin)
	if err != nil {
		s.log.Warn().Err(err).Str("item", d.ItemName).Msg("drop ignored")
		return err
	}
	item, err := s.cat.Lookup(d.ItemName)
	if err != nil {
		s.log.Warn().Err(err).Str("bin", string(d.Bin)).Msg("drop ignored")
		return err
	}
	if len(s.round) > 0 && !s.round.Contains(item.Name) {
		err := &NotInRoundError{Name: item.Name}
		s.log.Warn().Err(err).Msg("drop ignored")
		return err
	}
	key := catalog.FoldKey(item.Name)
	if len(s.round) > 0 && s.isSorted[key] {
		s.log.Warn().Str("item", item.Name).Msg("drop ignored: already sorted")
		return ErrAlreadySorted
	}

	correct := bin.Contains(item.Name)
	s.attempts++

	if correct {
		s.score++
		if !s.isSorted[key] {
			s.isSorted[key] = true
			s.sorted = append(s.sorted, item.Name)
		}
		s.publish(ScoreUpdated{Score: s.score, Attempts: s.attempts, Message: "Correct"})
		if s.renderer != nil {
			s.renderer.HideItem(item.Name)
		}
	} else {
		s.publish(ScoreUpdated{
			Score:    s.score,
			Attempts: s.attempts,
			Message:  "Bad answer, item belongs to " + string(item.Category),
		})
	}
	s.log.Debug().
		Str("item", item.Name).
		Str("bin", string(d.Bin)).
		Bool("correct", correct).
		Int("score", s.score).
		Int("attempts", s.attempts).
		Msg("drop")

	if s.attempts >= s.maxAttempts || s.allSorted() {
		s.ended = true
		s.log.Info().Int("score", s.score).Int("attempts", s.attempts).Msg("round ended")
		s.publish(GameEnded{FinalScore: s.score})
	}
	return nil
}

// allSorted reports whether every item of the round is in its bin.
// Without a round there is nothing to finish early.
func (s *Session) allSorted() bool {
	return len(s.round) > 0 && len(s.sorted) == len(s.round)
}

// Ended reports whether the round is over.
func (s *Session) Ended() bool { return s.ended }

// Snapshot returns the current state.
func (s *Session) Snapshot() State {
	st := State{
		Status:      InProgress,
		Score:       s.score,
		Attempts:    s.attempts,
		MaxAttempts: s.maxAttempts,
		Sorted:      append([]string{}, s.sorted...),
	}
	if s.ended {
		st.Status = Ended
	}
	return st
}

// Round returns the round's item names.
func (s *Session) Round() round.Set {
	return append(round.Set(nil), s.round...)
}
