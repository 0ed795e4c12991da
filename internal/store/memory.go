// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// Holds live rounds for the HTTP layer; nothing survives a restart.
//
// Characteristics:
//   - Stores *Round values keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Each Round carries its own mutex so drops into one session are serialized.
//   - Sweep removes idle rounds; Run calls it on a ticker.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/recycle-sort/internal/game"
)

// ErrNotFound is returned by Get and Delete for unknown IDs.
var ErrNotFound = errors.New("store: round not found")

// Round pairs a session with its identity and bookkeeping.
// Callers hold Lock while calling into Session.
type Round struct {
	sync.Mutex

	ID        string
	Mode      string
	Session   *game.Session
	CreatedAt time.Time

	touched time.Time // guarded by the store's lock
}

// NewID returns a fresh random round ID.
func NewID() string { return uuid.NewString() }

// NewRound wraps s; an empty id gets a fresh one from NewID.
func NewRound(id, mode string, s *game.Session) *Round {
	if id == "" {
		id = NewID()
	}
	now := time.Now()
	return &Round{
		ID:        id,
		Mode:      mode,
		Session:   s,
		CreatedAt: now,
		touched:   now,
	}
}

// Store defines the persistence interface for live rounds.
type Store interface {
	// Save persists or updates a round.
	Save(ctx context.Context, r *Round) error

	// Get retrieves a round by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*Round, error)

	// Delete removes a round, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
}

// Memory is an in-memory map-based Store.
type Memory struct {
	mu     sync.RWMutex
	rounds map[string]*Round
	now    func() time.Time
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *Memory {
	return &Memory{rounds: make(map[string]*Round), now: time.Now}
}

// Save adds or updates the round in the map.
func (m *Memory) Save(ctx context.Context, r *Round) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.touched = m.now()
	m.rounds[r.ID] = r
	return nil
}

// Get looks up a round by ID and marks it as recently used.
func (m *Memory) Get(ctx context.Context, id string) (*Round, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rounds[id]
	if !ok {
		return nil, ErrNotFound
	}
	r.touched = m.now()
	return r, nil
}

// Delete removes a round.
func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rounds[id]; !ok {
		return ErrNotFound
	}
	delete(m.rounds, id)
	return nil
}

// Len returns the number of live rounds.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rounds)
}

// Sweep removes rounds not used within ttl. Ended rounds are kept for
// ttl as well so a client can still read the final state.
func (m *Memory) Sweep(ttl time.Duration) int {
	cutoff := m.now().Add(-ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, r := range m.rounds {
		if r.touched.Before(cutoff) {
			delete(m.rounds, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (m *Memory) Run(ctx context.Context, interval, ttl time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Sweep(ttl); n > 0 {
				log.Info().Int("removed", n).Int("live", m.Len()).Msg("swept idle rounds")
			}
		}
	}
}
