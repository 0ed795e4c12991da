// internal/round/sampler.go
//
// Round sampling: draws the items a player sorts in one round.
// Responsibilities:
//   - Pool every bin's item names and draw uniformly with rejection of
//     names already chosen, until the requested count is reached.
//   - Fail fast with InsufficientItemsError when the pool cannot supply
//     enough distinct names, so a draw always terminates.
//
// Notes:
//   - Result order is draw order, not catalog order.
//   - A Sampler may be shared between goroutines; draws are serialized.

package round

import (
	crand "crypto/rand"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/robalobadob/recycle-sort/internal/catalog"
)

// DefaultSize is the number of items in a standard round.
const DefaultSize = 10

// ErrInvalidCount is returned for a round size below one.
var ErrInvalidCount = errors.New("round: count must be positive")

// InsufficientItemsError reports a round larger than the distinct names available.
type InsufficientItemsError struct {
	Requested int
	Available int
}

func (e *InsufficientItemsError) Error() string {
	return fmt.Sprintf("round: requested %d items but only %d distinct items are available", e.Requested, e.Available)
}

// Set is the ordered, duplicate-free list of item names for one round.
type Set []string

// Sampler draws round sets from a random source.
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampler returns a Sampler drawing from rng.
// A nil rng gets a ChaCha8 source seeded from crypto/rand.
func NewSampler(rng *rand.Rand) *Sampler {
	if rng == nil {
		var seed [32]byte
		_, _ = crand.Read(seed[:])
		rng = rand.New(rand.NewChaCha8(seed))
	}
	return &Sampler{rng: rng}
}

// Sample draws count distinct names across bins.
func (s *Sampler) Sample(bins []*catalog.Bin, count int) (Set, error) {
	if count <= 0 {
		return nil, ErrInvalidCount
	}

	var pool []string
	distinct := make(map[string]struct{})
	for _, b := range bins {
		for _, name := range b.ItemNames() {
			pool = append(pool, name)
			distinct[catalog.FoldKey(name)] = struct{}{}
		}
	}
	if len(distinct) < count {
		return nil, &InsufficientItemsError{Requested: count, Available: len(distinct)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(Set, 0, count)
	chosen := make(map[string]struct{}, count)
	for len(out) < count {
		name := pool[s.rng.IntN(len(pool))]
		key := catalog.FoldKey(name)
		if _, dup := chosen[key]; dup {
			continue
		}
		chosen[key] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}

// Contains reports whether name is part of the set, ignoring case.
func (rs Set) Contains(name string) bool {
	key := catalog.FoldKey(name)
	for _, n := range rs {
		if catalog.FoldKey(n) == key {
			return true
		}
	}
	return false
}
