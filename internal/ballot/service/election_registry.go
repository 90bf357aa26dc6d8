package service

import (
	"context"
	"sync"

	"github.com/quorumsoft/ballotd/internal/ballot/store"
	"github.com/quorumsoft/ballotd/internal/ballot/types"
)

// ElectionRegistry is a read-through cache over the election store.
// Election configuration is immutable once created, so a positive hit can
// be cached for the life of the process; misses always go to the store.
type ElectionRegistry struct {
	store store.ElectionStore

	mu    sync.RWMutex
	cache map[string]types.Election
}

func NewElectionRegistry(st store.ElectionStore) *ElectionRegistry {
	return &ElectionRegistry{
		store: st,
		cache: make(map[string]types.Election),
	}
}

func (r *ElectionRegistry) Lookup(ctx context.Context, electionID string) (types.Election, bool, error) {
	if electionID == "" {
		return types.Election{}, false, nil
	}

	r.mu.RLock()
	e, ok := r.cache[electionID]
	r.mu.RUnlock()
	if ok {
		return e, true, nil
	}

	e, found, err := r.store.GetElection(ctx, electionID)
	if err != nil || !found {
		return types.Election{}, false, err
	}

	r.mu.Lock()
	r.cache[electionID] = e
	r.mu.Unlock()

	return e, true, nil
}
