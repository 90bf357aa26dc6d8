// Package memory holds in-memory store implementations for tests and dev
// environments.  The submission transaction stages its writes and applies
// them only on commit, so failure-injection tests can verify that an
// aborted submission leaves no trace.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/quorumsoft/ballotd/internal/ballot/store"
	"github.com/quorumsoft/ballotd/internal/ballot/types"
)

type shardKey struct {
	electionID  string
	candidateID string
	shardIndex  int
}

// Store implements ElectionStore, TokenStore, TallyStore and
// SubmissionStore over process memory.  A single mutex serializes
// submissions, matching the single-writer semantics of the SQLite worker.
type Store struct {
	mu        sync.Mutex
	elections map[string]types.Election
	tokens    map[string]types.VoteToken
	votes     []types.Vote
	shards    map[shardKey]int64
	audit     []types.AuditEntry
}

var (
	_ store.ElectionStore   = (*Store)(nil)
	_ store.TokenStore      = (*Store)(nil)
	_ store.TallyStore      = (*Store)(nil)
	_ store.AuditStore      = (*Store)(nil)
	_ store.SubmissionStore = (*Store)(nil)
)

func New() *Store {
	return &Store{
		elections: make(map[string]types.Election),
		tokens:    make(map[string]types.VoteToken),
		shards:    make(map[shardKey]int64),
	}
}

func (s *Store) CreateElection(_ context.Context, e types.Election) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.elections[e.ID]; ok {
		return store.ErrElectionExists
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.elections[e.ID] = e
	return nil
}

func (s *Store) GetElection(_ context.Context, electionID string) (types.Election, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.elections[electionID]
	return e, ok, nil
}

func (s *Store) CreateToken(_ context.Context, tok types.VoteToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[tok.ID]; ok {
		return store.ErrTokenExists
	}
	if tok.IssuedAt.IsZero() {
		tok.IssuedAt = time.Now().UTC()
	}
	s.tokens[tok.ID] = tok
	return nil
}

func (s *Store) GetToken(_ context.Context, tokenID string) (types.VoteToken, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.tokens[tokenID]
	return tok, ok, nil
}

func (s *Store) AppendAudit(_ context.Context, e types.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.audit = append(s.audit, e)
	return nil
}

func (s *Store) Aggregate(_ context.Context, electionID string) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	totals := make(map[string]int64)
	for k, count := range s.shards {
		if k.electionID == electionID {
			totals[k.candidateID] += count
		}
	}
	return totals, nil
}

// Submit holds the store lock for the whole transaction, so fn reads from
// the same state it commits against.  Staged writes are discarded if fn
// returns an error.
func (s *Store) Submit(ctx context.Context, fn func(ctx context.Context, tx store.SubmissionTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &submissionTx{store: s}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	tx.apply()
	return nil
}

// ── Test inspection helpers ──────────────────────────────────────────────────

// Votes returns a copy of all recorded votes.
func (s *Store) Votes() []types.Vote {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Vote, len(s.votes))
	copy(out, s.votes)
	return out
}

// AuditEntries returns a copy of the audit log.
func (s *Store) AuditEntries() []types.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.AuditEntry, len(s.audit))
	copy(out, s.audit)
	return out
}

// ShardTotal sums all shard counts for an election across candidates.
func (s *Store) ShardTotal(electionID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for k, count := range s.shards {
		if k.electionID == electionID {
			total += count
		}
	}
	return total
}

// ShardsUsed reports how many distinct shard rows exist for a candidate.
func (s *Store) ShardsUsed(electionID, candidateID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.shards {
		if k.electionID == electionID && k.candidateID == candidateID {
			n++
		}
	}
	return n
}
