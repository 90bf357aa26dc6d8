package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/quorumsoft/ballotd/internal/ballot/store"
	"github.com/quorumsoft/ballotd/internal/ballot/types"
)

type consumption struct {
	by string
	at time.Time
}

// submissionTx stages all writes; apply runs only when the transaction
// function returns nil.  Reads go to the store's committed state, which is
// stable for the duration of the transaction because Submit holds the lock.
type submissionTx struct {
	store *Store

	consumed map[string]consumption
	votes    []types.Vote
	deltas   map[shardKey]int64
	audit    []types.AuditEntry
}

var _ store.SubmissionTx = (*submissionTx)(nil)

func (t *submissionTx) GetToken(_ context.Context, tokenID string) (types.VoteToken, bool, error) {
	tok, ok := t.store.tokens[tokenID]
	return tok, ok, nil
}

func (t *submissionTx) ConsumeToken(_ context.Context, tokenID, consumedBy string, at time.Time) error {
	tok, ok := t.store.tokens[tokenID]
	if !ok || tok.Consumed {
		return fmt.Errorf("ConsumeToken %s: token not consumable", tokenID)
	}
	if t.consumed == nil {
		t.consumed = make(map[string]consumption)
	}
	t.consumed[tokenID] = consumption{by: consumedBy, at: at.UTC()}
	return nil
}

func (t *submissionTx) GetElection(_ context.Context, electionID string) (types.Election, bool, error) {
	e, ok := t.store.elections[electionID]
	return e, ok, nil
}

func (t *submissionTx) AppendVote(_ context.Context, v types.Vote) error {
	t.votes = append(t.votes, v)
	return nil
}

func (t *submissionTx) IncrementShard(_ context.Context, electionID, candidateID string, shardIndex int) error {
	if t.deltas == nil {
		t.deltas = make(map[shardKey]int64)
	}
	t.deltas[shardKey{electionID, candidateID, shardIndex}]++
	return nil
}

func (t *submissionTx) AppendAudit(_ context.Context, e types.AuditEntry) error {
	t.audit = append(t.audit, e)
	return nil
}

func (t *submissionTx) apply() {
	for id, c := range t.consumed {
		tok := t.store.tokens[id]
		tok.Consumed = true
		at := c.at
		tok.ConsumedAt = &at
		tok.ConsumedBy = c.by
		t.store.tokens[id] = tok
	}
	t.store.votes = append(t.store.votes, t.votes...)
	for k, d := range t.deltas {
		t.store.shards[k] += d
	}
	t.store.audit = append(t.store.audit, t.audit...)
}
