package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/quorumsoft/ballotd/internal/db"

	"github.com/quorumsoft/ballotd/internal/ballot/store"
	"github.com/quorumsoft/ballotd/internal/ballot/types"
)

// SubmissionStore runs the whole vote submission as one SQLite transaction
// on the write worker.  The worker serializes transactions, so the snapshot
// fn reads from is also the state it commits against: two submissions
// racing on one token run strictly one after the other, and the second sees
// the consumed flag the first committed.
type SubmissionStore struct {
	writer *dbpkg.Worker
}

func NewSubmissionStore(writer *dbpkg.Worker) *SubmissionStore {
	return &SubmissionStore{writer: writer}
}

func (s *SubmissionStore) Submit(ctx context.Context, fn func(ctx context.Context, tx store.SubmissionTx) error) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, submissionTx{tx: tx})
	})
}

type submissionTx struct {
	tx *sql.Tx
}

var _ store.SubmissionTx = submissionTx{}

func (t submissionTx) GetToken(ctx context.Context, tokenID string) (types.VoteToken, bool, error) {
	return getToken(ctx, t.tx, tokenID)
}

func (t submissionTx) ConsumeToken(ctx context.Context, tokenID, consumedBy string, at time.Time) error {
	res, err := t.tx.ExecContext(ctx, `
UPDATE vote_tokens
SET consumed = 1, consumed_at_ms = ?, consumed_by = ?
WHERE token_id = ? AND consumed = 0;
`, at.UTC().UnixMilli(), consumedBy, tokenID)
	if err != nil {
		return fmt.Errorf("ConsumeToken: %w", err)
	}
	// The guard clauses have already rejected consumed tokens on this
	// snapshot; zero rows here means the invariant was violated.
	if n, _ := res.RowsAffected(); n != 1 {
		return fmt.Errorf("ConsumeToken %s: token not consumable", tokenID)
	}
	return nil
}

func (t submissionTx) GetElection(ctx context.Context, electionID string) (types.Election, bool, error) {
	return getElection(ctx, t.tx, electionID)
}

func (t submissionTx) AppendVote(ctx context.Context, v types.Vote) error {
	if _, err := t.tx.ExecContext(ctx, `
INSERT INTO votes(vote_id, election_id, voter_hash, candidate_id, created_at_ms)
VALUES (?, ?, ?, ?, ?);
`, v.ID, v.ElectionID, v.VoterHash, v.CandidateID, v.CreatedAt.UTC().UnixMilli()); err != nil {
		return fmt.Errorf("AppendVote: %w", err)
	}
	return nil
}

func (t submissionTx) IncrementShard(ctx context.Context, electionID, candidateID string, shardIndex int) error {
	// Lazily creates the shard row on first increment; the upsert is the
	// native atomic-increment primitive for this key.
	if _, err := t.tx.ExecContext(ctx, `
INSERT INTO tally_shards(election_id, candidate_id, shard_index, count)
VALUES (?, ?, ?, 1)
ON CONFLICT(election_id, candidate_id, shard_index)
DO UPDATE SET count = count + 1;
`, electionID, candidateID, shardIndex); err != nil {
		return fmt.Errorf("IncrementShard: %w", err)
	}
	return nil
}

func (t submissionTx) AppendAudit(ctx context.Context, e types.AuditEntry) error {
	if _, err := t.tx.ExecContext(ctx, `
INSERT INTO audit_log(audit_id, action, election_id, actor_identity, candidate_id, created_at_ms)
VALUES (?, ?, ?, ?, ?, ?);
`, e.ID, e.Action, e.ElectionID, e.ActorIdentity, e.CandidateID, e.CreatedAt.UTC().UnixMilli()); err != nil {
		return fmt.Errorf("AppendAudit: %w", err)
	}
	return nil
}
