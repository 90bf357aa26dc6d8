package store

import (
	"context"
	"errors"
	"time"

	"github.com/quorumsoft/ballotd/internal/ballot/types"
)

var (
	// ErrElectionExists is returned by CreateElection on a duplicate id.
	ErrElectionExists = errors.New("election already exists")
	// ErrTokenExists is returned by CreateToken on an id collision.
	ErrTokenExists = errors.New("token already exists")
)

// ElectionStore persists immutable election configurations.
type ElectionStore interface {
	CreateElection(ctx context.Context, e types.Election) error
	GetElection(ctx context.Context, electionID string) (types.Election, bool, error)
}

// TokenStore persists vote tokens.  Consumption happens only through a
// SubmissionTx; outside a submission, tokens are read-only after creation.
type TokenStore interface {
	CreateToken(ctx context.Context, tok types.VoteToken) error
	GetToken(ctx context.Context, tokenID string) (types.VoteToken, bool, error)
}

// TallyStore is the read path over tally shards.  Aggregate sums shard
// counts per candidate; it is a scatter-read snapshot with no transactional
// guarantee against concurrent increments.
type TallyStore interface {
	Aggregate(ctx context.Context, electionID string) (map[string]int64, error)
}

// AuditStore appends operational audit records outside the submission
// transaction (admin actions).  The vote-submission audit append goes
// through SubmissionTx instead so it commits with the vote.
type AuditStore interface {
	AppendAudit(ctx context.Context, e types.AuditEntry) error
}

// SubmissionTx is the set of operations available inside one atomic
// submission.  Every read sees the transaction's consistent snapshot and
// every write is staged until the transaction commits.
type SubmissionTx interface {
	GetToken(ctx context.Context, tokenID string) (types.VoteToken, bool, error)
	ConsumeToken(ctx context.Context, tokenID, consumedBy string, at time.Time) error
	GetElection(ctx context.Context, electionID string) (types.Election, bool, error)
	AppendVote(ctx context.Context, v types.Vote) error
	IncrementShard(ctx context.Context, electionID, candidateID string, shardIndex int) error
	AppendAudit(ctx context.Context, e types.AuditEntry) error
}

// SubmissionStore runs fn as one atomic transaction: all writes commit
// together, or none do if fn returns an error.  Implementations guarantee
// that two concurrent submissions cannot both observe the same token as
// unconsumed and both commit.
type SubmissionStore interface {
	Submit(ctx context.Context, fn func(ctx context.Context, tx SubmissionTx) error) error
}
