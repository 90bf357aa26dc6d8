package service

import (
	"context"
	"log"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/quorumsoft/ballotd/internal/ballot/anonymizer"
	"github.com/quorumsoft/ballotd/internal/ballot/store"
	"github.com/quorumsoft/ballotd/internal/ballot/types"
	"github.com/quorumsoft/ballotd/internal/secrets"
)

// SubmitService is the transactional vote submission engine.  One call
// consumes a token, appends an anonymized vote, increments a tally shard
// and appends an audit entry — all inside a single atomic transaction.
// A failed call leaves no state behind.
type SubmitService struct {
	submissions store.SubmissionStore
	registry    *ElectionRegistry
	salts       *SaltCache
	logger      *log.Logger
}

func NewSubmitService(
	submissions store.SubmissionStore,
	registry *ElectionRegistry,
	salts *SaltCache,
	logger *log.Logger,
) *SubmitService {
	return &SubmitService{
		submissions: submissions,
		registry:    registry,
		salts:       salts,
		logger:      logger,
	}
}

func (s *SubmitService) SubmitVote(ctx context.Context, caller types.Identity, req types.SubmitVoteRequest) (types.SubmitVoteResponse, error) {
	if !caller.IsAuthenticated() {
		return types.SubmitVoteResponse{}, status.Error(codes.Unauthenticated, "sign-in required")
	}
	if req.ElectionID == "" || req.TokenID == "" || req.CandidateID == "" {
		return types.SubmitVoteResponse{}, status.Error(codes.InvalidArgument, "missing election_id, token_id or candidate_id")
	}

	// The salt is resolved and cached before the transaction opens, so a
	// retried or contended transaction never repeats the external secret
	// call.  Only the resolved value crosses the transaction boundary.
	salt, err := s.resolveSalt(ctx, req.ElectionID)
	if err != nil {
		return types.SubmitVoteResponse{}, err
	}

	err = s.submissions.Submit(ctx, func(ctx context.Context, tx store.SubmissionTx) error {
		now := time.Now().UTC()

		tok, found, err := tx.GetToken(ctx, req.TokenID)
		if err != nil {
			return err
		}
		if err := CheckToken(tok, found, caller.Subject, req.ElectionID, now); err != nil {
			return err
		}

		if err := tx.ConsumeToken(ctx, req.TokenID, caller.Subject, now); err != nil {
			return err
		}

		election, found, err := tx.GetElection(ctx, req.ElectionID)
		if err != nil {
			return err
		}
		if err := CheckElection(election, found, now); err != nil {
			return err
		}

		voterHash := anonymizer.Pseudonym(caller.Subject, req.ElectionID, salt)

		if err := tx.AppendVote(ctx, types.Vote{
			ID:          uuid.NewString(),
			ElectionID:  req.ElectionID,
			VoterHash:   voterHash,
			CandidateID: req.CandidateID,
			CreatedAt:   now,
		}); err != nil {
			return err
		}

		// Uniform random shard selection: no coordination, contention
		// localized to one (candidate, shard) key.
		shard := rand.IntN(election.ShardCount())
		if err := tx.IncrementShard(ctx, req.ElectionID, req.CandidateID, shard); err != nil {
			return err
		}

		return tx.AppendAudit(ctx, types.AuditEntry{
			ID:            uuid.NewString(),
			Action:        types.AuditActionVoteSubmitted,
			ElectionID:    req.ElectionID,
			ActorIdentity: caller.Subject,
			CandidateID:   req.CandidateID,
			CreatedAt:     now,
		})
	})
	if err != nil {
		// Typed validation failures pass through verbatim; anything else
		// is surfaced as a bare Internal with the detail kept in logs.
		if _, ok := status.FromError(err); ok && status.Code(err) != codes.Unknown {
			return types.SubmitVoteResponse{}, err
		}
		s.logger.Printf("submit vote: %v", err)
		return types.SubmitVoteResponse{}, status.Error(codes.Internal, "unable to submit vote")
	}

	return types.SubmitVoteResponse{OK: true}, nil
}

// resolveSalt loads the election from the registry and resolves its salt
// through the cache.  Errors map to the caller-facing taxonomy here so the
// transaction body only ever deals with store state.
func (s *SubmitService) resolveSalt(ctx context.Context, electionID string) (string, error) {
	election, found, err := s.registry.Lookup(ctx, electionID)
	if err != nil {
		s.logger.Printf("submit vote: election lookup: %v", err)
		return "", status.Error(codes.Internal, "unable to submit vote")
	}
	if !found {
		return "", status.Error(codes.NotFound, "election not found")
	}
	if election.SaltRef == "" {
		return "", status.Error(codes.FailedPrecondition, "election salt not configured")
	}

	salt, err := s.salts.Resolve(election.SaltRef)
	if err != nil {
		if secrets.IsNotFound(err) {
			return "", status.Error(codes.FailedPrecondition, "election salt unavailable")
		}
		s.logger.Printf("submit vote: salt resolution failed for election %s: %v", electionID, err)
		return "", status.Error(codes.Internal, "unable to submit vote")
	}
	return salt, nil
}

// CheckToken is the ordered token guard sequence.  The order is load-bearing:
// a consumed token reports "already used" even if it has since expired, and
// an identity mismatch is reported before any election detail leaks.
func CheckToken(tok types.VoteToken, found bool, callerSubject, electionID string, now time.Time) error {
	if !found {
		return status.Error(codes.FailedPrecondition, "invalid token")
	}
	if tok.Consumed {
		return status.Error(codes.FailedPrecondition, "token already used")
	}
	if tok.TargetIdentity != callerSubject {
		return status.Error(codes.PermissionDenied, "token not issued to this caller")
	}
	if tok.ElectionID != electionID {
		return status.Error(codes.FailedPrecondition, "token-election mismatch")
	}
	if now.After(tok.ExpiresAt) {
		return status.Error(codes.FailedPrecondition, "token expired")
	}
	return nil
}

// CheckElection guards the election half of the submission: it must exist,
// be inside its voting window, and have a salt configured.
func CheckElection(e types.Election, found bool, now time.Time) error {
	if !found {
		return status.Error(codes.NotFound, "election not found")
	}
	if !e.WindowContains(now) {
		return status.Error(codes.FailedPrecondition, "election not active")
	}
	if e.SaltRef == "" {
		return status.Error(codes.FailedPrecondition, "election salt not configured")
	}
	return nil
}
