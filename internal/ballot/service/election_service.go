package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/quorumsoft/ballotd/internal/ballot/store"
	"github.com/quorumsoft/ballotd/internal/ballot/types"
)

// ElectionService handles election administration.  Elections are created
// once and never mutated; the submission path only ever reads them.
type ElectionService struct {
	elections store.ElectionStore
	audit     store.AuditStore
	logger    *log.Logger
}

func NewElectionService(elections store.ElectionStore, audit store.AuditStore, logger *log.Logger) *ElectionService {
	return &ElectionService{elections: elections, audit: audit, logger: logger}
}

func (s *ElectionService) CreateElection(ctx context.Context, caller types.Identity, req types.CreateElectionRequest) (types.CreateElectionResponse, error) {
	if !caller.IsAuthenticated() {
		return types.CreateElectionResponse{}, status.Error(codes.Unauthenticated, "sign-in required")
	}
	if !caller.Admin {
		return types.CreateElectionResponse{}, status.Error(codes.PermissionDenied, "admin only")
	}
	if req.ElectionID == "" {
		return types.CreateElectionResponse{}, status.Error(codes.InvalidArgument, "missing election_id")
	}

	startAt, err := parseOptionalTime(req.StartAt)
	if err != nil {
		return types.CreateElectionResponse{}, status.Error(codes.InvalidArgument, "start_at must be RFC3339")
	}
	endAt, err := parseOptionalTime(req.EndAt)
	if err != nil {
		return types.CreateElectionResponse{}, status.Error(codes.InvalidArgument, "end_at must be RFC3339")
	}
	if (startAt == nil) != (endAt == nil) {
		return types.CreateElectionResponse{}, status.Error(codes.InvalidArgument, "start_at and end_at must be set together")
	}
	if startAt != nil && !endAt.After(*startAt) {
		return types.CreateElectionResponse{}, status.Error(codes.InvalidArgument, "end_at must be after start_at")
	}
	if req.NumShards < 0 {
		return types.CreateElectionResponse{}, status.Error(codes.InvalidArgument, "num_shards must be non-negative")
	}

	now := time.Now().UTC()
	e := types.Election{
		ID:        req.ElectionID,
		Name:      req.Name,
		StartAt:   startAt,
		EndAt:     endAt,
		SaltRef:   req.SaltRef,
		NumShards: req.NumShards,
		CreatedAt: now,
	}

	if err := s.elections.CreateElection(ctx, e); err != nil {
		if errors.Is(err, store.ErrElectionExists) {
			return types.CreateElectionResponse{}, status.Error(codes.AlreadyExists, "election already exists")
		}
		s.logger.Printf("create election: %v", err)
		return types.CreateElectionResponse{}, status.Error(codes.Internal, "unable to create election")
	}

	_ = s.audit.AppendAudit(ctx, types.AuditEntry{
		ID:            uuid.NewString(),
		Action:        types.AuditActionElectionCreated,
		ElectionID:    req.ElectionID,
		ActorIdentity: caller.Subject,
		CreatedAt:     now,
	})

	return types.CreateElectionResponse{OK: true, ElectionID: req.ElectionID}, nil
}

func parseOptionalTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	u := t.UTC()
	return &u, nil
}
