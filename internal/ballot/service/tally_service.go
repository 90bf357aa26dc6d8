package service

import (
	"context"
	"log"
	"sort"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/quorumsoft/ballotd/internal/ballot/store"
	"github.com/quorumsoft/ballotd/internal/ballot/types"
)

// TallyService serves the read-time aggregation over tally shards.
type TallyService struct {
	tallies  store.TallyStore
	registry *ElectionRegistry
	logger   *log.Logger
}

func NewTallyService(tallies store.TallyStore, registry *ElectionRegistry, logger *log.Logger) *TallyService {
	return &TallyService{tallies: tallies, registry: registry, logger: logger}
}

// Aggregate sums shard counts per candidate.  The result is an eventually
// consistent snapshot — concurrent submissions may or may not be included —
// and is sorted by candidate id so the output never depends on shard
// iteration order.
func (s *TallyService) Aggregate(ctx context.Context, electionID string) (types.TallyResponse, error) {
	if electionID == "" {
		return types.TallyResponse{}, status.Error(codes.InvalidArgument, "missing election_id")
	}

	_, found, err := s.registry.Lookup(ctx, electionID)
	if err != nil {
		s.logger.Printf("aggregate: election lookup: %v", err)
		return types.TallyResponse{}, status.Error(codes.Internal, "unable to aggregate")
	}
	if !found {
		return types.TallyResponse{}, status.Error(codes.NotFound, "election not found")
	}

	totals, err := s.tallies.Aggregate(ctx, electionID)
	if err != nil {
		s.logger.Printf("aggregate: %v", err)
		return types.TallyResponse{}, status.Error(codes.Internal, "unable to aggregate")
	}

	results := make([]types.CandidateTally, 0, len(totals))
	for candidateID, count := range totals {
		results = append(results, types.CandidateTally{CandidateID: candidateID, Count: count})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].CandidateID < results[j].CandidateID })

	return types.TallyResponse{ElectionID: electionID, Results: results}, nil
}
