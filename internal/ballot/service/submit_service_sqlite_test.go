package service_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	_ "modernc.org/sqlite"

	"github.com/quorumsoft/ballotd/internal/ballot/service"
	sqlitestore "github.com/quorumsoft/ballotd/internal/ballot/store/sqlite"
	"github.com/quorumsoft/ballotd/internal/ballot/types"
	"github.com/quorumsoft/ballotd/internal/db"
	"github.com/quorumsoft/ballotd/internal/secrets"
)

// newSqliteSubmitService wires the engine over a real in-memory SQLite
// database, matching the production single-connection single-writer setup.
func newSqliteSubmitService(t *testing.T) (*service.SubmitService, *sqlitestore.TokenStore, *sqlitestore.ElectionStore, *sql.DB) {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:svc_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		t.Name(),
	)
	conn, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)
	require.NoError(t, conn.Ping())
	require.NoError(t, db.Migrate(context.Background(), conn))
	t.Cleanup(func() { conn.Close() })

	writer := db.NewWorker(conn)
	t.Cleanup(writer.Close)

	electionStore := sqlitestore.NewElectionStore(conn, writer)
	tokenStore := sqlitestore.NewTokenStore(conn, writer)
	registry := service.NewElectionRegistry(electionStore)
	salts := service.NewSaltCache(
		secrets.NewStaticResolver(map[string]string{"salt/e1": "test-salt"}),
		service.SaltCacheConfig{},
		discardLogger(),
	)
	svc := service.NewSubmitService(sqlitestore.NewSubmissionStore(writer), registry, salts, discardLogger())
	return svc, tokenStore, electionStore, conn
}

func TestSubmitVote_SQLite_ConcurrentSameToken_ExactlyOnce(t *testing.T) {
	svc, tokens, elections, conn := newSqliteSubmitService(t)
	ctx := context.Background()

	require.NoError(t, elections.CreateElection(ctx, types.Election{
		ID: "e1", SaltRef: "salt/e1", NumShards: 2,
	}))
	require.NoError(t, tokens.CreateToken(ctx, types.VoteToken{
		ID:             "tok1",
		ElectionID:     "e1",
		TargetIdentity: "user-1",
		ExpiresAt:      time.Now().UTC().Add(time.Hour),
		IssuedBy:       "admin-1",
	}))

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.SubmitVote(ctx, types.Identity{Subject: "user-1"},
				types.SubmitVoteRequest{ElectionID: "e1", TokenID: "tok1", CandidateID: "cand-A"})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.Equal(t, codes.FailedPrecondition, status.Code(err))
		}
	}
	assert.Equal(t, 1, succeeded)

	var votes, shardSum int64
	require.NoError(t, conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM votes`).Scan(&votes))
	require.NoError(t, conn.QueryRowContext(ctx, `SELECT COALESCE(SUM(count),0) FROM tally_shards`).Scan(&shardSum))
	assert.Equal(t, int64(1), votes)
	assert.Equal(t, int64(1), shardSum)
}

func TestSubmitVote_SQLite_ShardSumMatchesVotes(t *testing.T) {
	svc, tokens, elections, conn := newSqliteSubmitService(t)
	ctx := context.Background()

	require.NoError(t, elections.CreateElection(ctx, types.Election{
		ID: "e1", SaltRef: "salt/e1", NumShards: 3,
	}))

	const votes = 12
	for i := 0; i < votes; i++ {
		user := fmt.Sprintf("user-%d", i)
		tokID := fmt.Sprintf("tok-%d", i)
		require.NoError(t, tokens.CreateToken(ctx, types.VoteToken{
			ID:             tokID,
			ElectionID:     "e1",
			TargetIdentity: user,
			ExpiresAt:      time.Now().UTC().Add(time.Hour),
			IssuedBy:       "admin-1",
		}))
		_, err := svc.SubmitVote(ctx, types.Identity{Subject: user},
			types.SubmitVoteRequest{ElectionID: "e1", TokenID: tokID, CandidateID: "cand-A"})
		require.NoError(t, err)
	}

	var voteRows, shardSum int64
	require.NoError(t, conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM votes WHERE candidate_id='cand-A'`).Scan(&voteRows))
	require.NoError(t, conn.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(count),0) FROM tally_shards WHERE candidate_id='cand-A'`).Scan(&shardSum))
	assert.Equal(t, int64(votes), voteRows)
	assert.Equal(t, voteRows, shardSum, "shard sum must equal vote count")

	// Distinct pseudonyms for distinct voters.
	var distinct int64
	require.NoError(t, conn.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT voter_hash) FROM votes`).Scan(&distinct))
	assert.Equal(t, int64(votes), distinct)
}
