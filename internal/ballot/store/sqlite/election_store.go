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

type ElectionStore struct {
	conn   *sql.DB
	writer *dbpkg.Worker
}

func NewElectionStore(conn *sql.DB, writer *dbpkg.Worker) *ElectionStore {
	return &ElectionStore{conn: conn, writer: writer}
}

func (s *ElectionStore) CreateElection(ctx context.Context, e types.Election) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	var startMs, endMs any
	if e.StartAt != nil {
		startMs = e.StartAt.UTC().UnixMilli()
	}
	if e.EndAt != nil {
		endMs = e.EndAt.UTC().UnixMilli()
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO elections(
  election_id, name, start_at_ms, end_at_ms, salt_ref, num_shards, created_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?);
`, e.ID, e.Name, startMs, endMs, e.SaltRef, e.ShardCount(), e.CreatedAt.UnixMilli())
		if err != nil {
			return fmt.Errorf("CreateElection insert: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return store.ErrElectionExists
		}
		return nil
	})
}

func (s *ElectionStore) GetElection(ctx context.Context, electionID string) (types.Election, bool, error) {
	return getElection(ctx, s.conn, electionID)
}

// rowQuerier is satisfied by both *sql.DB and *sql.Tx so the read helpers
// below serve the plain read path and the submission transaction alike.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getElection(ctx context.Context, q rowQuerier, electionID string) (types.Election, bool, error) {
	var (
		e              types.Election
		startMs, endMs sql.NullInt64
		createdMs      int64
	)
	err := q.QueryRowContext(ctx, `
SELECT election_id, name, start_at_ms, end_at_ms, salt_ref, num_shards, created_at_ms
FROM elections WHERE election_id = ?;
`, electionID).Scan(&e.ID, &e.Name, &startMs, &endMs, &e.SaltRef, &e.NumShards, &createdMs)
	if err == sql.ErrNoRows {
		return types.Election{}, false, nil
	}
	if err != nil {
		return types.Election{}, false, fmt.Errorf("GetElection %s: %w", electionID, err)
	}

	if startMs.Valid {
		t := time.UnixMilli(startMs.Int64).UTC()
		e.StartAt = &t
	}
	if endMs.Valid {
		t := time.UnixMilli(endMs.Int64).UTC()
		e.EndAt = &t
	}
	e.CreatedAt = time.UnixMilli(createdMs).UTC()

	return e, true, nil
}
