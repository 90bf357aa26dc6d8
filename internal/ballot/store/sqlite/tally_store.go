package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// TallyStore is the read path over tally shards.  Reads go straight to the
// connection, not through the write worker: a tally is an eventually
// consistent snapshot, and SUM over shards is order-independent.
type TallyStore struct {
	conn *sql.DB
}

func NewTallyStore(conn *sql.DB) *TallyStore {
	return &TallyStore{conn: conn}
}

func (s *TallyStore) Aggregate(ctx context.Context, electionID string) (map[string]int64, error) {
	rows, err := s.conn.QueryContext(ctx, `
SELECT candidate_id, SUM(count)
FROM tally_shards
WHERE election_id = ?
GROUP BY candidate_id;
`, electionID)
	if err != nil {
		return nil, fmt.Errorf("Aggregate query: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]int64)
	for rows.Next() {
		var (
			candidateID string
			count       int64
		)
		if err := rows.Scan(&candidateID, &count); err != nil {
			return nil, fmt.Errorf("Aggregate scan: %w", err)
		}
		totals[candidateID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Aggregate rows: %w", err)
	}

	return totals, nil
}
