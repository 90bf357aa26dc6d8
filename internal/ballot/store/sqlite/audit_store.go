package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/quorumsoft/ballotd/internal/db"

	"github.com/quorumsoft/ballotd/internal/ballot/types"
)

type AuditStore struct {
	writer *dbpkg.Worker
}

func NewAuditStore(writer *dbpkg.Worker) *AuditStore {
	return &AuditStore{writer: writer}
}

func (s *AuditStore) AppendAudit(ctx context.Context, e types.AuditEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO audit_log(audit_id, action, election_id, actor_identity, candidate_id, created_at_ms)
VALUES (?, ?, ?, ?, ?, ?);
`, e.ID, e.Action, e.ElectionID, e.ActorIdentity, e.CandidateID, e.CreatedAt.UTC().UnixMilli()); err != nil {
			return fmt.Errorf("AppendAudit: %w", err)
		}
		return nil
	})
}
