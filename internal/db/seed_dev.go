package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type SeedDevOptions struct {
	// ElectionID of the starter election.  Defaults to "dev-election".
	ElectionID string
}

// SeedDev creates a starter election so a fresh dev instance can issue
// tokens and accept votes immediately.  Idempotent.
func SeedDev(ctx context.Context, conn *sql.DB, opt SeedDevOptions) error {
	id := opt.ElectionID
	if id == "" {
		id = "dev-election"
	}

	now := time.Now().UTC()
	start := now.Add(-time.Hour)
	end := now.Add(30 * 24 * time.Hour)

	if _, err := conn.ExecContext(ctx, `
INSERT OR IGNORE INTO elections(
  election_id, name, start_at_ms, end_at_ms, salt_ref, num_shards, created_at_ms
) VALUES (?, 'Dev Election', ?, ?, ?, 2, ?);`,
		id, start.UnixMilli(), end.UnixMilli(), "derived:"+id, now.UnixMilli(),
	); err != nil {
		return fmt.Errorf("seed election %s: %w", id, err)
	}

	return nil
}
