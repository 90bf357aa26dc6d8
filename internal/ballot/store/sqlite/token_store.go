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

type TokenStore struct {
	conn   *sql.DB
	writer *dbpkg.Worker
}

func NewTokenStore(conn *sql.DB, writer *dbpkg.Worker) *TokenStore {
	return &TokenStore{conn: conn, writer: writer}
}

func (s *TokenStore) CreateToken(ctx context.Context, tok types.VoteToken) error {
	if tok.IssuedAt.IsZero() {
		tok.IssuedAt = time.Now().UTC()
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO vote_tokens(
  token_id, election_id, target_identity, consumed,
  expires_at_ms, issued_by, issued_at_ms
) VALUES (?, ?, ?, 0, ?, ?, ?);
`, tok.ID, tok.ElectionID, tok.TargetIdentity,
			tok.ExpiresAt.UTC().UnixMilli(), tok.IssuedBy, tok.IssuedAt.UTC().UnixMilli())
		if err != nil {
			return fmt.Errorf("CreateToken insert: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return store.ErrTokenExists
		}
		return nil
	})
}

func (s *TokenStore) GetToken(ctx context.Context, tokenID string) (types.VoteToken, bool, error) {
	return getToken(ctx, s.conn, tokenID)
}

func getToken(ctx context.Context, q rowQuerier, tokenID string) (types.VoteToken, bool, error) {
	var (
		tok                 types.VoteToken
		consumed            int
		expiresMs, issuedMs int64
		consumedMs          sql.NullInt64
		consumedBy          sql.NullString
	)
	err := q.QueryRowContext(ctx, `
SELECT token_id, election_id, target_identity, consumed,
       expires_at_ms, issued_by, issued_at_ms, consumed_at_ms, consumed_by
FROM vote_tokens WHERE token_id = ?;
`, tokenID).Scan(&tok.ID, &tok.ElectionID, &tok.TargetIdentity, &consumed,
		&expiresMs, &tok.IssuedBy, &issuedMs, &consumedMs, &consumedBy)
	if err == sql.ErrNoRows {
		return types.VoteToken{}, false, nil
	}
	if err != nil {
		return types.VoteToken{}, false, fmt.Errorf("GetToken: %w", err)
	}

	tok.Consumed = consumed != 0
	tok.ExpiresAt = time.UnixMilli(expiresMs).UTC()
	tok.IssuedAt = time.UnixMilli(issuedMs).UTC()
	if consumedMs.Valid {
		t := time.UnixMilli(consumedMs.Int64).UTC()
		tok.ConsumedAt = &t
	}
	if consumedBy.Valid {
		tok.ConsumedBy = consumedBy.String
	}

	return tok, true, nil
}
