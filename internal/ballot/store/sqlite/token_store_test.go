package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/quorumsoft/ballotd/internal/ballot/store"
	sqlitestore "github.com/quorumsoft/ballotd/internal/ballot/store/sqlite"
	"github.com/quorumsoft/ballotd/internal/ballot/types"
)

// ═══════════════════════════════════════════════════════════════════════════
// CreateToken / GetToken — round trip
// ═══════════════════════════════════════════════════════════════════════════

func TestTokenStore_CreateAndGet(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	ts := sqlitestore.NewTokenStore(conn, w)
	ctx := context.Background()

	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expires := issued.Add(time.Hour)

	err := ts.CreateToken(ctx, types.VoteToken{
		ID:             "tok1",
		ElectionID:     "e1",
		TargetIdentity: "user-1",
		ExpiresAt:      expires,
		IssuedBy:       "admin-1",
		IssuedAt:       issued,
	})
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	tok, found, err := ts.GetToken(ctx, "tok1")
	if err != nil {
		t.Fatalf("GetToken: %v", err)
	}
	if !found {
		t.Fatal("expected token to be found")
	}
	if tok.ElectionID != "e1" || tok.TargetIdentity != "user-1" || tok.IssuedBy != "admin-1" {
		t.Errorf("unexpected token fields: %+v", tok)
	}
	if tok.Consumed {
		t.Error("expected consumed=false on a fresh token")
	}
	if !tok.ExpiresAt.Equal(expires) {
		t.Errorf("expected expires_at=%v, got %v", expires, tok.ExpiresAt)
	}
	if tok.ConsumedAt != nil || tok.ConsumedBy != "" {
		t.Error("expected consumption fields to be unset")
	}
}

func TestTokenStore_GetMissing(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	ts := sqlitestore.NewTokenStore(conn, w)

	_, found, err := ts.GetToken(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetToken: %v", err)
	}
	if found {
		t.Error("expected found=false for a missing token")
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// CreateToken — id collision
// ═══════════════════════════════════════════════════════════════════════════

func TestTokenStore_DuplicateID(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	ts := sqlitestore.NewTokenStore(conn, w)
	ctx := context.Background()

	tok := types.VoteToken{
		ID:             "tok1",
		ElectionID:     "e1",
		TargetIdentity: "user-1",
		ExpiresAt:      time.Now().UTC().Add(time.Hour),
		IssuedBy:       "admin-1",
	}
	if err := ts.CreateToken(ctx, tok); err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	err := ts.CreateToken(ctx, tok)
	if !errors.Is(err, store.ErrTokenExists) {
		t.Errorf("expected ErrTokenExists, got %v", err)
	}
}
