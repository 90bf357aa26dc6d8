package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"

	"github.com/quorumsoft/ballotd/internal/ballot/service"
	"github.com/quorumsoft/ballotd/internal/ballot/store/memory"
	"github.com/quorumsoft/ballotd/internal/ballot/types"
)

func newTestTokenService(t *testing.T) (*service.TokenService, *memory.Store) {
	t.Helper()
	st := memory.New()
	return service.NewTokenService(st, st, discardLogger()), st
}

var admin = types.Identity{Subject: "admin-1", Admin: true}

func TestIssueToken_Success(t *testing.T) {
	svc, st := newTestTokenService(t)

	resp, err := svc.IssueToken(context.Background(), admin,
		types.IssueTokenRequest{ElectionID: "e1", TargetIdentity: "user-1"})
	require.NoError(t, err)

	// 32 random bytes, hex encoded.
	assert.Len(t, resp.TokenID, 64)

	expires, err := time.Parse(time.RFC3339, resp.ExpiresAt)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(service.DefaultTokenTTL), expires, time.Minute)

	tok, found, err := st.GetToken(context.Background(), resp.TokenID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "e1", tok.ElectionID)
	assert.Equal(t, "user-1", tok.TargetIdentity)
	assert.Equal(t, "admin-1", tok.IssuedBy)
	assert.False(t, tok.Consumed)
}

func TestIssueToken_CustomTTL(t *testing.T) {
	svc, _ := newTestTokenService(t)

	resp, err := svc.IssueToken(context.Background(), admin,
		types.IssueTokenRequest{ElectionID: "e1", TargetIdentity: "user-1", TTLSeconds: 60})
	require.NoError(t, err)

	expires, err := time.Parse(time.RFC3339, resp.ExpiresAt)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(time.Minute), expires, time.Minute)
}

func TestIssueToken_TokensAreUnlinked(t *testing.T) {
	svc, _ := newTestTokenService(t)

	seen := make(map[string]struct{})
	for i := 0; i < 10; i++ {
		resp, err := svc.IssueToken(context.Background(), admin,
			types.IssueTokenRequest{ElectionID: "e1", TargetIdentity: "user-1"})
		require.NoError(t, err)
		if _, dup := seen[resp.TokenID]; dup {
			t.Fatalf("duplicate token id %s", resp.TokenID)
		}
		seen[resp.TokenID] = struct{}{}
	}
}

func TestIssueToken_RecordsAudit(t *testing.T) {
	svc, st := newTestTokenService(t)

	_, err := svc.IssueToken(context.Background(), admin,
		types.IssueTokenRequest{ElectionID: "e1", TargetIdentity: "user-1"})
	require.NoError(t, err)

	audit := st.AuditEntries()
	require.Len(t, audit, 1)
	assert.Equal(t, types.AuditActionTokenIssued, audit[0].Action)
	assert.Equal(t, "admin-1", audit[0].ActorIdentity)
	assert.Equal(t, "e1", audit[0].ElectionID)
}

func TestIssueToken_Unauthenticated(t *testing.T) {
	svc, _ := newTestTokenService(t)

	_, err := svc.IssueToken(context.Background(), types.Identity{},
		types.IssueTokenRequest{ElectionID: "e1", TargetIdentity: "user-1"})
	assertCode(t, err, codes.Unauthenticated)
}

func TestIssueToken_NonAdmin(t *testing.T) {
	svc, _ := newTestTokenService(t)

	_, err := svc.IssueToken(context.Background(), types.Identity{Subject: "user-1"},
		types.IssueTokenRequest{ElectionID: "e1", TargetIdentity: "user-1"})
	assertCode(t, err, codes.PermissionDenied)
}

func TestIssueToken_MissingFields(t *testing.T) {
	svc, _ := newTestTokenService(t)

	_, err := svc.IssueToken(context.Background(), admin,
		types.IssueTokenRequest{TargetIdentity: "user-1"})
	assertCode(t, err, codes.InvalidArgument)

	_, err = svc.IssueToken(context.Background(), admin,
		types.IssueTokenRequest{ElectionID: "e1"})
	assertCode(t, err, codes.InvalidArgument)
}
