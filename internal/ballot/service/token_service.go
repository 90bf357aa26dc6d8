package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/quorumsoft/ballotd/internal/ballot/store"
	"github.com/quorumsoft/ballotd/internal/ballot/types"
)

// DefaultTokenTTL applies when the issue request carries no ttl_seconds.
const DefaultTokenTTL = time.Hour

// tokenIDBytes sizes the token id at 256 bits of entropy.
const tokenIDBytes = 32

// TokenService issues single-use vote tokens.  Admin capability required;
// the token binds one target identity to one election and expires.
type TokenService struct {
	tokens store.TokenStore
	audit  store.AuditStore
	logger *log.Logger
}

func NewTokenService(tokens store.TokenStore, audit store.AuditStore, logger *log.Logger) *TokenService {
	return &TokenService{tokens: tokens, audit: audit, logger: logger}
}

func (s *TokenService) IssueToken(ctx context.Context, caller types.Identity, req types.IssueTokenRequest) (types.IssueTokenResponse, error) {
	if !caller.IsAuthenticated() {
		return types.IssueTokenResponse{}, status.Error(codes.Unauthenticated, "sign-in required")
	}
	if !caller.Admin {
		return types.IssueTokenResponse{}, status.Error(codes.PermissionDenied, "admin only")
	}
	if req.ElectionID == "" || req.TargetIdentity == "" {
		return types.IssueTokenResponse{}, status.Error(codes.InvalidArgument, "missing election_id or target_identity")
	}

	tokenID, err := newTokenID()
	if err != nil {
		s.logger.Printf("issue token: id generation: %v", err)
		return types.IssueTokenResponse{}, status.Error(codes.Internal, "unable to issue token")
	}

	ttl := DefaultTokenTTL
	if req.TTLSeconds > 0 {
		ttl = time.Duration(req.TTLSeconds) * time.Second
	}

	now := time.Now().UTC()
	tok := types.VoteToken{
		ID:             tokenID,
		ElectionID:     req.ElectionID,
		TargetIdentity: req.TargetIdentity,
		ExpiresAt:      now.Add(ttl),
		IssuedBy:       caller.Subject,
		IssuedAt:       now,
	}

	if err := s.tokens.CreateToken(ctx, tok); err != nil {
		s.logger.Printf("issue token: persist: %v", err)
		return types.IssueTokenResponse{}, status.Error(codes.Internal, "unable to issue token")
	}

	// Audit failures do not fail the issue call; the token is already
	// durable and the admin needs the id back.
	_ = s.audit.AppendAudit(ctx, types.AuditEntry{
		ID:            uuid.NewString(),
		Action:        types.AuditActionTokenIssued,
		ElectionID:    req.ElectionID,
		ActorIdentity: caller.Subject,
		CreatedAt:     now,
	})

	return types.IssueTokenResponse{
		TokenID:   tok.ID,
		ExpiresAt: tok.ExpiresAt.Format(time.RFC3339),
	}, nil
}

func newTokenID() (string, error) {
	buf := make([]byte, tokenIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
