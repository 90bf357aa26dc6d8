package types

import "time"

// VoteToken is a single-use authorization credential binding one target
// identity to one election.  Consumed flips false→true exactly once, inside
// the submission transaction; rows are never deleted.
type VoteToken struct {
	ID             string
	ElectionID     string
	TargetIdentity string
	Consumed       bool
	ExpiresAt      time.Time
	IssuedBy       string
	IssuedAt       time.Time
	ConsumedAt     *time.Time
	ConsumedBy     string
}

type IssueTokenRequest struct {
	ElectionID     string `json:"election_id"`
	TargetIdentity string `json:"target_identity"`
	TTLSeconds     int64  `json:"ttl_seconds,omitempty"`
}

type IssueTokenResponse struct {
	TokenID   string `json:"token_id"`
	ExpiresAt string `json:"expires_at"` // RFC3339
}
