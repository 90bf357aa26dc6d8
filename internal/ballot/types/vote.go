package types

import "time"

// Vote is one anonymized ballot.  VoterHash is the keyed pseudonym; the row
// carries no direct identity reference and is append-only.
type Vote struct {
	ID          string
	ElectionID  string
	VoterHash   string
	CandidateID string
	CreatedAt   time.Time
}

// AuditAction tags for the audit log.
const (
	AuditActionVoteSubmitted   = "vote_submitted"
	AuditActionTokenIssued     = "token_issued"
	AuditActionElectionCreated = "election_created"
)

// AuditEntry is one append-only operational audit record.  It names the
// actor, not the pseudonym; the deliberate linkage trade-off is documented
// in DESIGN.md.
type AuditEntry struct {
	ID            string
	Action        string
	ElectionID    string
	ActorIdentity string
	CandidateID   string
	CreatedAt     time.Time
}

type SubmitVoteRequest struct {
	ElectionID  string `json:"election_id"`
	TokenID     string `json:"token_id"`
	CandidateID string `json:"candidate_id"`
}

type SubmitVoteResponse struct {
	OK bool `json:"ok"`
}

// CandidateTally is one aggregated row of the read-time tally.
type CandidateTally struct {
	CandidateID string `json:"candidate_id"`
	Count       int64  `json:"count"`
}

type TallyResponse struct {
	ElectionID string           `json:"election_id"`
	Results    []CandidateTally `json:"results"`
}
