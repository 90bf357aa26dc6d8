package types

import "time"

// DefaultNumShards is the tally shard count used when an election does not
// configure its own.
const DefaultNumShards = 10

// Election is the immutable configuration of a single election.  The
// submission path only ever reads it; rows are created by an admin action
// or the dev seeder.
type Election struct {
	ID        string
	Name      string
	StartAt   *time.Time // nil means no window, always open
	EndAt     *time.Time
	SaltRef   string // opaque reference resolved through secrets.Resolver
	NumShards int
	CreatedAt time.Time
}

// ShardCount returns the configured shard count, falling back to the default.
func (e Election) ShardCount() int {
	if e.NumShards <= 0 {
		return DefaultNumShards
	}
	return e.NumShards
}

// WindowContains reports whether t falls inside the election's [StartAt, EndAt)
// window.  An election without a window is always open.
func (e Election) WindowContains(t time.Time) bool {
	if e.StartAt == nil || e.EndAt == nil {
		return true
	}
	return !t.Before(*e.StartAt) && t.Before(*e.EndAt)
}

type CreateElectionRequest struct {
	ElectionID string `json:"election_id"`
	Name       string `json:"name,omitempty"`
	StartAt    string `json:"start_at,omitempty"` // RFC3339; both or neither
	EndAt      string `json:"end_at,omitempty"`
	SaltRef    string `json:"salt_ref,omitempty"`
	NumShards  int    `json:"num_shards,omitempty"`
}

type CreateElectionResponse struct {
	OK         bool   `json:"ok"`
	ElectionID string `json:"election_id"`
}
