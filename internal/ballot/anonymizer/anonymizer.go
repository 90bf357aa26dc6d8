// Package anonymizer maps a caller identity to the pseudonym stored on
// ballot records.
package anonymizer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Pseudonym computes the keyed one-way transform of (identity, electionID)
// under the per-election salt: HMAC-SHA256 over "identity|electionID", hex
// encoded.  Deterministic for equal inputs; infeasible to invert without
// the salt.  The salt must never appear in logs or stored records.
func Pseudonym(identity, electionID, salt string) string {
	mac := hmac.New(sha256.New, []byte(salt))
	mac.Write([]byte(identity))
	mac.Write([]byte{'|'})
	mac.Write([]byte(electionID))
	return hex.EncodeToString(mac.Sum(nil))
}
