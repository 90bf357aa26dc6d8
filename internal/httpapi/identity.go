package httpapi

import (
	"net/http"
	"strings"

	"github.com/quorumsoft/ballotd/internal/ballot/types"
)

// Caller identity arrives in headers set by the authenticating gateway in
// front of this service.  The headers are trusted completely — the gateway
// has already verified the identity claim — and identity is never read
// from the request body.
const (
	headerSubject = "X-Ballotd-Subject"
	headerAdmin   = "X-Ballotd-Admin"
)

func identityFromRequest(r *http.Request) types.Identity {
	subject := strings.TrimSpace(r.Header.Get(headerSubject))
	admin := strings.EqualFold(r.Header.Get(headerAdmin), "true") ||
		r.Header.Get(headerAdmin) == "1"
	return types.Identity{Subject: subject, Admin: admin}
}
