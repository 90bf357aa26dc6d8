package types

// Identity is the caller identity as verified by the upstream gateway.
// The core trusts it completely; it is never taken from a request body.
type Identity struct {
	Subject string
	Admin   bool
}

// IsAuthenticated reports whether a verified subject is present.
func (id Identity) IsAuthenticated() bool { return id.Subject != "" }
