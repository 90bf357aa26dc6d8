// Package secrets resolves opaque secret references to their current values.
// The submission engine only ever sees "fetch current per-election salt by
// reference"; where the value actually lives is this package's concern.
package secrets

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"
)

// ErrNotFound indicates the reference does not resolve to any secret.
var ErrNotFound = errors.New("secret not found")

// Resolver resolves a secret reference to its current value.  Callers must
// never log or persist the returned value.
type Resolver interface {
	ResolveSecret(ref string) (string, error)
}

// StaticResolver serves secrets from a fixed map.  Used in tests and for
// operator-provisioned salts.
type StaticResolver struct {
	values map[string]string
}

func NewStaticResolver(values map[string]string) *StaticResolver {
	m := make(map[string]string, len(values))
	for k, v := range values {
		m[k] = v
	}
	return &StaticResolver{values: m}
}

func (r *StaticResolver) ResolveSecret(ref string) (string, error) {
	v, ok := r.values[ref]
	if !ok {
		return "", errors.Wrapf(ErrNotFound, "static resolver: %q", ref)
	}
	return v, nil
}

// DerivedResolver derives per-reference secrets from a single master secret
// via HKDF-SHA256.  References take the form "derived:<info>"; everything
// after the prefix is the HKDF info parameter, so distinct references yield
// independent salts without any external storage.
type DerivedResolver struct {
	master []byte
	next   Resolver // fallback for non-derived references, may be nil
}

const derivedPrefix = "derived:"

func NewDerivedResolver(masterSecret string, next Resolver) (*DerivedResolver, error) {
	if masterSecret == "" {
		return nil, errors.New("derived resolver: master secret is empty")
	}
	return &DerivedResolver{master: []byte(masterSecret), next: next}, nil
}

func (r *DerivedResolver) ResolveSecret(ref string) (string, error) {
	info, ok := strings.CutPrefix(ref, derivedPrefix)
	if !ok {
		if r.next != nil {
			return r.next.ResolveSecret(ref)
		}
		return "", errors.Wrapf(ErrNotFound, "derived resolver: %q", ref)
	}
	if info == "" {
		return "", errors.Errorf("derived resolver: empty info in %q", ref)
	}

	kdf := hkdf.New(sha256.New, r.master, nil, []byte(info))
	out := make([]byte, 32)
	if _, err := io.ReadFull(kdf, out); err != nil {
		return "", errors.Wrap(err, "derived resolver: hkdf read")
	}
	return hex.EncodeToString(out), nil
}

// IsNotFound reports whether err means the reference resolved to nothing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
