// Package apikey authenticates bearer tokens against a static list of API
// keys. Keys are kept only as SHA-256 hashes and compared in constant time.
package apikey

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/rhuss/postsmith/pkg/auth"
)

// Key is one configured API key and the caller it identifies.
type Key struct {
	Key      string
	Subject  string
	TenantID string
}

type entry struct {
	hash     [32]byte
	identity auth.Identity
}

// Authenticator validates bearer tokens against the configured keys.
type Authenticator struct {
	keys []entry
}

// New hashes the given keys. Plaintext keys are not retained. A key without
// a subject is identified as "apikey-<n>" by its position.
func New(keys []Key) *Authenticator {
	a := &Authenticator{keys: make([]entry, 0, len(keys))}
	for i, k := range keys {
		id := auth.Identity{Subject: k.Subject}
		if id.Subject == "" {
			id.Subject = "apikey-" + strconv.Itoa(i)
		}
		if k.TenantID != "" {
			id.Metadata = map[string]string{"tenant_id": k.TenantID}
		}
		a.keys = append(a.keys, entry{
			hash:     sha256.Sum256([]byte(k.Key)),
			identity: id,
		})
	}
	return a
}

// Authenticate abstains without a bearer token and votes No for an
// unknown one.
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.AuthResult {
	token, ok := auth.BearerToken(r)
	if !ok {
		return auth.AuthResult{Decision: auth.Abstain}
	}
	if token == "" {
		return auth.AuthResult{Decision: auth.No, Err: auth.ErrUnauthenticated}
	}

	tokenHash := sha256.Sum256([]byte(token))

	var match *entry
	for i := range a.keys {
		// Compare against every key so timing does not reveal the position.
		if subtle.ConstantTimeCompare(tokenHash[:], a.keys[i].hash[:]) == 1 && match == nil {
			match = &a.keys[i]
		}
	}
	if match == nil {
		return auth.AuthResult{Decision: auth.No, Err: auth.ErrUnauthenticated}
	}

	id := match.identity
	return auth.AuthResult{Decision: auth.Yes, Identity: &id}
}
