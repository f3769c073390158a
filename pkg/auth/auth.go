package auth

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
)

// AuthDecision is one authenticator's vote.
type AuthDecision int

const (
	Yes AuthDecision = iota // credentials valid, Identity set
	No                      // credentials present but invalid, Err set
	Abstain                 // not this authenticator's credentials
)

// AuthResult is the outcome of one vote.
type AuthResult struct {
	Decision AuthDecision
	Identity *Identity
	Err      error
}

// Identity is an authenticated caller.
type Identity struct {
	Subject string
	Scopes  []string // from the JWT scope claim; API keys carry none

	// Metadata holds authenticator specific values. "tenant_id" scopes
	// run history.
	Metadata map[string]string
}

// Anonymous is admitted when every authenticator abstains and the chain
// defaults to Yes.
var Anonymous = Identity{Subject: "anonymous"}

// TenantID returns the caller's tenant, or "".
func (id *Identity) TenantID() string {
	if id == nil {
		return ""
	}
	return id.Metadata["tenant_id"]
}

func (id *Identity) HasScope(scope string) bool {
	return id != nil && slices.Contains(id.Scopes, scope)
}

// Authenticator votes on the credentials of a request.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) AuthResult
}

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrTooManyRequests = errors.New("rate limit exceeded")
)

// AuthChain asks its authenticators in order.
type AuthChain struct {
	Authenticators []Authenticator

	// DefaultDecision is used when everyone abstains. Yes admits the caller
	// as Anonymous, anything else rejects.
	DefaultDecision AuthDecision
}

func (c *AuthChain) Authenticate(ctx context.Context, r *http.Request) AuthResult {
	for _, a := range c.Authenticators {
		if res := a.Authenticate(ctx, r); res.Decision != Abstain {
			return res
		}
	}
	if c.DefaultDecision != Yes {
		return AuthResult{Decision: No, Err: ErrUnauthenticated}
	}
	anon := Anonymous
	return AuthResult{Decision: Yes, Identity: &anon}
}

// BearerToken extracts the token of an "Authorization: Bearer <token>"
// header. ok is false when the header is absent or uses another scheme.
func BearerToken(r *http.Request) (token string, ok bool) {
	scheme, rest, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return strings.TrimSpace(rest), true
}
