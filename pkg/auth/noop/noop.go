// Package noop admits every request as the anonymous caller. It backs
// auth.type "none".
package noop

import (
	"context"
	"net/http"

	"github.com/rhuss/postsmith/pkg/auth"
)

// Authenticator always votes Yes.
type Authenticator struct{}

func (Authenticator) Authenticate(_ context.Context, _ *http.Request) auth.AuthResult {
	id := auth.Anonymous
	return auth.AuthResult{Decision: auth.Yes, Identity: &id}
}
