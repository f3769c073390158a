// Package auth guards the post generation endpoints.
//
// Authenticators vote Yes (identity found), No (credentials invalid) or
// Abstain (credentials of another kind). An AuthChain asks them in order and
// falls back to a default decision when all abstain. The HTTP middleware
// runs the chain, applies the per-subject rate limit and stores the caller's
// tenant in the request context so run history stays tenant-scoped.
package auth
