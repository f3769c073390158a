package auth

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rhuss/postsmith/pkg/api"
	"github.com/rhuss/postsmith/pkg/debug"
	"github.com/rhuss/postsmith/pkg/observability"
	"github.com/rhuss/postsmith/pkg/storage"
	"github.com/rhuss/postsmith/pkg/transport"
)

// DefaultBypassEndpoints are reachable without credentials so probes and
// scrapers keep working.
var DefaultBypassEndpoints = []string{"/healthz", "/readyz", "/metrics"}

// Middleware authenticates every request outside bypassEndpoints and puts
// the identity and its tenant into the request context. limiter may be
// nil. It only sees POST requests, which are the ones that start runs and
// spend search and model quota.
func Middleware(chain *AuthChain, limiter RateLimiter, bypassEndpoints []string) func(http.Handler) http.Handler {
	g := &guard{chain: chain, limiter: limiter, bypass: make(map[string]bool, len(bypassEndpoints))}
	for _, ep := range bypassEndpoints {
		g.bypass[ep] = true
	}
	return g.wrap
}

type guard struct {
	chain   *AuthChain
	limiter RateLimiter
	bypass  map[string]bool
}

func (g *guard) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.bypass[r.URL.Path] {
			debug.Log("auth", "bypass", "path", r.URL.Path)
			next.ServeHTTP(w, r)
			return
		}

		id, apiErr := g.authenticate(r)
		if apiErr != nil {
			if apiErr.Type == api.ErrorTypeUnauthorized {
				w.Header().Set("WWW-Authenticate", `Bearer realm="postsmith"`)
			}
			transport.WriteAPIError(w, apiErr)
			return
		}
		if r.Method == http.MethodPost {
			if err := g.limit(r, id); err != nil {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter(err)))
				transport.WriteAPIError(w, api.NewRateLimitError(err.Error()))
				return
			}
		}

		ctx := WithIdentity(r.Context(), id)
		if tenantID := id.TenantID(); tenantID != "" {
			ctx = storage.WithTenant(ctx, tenantID)
		}
		debug.Log("auth", "authenticated", "subject", id.Subject, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *guard) authenticate(r *http.Request) (*Identity, *api.APIError) {
	result := g.chain.Authenticate(r.Context(), r)
	if result.Decision != Yes || result.Identity == nil {
		slog.Warn("authentication failed",
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"error", result.Err,
		)
		return nil, api.NewUnauthorizedError("authentication required")
	}
	if result.Identity.Subject == "" {
		slog.Error("authenticator returned identity with empty subject")
		return nil, api.NewServerError("internal authentication error")
	}
	return result.Identity, nil
}

func (g *guard) limit(r *http.Request, id *Identity) error {
	if g.limiter == nil {
		return nil
	}
	err := g.limiter.Allow(r.Context(), id)
	if err != nil {
		slog.Warn("rate limit exceeded", "subject", id.Subject, "path", r.URL.Path)
		observability.RateLimitRejectedTotal.Inc()
	}
	return err
}
