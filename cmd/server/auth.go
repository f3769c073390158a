package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rhuss/postsmith/pkg/auth"
	"github.com/rhuss/postsmith/pkg/auth/apikey"
	"github.com/rhuss/postsmith/pkg/auth/jwt"
	"github.com/rhuss/postsmith/pkg/auth/noop"
	"github.com/rhuss/postsmith/pkg/config"
)

// buildAuthMiddleware returns the HTTP middleware for cfg, or nil when
// authentication is disabled and no rate limit is set.
func buildAuthMiddleware(cfg config.AuthConfig, metricsPath string) (func(http.Handler) http.Handler, error) {
	var authn auth.Authenticator

	switch cfg.Type {
	case "", "none":
		if cfg.RateLimit <= 0 {
			return nil, nil
		}
		authn = noop.Authenticator{}
	case "apikey":
		keys := make([]apikey.Key, 0, len(cfg.APIKeys))
		for _, k := range cfg.APIKeys {
			keys = append(keys, apikey.Key{Key: k.Key, Subject: k.Subject, TenantID: k.TenantID})
		}
		authn = apikey.New(keys)
	case "jwt":
		a, err := jwt.New(jwt.Config{
			Secret:      cfg.JWT.Secret,
			JWKSURL:     cfg.JWT.JWKSURL,
			Issuer:      cfg.JWT.Issuer,
			Audience:    cfg.JWT.Audience,
			TenantClaim: cfg.JWT.TenantClaim,
		})
		if err != nil {
			return nil, err
		}
		authn = a
	default:
		return nil, fmt.Errorf("unknown auth type %q", cfg.Type)
	}

	chain := &auth.AuthChain{
		Authenticators:  []auth.Authenticator{authn},
		DefaultDecision: auth.No,
	}

	var limiter auth.RateLimiter
	if cfg.RateLimit > 0 {
		limiter = auth.NewSubjectLimiter(cfg.RateLimit)
	}

	bypass := []string{"/healthz", "/readyz"}
	if metricsPath != "" {
		bypass = append(bypass, metricsPath)
	}

	slog.Info("authentication enabled", "type", cfg.Type, "rate_limit", cfg.RateLimit)
	return auth.Middleware(chain, limiter, bypass), nil
}
