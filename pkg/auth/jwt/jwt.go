// Package jwt authenticates bearer tokens that are JSON Web Tokens.
//
// Tokens are verified either with a shared HMAC secret (HS256/384/512) or
// with RSA keys from a JWKS endpoint (RS256/384/512). Both may be
// configured at once; the token's alg header picks the key source.
package jwt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/rhuss/postsmith/pkg/auth"
)

// Config holds the JWT authenticator configuration.
type Config struct {
	// Secret verifies HMAC-signed tokens. Empty disables HMAC.
	Secret string

	// JWKSURL serves the RSA keys for RS-signed tokens. Empty disables RSA.
	JWKSURL string

	// Issuer and Audience are checked when set.
	Issuer   string
	Audience string

	// UserClaim names the subject claim. Default: "sub".
	UserClaim string

	// TenantClaim names the claim that scopes run history. Default: "tenant_id".
	TenantClaim string

	// ScopesClaim holds a space separated string or an array. Default: "scope".
	ScopesClaim string

	// CacheTTL controls how long JWKS keys are cached. Default: 1 hour.
	CacheTTL time.Duration

	HTTPClient *http.Client
}

func (c *Config) applyDefaults() {
	if c.UserClaim == "" {
		c.UserClaim = "sub"
	}
	if c.TenantClaim == "" {
		c.TenantClaim = "tenant_id"
	}
	if c.ScopesClaim == "" {
		c.ScopesClaim = "scope"
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = time.Hour
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
}

// Authenticator validates JWT bearer tokens.
type Authenticator struct {
	config    Config
	secret    []byte
	jwksCache *jwksCache // nil without JWKSURL
	methods   []string
}

// New creates a JWT authenticator. At least one of Secret and JWKSURL must
// be set.
func New(cfg Config) (*Authenticator, error) {
	if cfg.Secret == "" && cfg.JWKSURL == "" {
		return nil, errors.New("jwt: either a secret or a JWKS URL is required")
	}
	cfg.applyDefaults()

	a := &Authenticator{config: cfg}
	if cfg.Secret != "" {
		a.secret = []byte(cfg.Secret)
		a.methods = append(a.methods, "HS256", "HS384", "HS512")
	}
	if cfg.JWKSURL != "" {
		a.jwksCache = newJWKSCache(cfg.JWKSURL, cfg.HTTPClient, cfg.CacheTTL)
		a.methods = append(a.methods, "RS256", "RS384", "RS512")
	}
	return a, nil
}

// Authenticate abstains without a bearer token, votes No for a token that
// fails verification and Yes otherwise.
func (a *Authenticator) Authenticate(ctx context.Context, r *http.Request) auth.AuthResult {
	tokenStr, ok := auth.BearerToken(r)
	if !ok {
		return auth.AuthResult{Decision: auth.Abstain}
	}
	if tokenStr == "" {
		return auth.AuthResult{Decision: auth.No, Err: errors.New("empty bearer token")}
	}

	token, err := jwtlib.Parse(tokenStr, func(token *jwtlib.Token) (any, error) {
		return a.verificationKey(ctx, token)
	}, a.parserOptions()...)
	if err != nil {
		slog.Debug("JWT validation failed", "error", err)
		return auth.AuthResult{Decision: auth.No, Err: fmt.Errorf("invalid JWT: %w", err)}
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok || !token.Valid {
		return auth.AuthResult{Decision: auth.No, Err: errors.New("invalid JWT claims")}
	}

	subject := claimString(claims, a.config.UserClaim)
	if subject == "" {
		return auth.AuthResult{Decision: auth.No, Err: fmt.Errorf("JWT missing %q claim", a.config.UserClaim)}
	}

	identity := &auth.Identity{
		Subject: subject,
		Scopes:  extractScopes(claims, a.config.ScopesClaim),
	}
	if tenant := claimString(claims, a.config.TenantClaim); tenant != "" {
		identity.Metadata = map[string]string{"tenant_id": tenant}
	}

	return auth.AuthResult{Decision: auth.Yes, Identity: identity}
}

// verificationKey selects the key for the token's signing method.
func (a *Authenticator) verificationKey(ctx context.Context, token *jwtlib.Token) (any, error) {
	switch token.Method.(type) {
	case *jwtlib.SigningMethodHMAC:
		if a.secret == nil {
			return nil, errors.New("HMAC-signed tokens are not accepted")
		}
		return a.secret, nil
	case *jwtlib.SigningMethodRSA:
		if a.jwksCache == nil {
			return nil, errors.New("RSA-signed tokens are not accepted")
		}
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token missing kid header")
		}
		key, err := a.jwksCache.key(ctx, kid)
		if err != nil {
			return nil, fmt.Errorf("fetching JWKS key for kid %q: %w", kid, err)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
}

func (a *Authenticator) parserOptions() []jwtlib.ParserOption {
	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods(a.methods),
		jwtlib.WithExpirationRequired(),
	}
	if a.config.Issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(a.config.Issuer))
	}
	if a.config.Audience != "" {
		opts = append(opts, jwtlib.WithAudience(a.config.Audience))
	}
	return opts
}

func claimString(claims jwtlib.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}

// extractScopes accepts "read write" as well as ["read", "write"].
func extractScopes(claims jwtlib.MapClaims, key string) []string {
	switch v := claims[key].(type) {
	case string:
		if parts := strings.Fields(v); len(parts) > 0 {
			return parts
		}
	case []any:
		var scopes []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				scopes = append(scopes, s)
			}
		}
		return scopes
	}
	return nil
}
