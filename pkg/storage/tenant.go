package storage

import "context"

type tenantKey struct{}

// WithTenant scopes ctx to tenantID. Stores only return runs owned by the
// tenant of the calling context.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenantID)
}

// TenantFromContext returns the tenant ctx is scoped to, or "" when the
// deployment is single-tenant.
func TenantFromContext(ctx context.Context) string {
	tenantID, _ := ctx.Value(tenantKey{}).(string)
	return tenantID
}

// Visible reports whether a run owned by owner may be read under ctx.
// An unscoped context sees every run.
func Visible(ctx context.Context, owner string) bool {
	tenantID := TenantFromContext(ctx)
	return tenantID == "" || tenantID == owner
}
