package storage

import (
	"context"
	"testing"
)

func TestTenantFromContext(t *testing.T) {
	ctx := context.Background()
	if got := TenantFromContext(ctx); got != "" {
		t.Errorf("unscoped context: tenant = %q", got)
	}

	ctx = WithTenant(ctx, "acme")
	if got := TenantFromContext(ctx); got != "acme" {
		t.Errorf("tenant = %q, want acme", got)
	}

	// A plain string key must not be mistaken for the tenant.
	ctx = context.WithValue(context.Background(), "tenant", "acme")
	if got := TenantFromContext(ctx); got != "" {
		t.Errorf("string key leaked tenant %q", got)
	}
}

func TestVisible(t *testing.T) {
	tests := []struct {
		name   string
		tenant string
		owner  string
		want   bool
	}{
		{"unscoped sees owned run", "", "acme", true},
		{"unscoped sees unowned run", "", "", true},
		{"same tenant", "acme", "acme", true},
		{"other tenant", "acme", "globex", false},
		{"scoped caller and unowned run", "acme", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.tenant != "" {
				ctx = WithTenant(ctx, tt.tenant)
			}
			if got := Visible(ctx, tt.owner); got != tt.want {
				t.Errorf("Visible = %v, want %v", got, tt.want)
			}
		})
	}
}
