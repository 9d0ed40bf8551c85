// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

package authz

import (
	"context"
	"testing"

	"github.com/tradewatch/tradewatch/internal/models"
)

func newTestEnforcer(t *testing.T) *Enforcer {
	t.Helper()
	enforcer, err := NewEnforcer(context.Background(), nil)
	if err != nil {
		t.Fatalf("failed to create enforcer: %v", err)
	}
	t.Cleanup(enforcer.Close)
	return enforcer
}

func TestEnforcer_RoleHierarchy(t *testing.T) {
	enforcer := newTestEnforcer(t)

	tests := []struct {
		name    string
		role    string
		object  string
		action  string
		allowed bool
	}{
		{"viewer reads trades", models.RoleViewer, "/api/v1/trades", "read", true},
		{"viewer reads screening results", models.RoleViewer, "/api/v1/screening-results", "read", true},
		{"viewer cannot write trades", models.RoleViewer, "/api/v1/trades", "write", false},
		{"viewer cannot delete trades", models.RoleViewer, "/api/v1/trades/42", "delete", false},
		{"viewer cannot read admin surface", models.RoleViewer, "/api/v1/access-requests", "read", false},

		{"trader inherits viewer read", models.RoleTrader, "/api/v1/screening-results", "read", true},
		{"trader writes trades", models.RoleTrader, "/api/v1/trades", "write", true},
		{"trader deletes trades", models.RoleTrader, "/api/v1/trades/42", "delete", true},
		{"trader cannot review requests", models.RoleTrader, "/api/v1/access-requests/7/review", "write", false},

		{"admin reads everything", models.RoleAdmin, "/api/v1/access-records", "read", true},
		{"admin reviews requests", models.RoleAdmin, "/api/v1/access-requests/7/review", "write", true},
		{"admin inherits trader write", models.RoleAdmin, "/api/v1/trades", "write", true},
		{"admin deletes anywhere", models.RoleAdmin, "/api/v1/access-records/9", "delete", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, err := enforcer.Enforce(tt.role, tt.object, tt.action)
			if err != nil {
				t.Fatalf("Enforce() error: %v", err)
			}
			if allowed != tt.allowed {
				t.Errorf("Enforce(%s, %s, %s) = %v, want %v",
					tt.role, tt.object, tt.action, allowed, tt.allowed)
			}
		})
	}
}

func TestEnforcer_EnforceRole_DefaultRole(t *testing.T) {
	enforcer := newTestEnforcer(t)

	// Empty role falls back to viewer.
	allowed, err := enforcer.EnforceRole("", "/api/v1/trades", "read")
	if err != nil {
		t.Fatalf("EnforceRole() error: %v", err)
	}
	if !allowed {
		t.Error("default role should read trades")
	}

	allowed, err = enforcer.EnforceRole("", "/api/v1/trades", "write")
	if err != nil {
		t.Fatalf("EnforceRole() error: %v", err)
	}
	if allowed {
		t.Error("default role must not write trades")
	}
}

func TestEnforcer_UnknownRoleDenied(t *testing.T) {
	enforcer := newTestEnforcer(t)

	allowed, err := enforcer.Enforce("stranger", "/api/v1/trades", "read")
	if err != nil {
		t.Fatalf("Enforce() error: %v", err)
	}
	if allowed {
		t.Error("unknown role must be denied")
	}
}

func TestEnforcer_CachedDecisionStable(t *testing.T) {
	enforcer := newTestEnforcer(t)

	for i := 0; i < 3; i++ {
		allowed, err := enforcer.Enforce(models.RoleTrader, "/api/v1/trades", "write")
		if err != nil {
			t.Fatalf("Enforce() error on iteration %d: %v", i, err)
		}
		if !allowed {
			t.Errorf("iteration %d: expected allow", i)
		}
	}
}

func TestEnforcer_InvalidateSubject(t *testing.T) {
	enforcer := newTestEnforcer(t)

	// Prime the cache, then invalidate; the decision must still resolve
	// correctly from policy.
	if _, err := enforcer.Enforce(models.RoleViewer, "/api/v1/trades", "read"); err != nil {
		t.Fatalf("Enforce() error: %v", err)
	}
	enforcer.InvalidateSubject(models.RoleViewer)

	allowed, err := enforcer.Enforce(models.RoleViewer, "/api/v1/trades", "read")
	if err != nil {
		t.Fatalf("Enforce() error after invalidation: %v", err)
	}
	if !allowed {
		t.Error("expected allow after cache invalidation")
	}
}

func TestMethodToAction(t *testing.T) {
	tests := []struct {
		method string
		want   string
	}{
		{"GET", "read"},
		{"HEAD", "read"},
		{"OPTIONS", "read"},
		{"POST", "write"},
		{"PUT", "write"},
		{"PATCH", "write"},
		{"DELETE", "delete"},
		{"TRACE", "read"},
	}

	for _, tt := range tests {
		if got := methodToAction(tt.method); got != tt.want {
			t.Errorf("methodToAction(%s) = %s, want %s", tt.method, got, tt.want)
		}
	}
}
