// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

package authz

import (
	"net/http"

	"github.com/tradewatch/tradewatch/internal/logging"
)

// SubjectResolver extracts the RBAC subject and effective role for a
// request. Returns false when the request carries no authenticated
// principal. The role comes from the access record; IdP admins resolve to
// the admin role directly.
type SubjectResolver func(r *http.Request) (subject, role string, ok bool)

// Middleware enforces role-based access control on the JSON API.
type Middleware struct {
	enforcer *Enforcer
	resolve  SubjectResolver
}

// NewMiddleware creates a new RBAC middleware.
func NewMiddleware(enforcer *Enforcer, resolve SubjectResolver) *Middleware {
	return &Middleware{
		enforcer: enforcer,
		resolve:  resolve,
	}
}

// AuthorizeRequest determines the action from the HTTP method and enforces
// the subject's role against the request path.
func (m *Middleware) AuthorizeRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, role, ok := m.resolve(r)
		if !ok {
			http.Error(w, "Forbidden: no authentication context", http.StatusForbidden)
			return
		}

		action := methodToAction(r.Method)
		object := r.URL.Path

		allowed, err := m.enforcer.EnforceRole(role, object, action)
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).
				Str("subject", subject).
				Str("object", object).
				Msg("authorization error")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if !allowed {
			logging.Ctx(r.Context()).Warn().
				Str("subject", subject).
				Str("role", role).
				Str("object", object).
				Str("action", action).
				Msg("request denied by policy")
			http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// methodToAction maps HTTP methods to policy actions.
func methodToAction(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return "read"
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return "write"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}
