// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

// Package guard translates decision-engine verdicts into HTTP behavior
// as chi middleware. Three guards cover the three navigation surfaces:
// General for the application shell, Admin for the admin area, and
// Feature for individual dashboard features.
//
// Verdict mapping:
//   - ALLOW:    pass through to the handler
//   - REDIRECT: 303 See Other to the verdict's path
//   - LOADING:  202 Accepted with Retry-After, asking the client to
//     retry once access state has been fetched
package guard

import (
	"net/http"
	"net/url"

	"github.com/tradewatch/tradewatch/internal/access"
	"github.com/tradewatch/tradewatch/internal/authz"
	"github.com/tradewatch/tradewatch/internal/features"
	"github.com/tradewatch/tradewatch/internal/logging"
)

// retryAfterSeconds is the suggested delay before re-requesting a
// guarded page while access state is loading.
const retryAfterSeconds = "1"

// General guards the application shell. Requires an authenticated,
// approved principal.
func General() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snapshot := access.SnapshotFromContext(r.Context())
			verdict := authz.EvaluateGeneralAccess(snapshot)
			apply(w, r, next, verdict, "general")
		})
	}
}

// Admin guards the administration area. Requires an administrator, by
// IdP group or by record role.
func Admin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snapshot := access.SnapshotFromContext(r.Context())
			verdict := authz.EvaluateAdminAccess(snapshot)
			apply(w, r, next, verdict, "admin")
		})
	}
}

// Feature guards a single dashboard feature by its permission. Runs
// inside the general guard, so it only refines an already-approved
// principal's access.
func Feature(f features.Feature) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snapshot := access.SnapshotFromContext(r.Context())
			verdict := authz.EvaluateFeatureAccess(snapshot, f)
			apply(w, r, next, verdict, "feature:"+string(f))
		})
	}
}

func apply(w http.ResponseWriter, r *http.Request, next http.Handler, verdict authz.Verdict, check string) {
	switch {
	case verdict.IsAllow():
		next.ServeHTTP(w, r)

	case verdict.IsLoading():
		w.Header().Set("Retry-After", retryAfterSeconds)
		w.Header().Set("Cache-Control", "no-store")
		http.Error(w, "access state loading, retry shortly", http.StatusAccepted)

	default:
		logging.Ctx(r.Context()).Debug().
			Str("check", check).
			Str("rule", verdict.Rule).
			Str("path", r.URL.Path).
			Str("target", verdict.Path).
			Msg("guard redirect")
		http.Redirect(w, r, redirectTarget(r, verdict), http.StatusSeeOther)
	}
}

// redirectTarget adds a return_to parameter to login redirects so the
// principal lands back where they were heading after authentication.
func redirectTarget(r *http.Request, verdict authz.Verdict) string {
	if verdict.Path != authz.PathLogin {
		return verdict.Path
	}

	returnTo := r.URL.Path
	if r.URL.RawQuery != "" {
		returnTo += "?" + r.URL.RawQuery
	}
	if returnTo == "" || returnTo == "/" {
		return verdict.Path
	}
	return verdict.Path + "?return_to=" + url.QueryEscape(returnTo)
}
