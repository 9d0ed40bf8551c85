// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

package access

import (
	"context"
	"net/http"

	"github.com/tradewatch/tradewatch/internal/authz"
	"github.com/tradewatch/tradewatch/internal/session"
)

type contextKey struct{}

// ContextWithSnapshot attaches an access snapshot to the context.
func ContextWithSnapshot(ctx context.Context, snapshot authz.Snapshot) context.Context {
	return context.WithValue(ctx, contextKey{}, snapshot)
}

// SnapshotFromContext returns the snapshot attached by Middleware. A
// missing snapshot comes back as the zero value: anonymous and fully
// loaded, which every guard fails closed on.
func SnapshotFromContext(ctx context.Context) authz.Snapshot {
	if snapshot, ok := ctx.Value(contextKey{}).(authz.Snapshot); ok {
		return snapshot
	}
	return authz.Snapshot{}
}

// Middleware loads the access snapshot for the request's principal and
// attaches it to the context. Must run after the session middleware.
func Middleware(loader *Loader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			principal := session.PrincipalFromContext(ctx)
			snapshot := loader.Load(ctx, principal)
			next.ServeHTTP(w, r.WithContext(ContextWithSnapshot(ctx, snapshot)))
		})
	}
}
