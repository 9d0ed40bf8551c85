// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tradewatch/tradewatch/internal/logging"
	"github.com/tradewatch/tradewatch/internal/models"
)

type contextKey int

const (
	principalContextKey contextKey = iota
	sessionContextKey
)

// ContextWithPrincipal attaches a principal to the context.
func ContextWithPrincipal(ctx context.Context, principal models.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext returns the principal attached by the session
// middleware. An absent principal is returned as the anonymous zero
// value, never nil, so callers can branch on Authenticated alone.
func PrincipalFromContext(ctx context.Context) models.Principal {
	if principal, ok := ctx.Value(principalContextKey).(models.Principal); ok {
		return principal
	}
	return models.Principal{}
}

// FromContext returns the session attached by the middleware, or nil
// for unauthenticated requests.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(sessionContextKey).(*Session); ok {
		return s
	}
	return nil
}

// Manager ties the cookie codec and the session store together for the
// login, request, and logout paths.
type Manager struct {
	store  Store
	codec  *CookieCodec
	maxAge time.Duration
}

// NewManager creates a session manager.
func NewManager(store Store, codec *CookieCodec, maxAge time.Duration) *Manager {
	return &Manager{
		store:  store,
		codec:  codec,
		maxAge: maxAge,
	}
}

// Establish creates a session for the principal and sets the signed
// cookie. Called after a successful OIDC callback.
func (m *Manager) Establish(ctx context.Context, w http.ResponseWriter, principal models.Principal, idTokenHint string) (*Session, error) {
	sess := New(principal, idTokenHint, m.maxAge)
	if err := m.store.Create(ctx, sess); err != nil {
		return nil, err
	}
	if err := m.codec.Issue(w, sess.ID); err != nil {
		return nil, err
	}
	return sess, nil
}

// Destroy deletes the request's session and clears the cookie. It
// returns the destroyed session so the caller can build the IdP logout
// URL from its ID token hint.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) *Session {
	defer m.codec.Clear(w)

	id, err := m.codec.SessionID(r)
	if err != nil {
		return nil
	}

	sess, err := m.store.Get(ctx, id)
	if err != nil {
		return nil
	}

	if err := m.store.Delete(ctx, id); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("failed to delete session on logout")
	}
	return sess
}

// EvictPrincipal deletes every session for a principal. Used when an
// administrator revokes access so the eviction takes effect on the next
// request from any of the principal's devices.
func (m *Manager) EvictPrincipal(ctx context.Context, principalID string) (int, error) {
	return m.store.DeleteByPrincipalID(ctx, principalID)
}

// Resolve looks up the request's session from its cookie. Returns nil
// with no error for unauthenticated requests; the request proceeds
// anonymously.
func (m *Manager) Resolve(ctx context.Context, r *http.Request) (*Session, error) {
	id, err := m.codec.SessionID(r)
	if err != nil {
		return nil, nil
	}

	sess, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrSessionExpired) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Middleware resolves the session cookie and attaches the principal and
// session to the request context. Anonymous requests pass through with
// no principal; route guards downstream decide what that means.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		sess, err := m.Resolve(ctx, r)
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Msg("session store lookup failed")
			next.ServeHTTP(w, r)
			return
		}
		if sess == nil {
			next.ServeHTTP(w, r)
			return
		}

		// Sliding expiry. Best effort: a failed touch never blocks the
		// request.
		if err := m.store.Touch(ctx, sess.ID, time.Now().Add(m.maxAge)); err != nil {
			logging.Ctx(ctx).Debug().Err(err).Msg("session touch failed")
		}

		ctx = ContextWithPrincipal(ctx, sess.Principal())
		ctx = context.WithValue(ctx, sessionContextKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
