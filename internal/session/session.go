// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

// Package session manages server-side sessions for authenticated
// principals: creation after the OIDC callback, lookup on each request,
// and revocation-driven eviction.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/tradewatch/tradewatch/internal/models"
)

var (
	// ErrSessionNotFound is returned when a session is not in the store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired is returned when a session exists but has expired.
	ErrSessionExpired = errors.New("session expired")
)

// Session is an authenticated principal's server-side session state.
// Sessions are created after a successful OIDC callback and deleted on
// logout or access revocation.
type Session struct {
	// ID is the opaque session identifier.
	ID string `json:"id"`

	// PrincipalID is the identity provider's subject for this principal.
	PrincipalID string `json:"principal_id"`

	// Email is the principal's verified email address.
	Email string `json:"email"`

	// Groups are the principal's IdP group memberships at login time.
	Groups []string `json:"groups,omitempty"`

	// IdPAdmin records membership in the configured admin group.
	IdPAdmin bool `json:"idp_admin"`

	// IDTokenHint is retained for RP-initiated logout at the IdP.
	IDTokenHint string `json:"id_token_hint,omitempty"`

	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}

// IsExpired reports whether the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Principal converts the session into the authenticated principal it
// represents.
func (s *Session) Principal() models.Principal {
	groups := make([]string, len(s.Groups))
	copy(groups, s.Groups)
	return models.Principal{
		ID:            s.PrincipalID,
		Email:         s.Email,
		Authenticated: true,
		IdPAdmin:      s.IdPAdmin,
		Groups:        groups,
	}
}

// New creates a session for the principal with the given lifetime.
func New(principal models.Principal, idTokenHint string, lifetime time.Duration) *Session {
	now := time.Now()
	groups := make([]string, len(principal.Groups))
	copy(groups, principal.Groups)
	return &Session{
		ID:             generateSessionID(),
		PrincipalID:    principal.ID,
		Email:          principal.Email,
		Groups:         groups,
		IdPAdmin:       principal.IdPAdmin,
		IDTokenHint:    idTokenHint,
		CreatedAt:      now,
		ExpiresAt:      now.Add(lifetime),
		LastAccessedAt: now,
	}
}

// generateSessionID returns a cryptographically random session ID.
func generateSessionID() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		// rand.Read never fails on supported platforms; fall back to a
		// time-derived value rather than panic.
		return hex.EncodeToString([]byte(time.Now().String()))
	}
	return hex.EncodeToString(bytes)
}

// Store is the interface for session storage backends.
type Store interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// Get retrieves a session by ID. Returns ErrSessionNotFound if
	// absent, ErrSessionExpired if present but past its expiry.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes a session by ID. Deleting an absent session is not
	// an error.
	Delete(ctx context.Context, id string) error

	// DeleteByPrincipalID removes every session belonging to a
	// principal and returns the count removed. Used when access is
	// revoked so the principal is evicted immediately on every device.
	DeleteByPrincipalID(ctx context.Context, principalID string) (int, error)

	// Touch updates the session's last-accessed time and extends expiry.
	Touch(ctx context.Context, id string, newExpiry time.Time) error

	// CleanupExpired removes all expired sessions and returns the count.
	CleanupExpired(ctx context.Context) (int, error)
}

// MemoryStore is an in-memory Store for development and testing. For
// production use BadgerStore, which survives restarts.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
	}
}

// Create stores a new session.
func (s *MemoryStore) Create(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = copySession(session)
	return nil
}

// Get retrieves a session by ID.
func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if session.IsExpired() {
		return nil, ErrSessionExpired
	}
	return copySession(session), nil
}

// Delete removes a session by ID.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// DeleteByPrincipalID removes all sessions for a principal.
func (s *MemoryStore) DeleteByPrincipalID(_ context.Context, principalID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, session := range s.sessions {
		if session.PrincipalID == principalID {
			delete(s.sessions, id)
			count++
		}
	}
	return count, nil
}

// Touch updates the session's last-accessed time and extends expiry.
func (s *MemoryStore) Touch(_ context.Context, id string, newExpiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	session.LastAccessedAt = time.Now()
	session.ExpiresAt = newExpiry
	return nil
}

// CleanupExpired removes all expired sessions.
func (s *MemoryStore) CleanupExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, session := range s.sessions {
		if session.IsExpired() {
			delete(s.sessions, id)
			count++
		}
	}
	return count, nil
}

func copySession(session *Session) *Session {
	copied := *session
	if session.Groups != nil {
		copied.Groups = make([]string, len(session.Groups))
		copy(copied.Groups, session.Groups)
	}
	return &copied
}

// StartCleanupRoutine periodically purges expired sessions until the
// context is cancelled.
func StartCleanupRoutine(ctx context.Context, store Store, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				//nolint:errcheck // Background cleanup - errors are non-critical
				store.CleanupExpired(ctx)
			}
		}
	}()
}
