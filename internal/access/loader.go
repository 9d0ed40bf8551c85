// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

// Package access assembles the per-request access snapshot the decision
// engine evaluates: the principal from the session plus the access
// record and access request fetched from the trading data API.
package access

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tradewatch/tradewatch/internal/authz"
	"github.com/tradewatch/tradewatch/internal/backend"
	"github.com/tradewatch/tradewatch/internal/logging"
	"github.com/tradewatch/tradewatch/internal/models"
)

// Backend is the slice of the data API client the loader needs.
type Backend interface {
	GetAccessRecord(ctx context.Context, principalID string) (*models.AccessRecord, error)
	GetAccessRequest(ctx context.Context, principalID string) (*models.AccessRequest, error)
}

// Loader fetches access state for principals and caches it briefly so a
// page navigation with several guarded requests hits the backend once.
type Loader struct {
	backend Backend
	ttl     time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	record    authz.RecordState
	request   authz.RequestState
	expiresAt time.Time
}

// NewLoader creates a snapshot loader with the given cache TTL. A zero
// TTL disables caching.
func NewLoader(b Backend, ttl time.Duration) *Loader {
	return &Loader{
		backend: b,
		ttl:     ttl,
		cache:   make(map[string]cacheEntry),
	}
}

// Load builds the access snapshot for a principal.
//
// Fail-closed semantics: a principal the backend has no record for gets
// a loaded nil record, which the engine treats as "no access". A backend
// outage, by contrast, leaves the state marked loading - the caller
// answers "try again shortly" instead of misrouting the principal to
// the request-access flow.
func (l *Loader) Load(ctx context.Context, principal models.Principal) authz.Snapshot {
	snapshot := authz.Snapshot{
		Session: authz.SessionState{Principal: principal},
	}

	// Anonymous principals have no access state to fetch; the engine
	// redirects them to login before the record matters.
	if !principal.Authenticated {
		return snapshot
	}

	if entry, ok := l.cached(principal.ID); ok {
		snapshot.Access = entry.record
		snapshot.Request = entry.request
		return snapshot
	}

	var wg sync.WaitGroup
	var record *models.AccessRecord
	var request *models.AccessRequest
	var recordErr, requestErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		record, recordErr = l.backend.GetAccessRecord(ctx, principal.ID)
	}()
	go func() {
		defer wg.Done()
		request, requestErr = l.backend.GetAccessRequest(ctx, principal.ID)
	}()
	wg.Wait()

	snapshot.Access = recordState(ctx, principal.ID, record, recordErr)
	snapshot.Request = requestState(ctx, principal.ID, request, requestErr)

	// Only fully loaded snapshots are cached; loading states retry on
	// the next request.
	if !snapshot.Access.Loading && !snapshot.Request.Loading {
		l.store(principal.ID, snapshot.Access, snapshot.Request)
	}

	return snapshot
}

func recordState(ctx context.Context, principalID string, record *models.AccessRecord, err error) authz.RecordState {
	switch {
	case err == nil:
		return authz.RecordState{Record: record}
	case errors.Is(err, backend.ErrNotFound):
		return authz.RecordState{}
	case errors.Is(err, backend.ErrUnavailable):
		logging.Ctx(ctx).Warn().Err(err).Str("principal_id", principalID).
			Msg("access record fetch unavailable")
		return authz.RecordState{Loading: true}
	default:
		logging.Ctx(ctx).Error().Err(err).Str("principal_id", principalID).
			Msg("access record fetch failed")
		return authz.RecordState{}
	}
}

func requestState(ctx context.Context, principalID string, request *models.AccessRequest, err error) authz.RequestState {
	switch {
	case err == nil:
		return authz.RequestState{Request: request}
	case errors.Is(err, backend.ErrNotFound):
		return authz.RequestState{}
	case errors.Is(err, backend.ErrUnavailable):
		logging.Ctx(ctx).Warn().Err(err).Str("principal_id", principalID).
			Msg("access request fetch unavailable")
		return authz.RequestState{Loading: true}
	default:
		logging.Ctx(ctx).Error().Err(err).Str("principal_id", principalID).
			Msg("access request fetch failed")
		return authz.RequestState{}
	}
}

// Invalidate drops the cached snapshot for a principal. Called after an
// administrator reviews or revokes so the next request sees fresh state.
func (l *Loader) Invalidate(principalID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.cache, principalID)
}

func (l *Loader) cached(principalID string) (cacheEntry, bool) {
	if l.ttl <= 0 {
		return cacheEntry{}, false
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	entry, ok := l.cache[principalID]
	if !ok || time.Now().After(entry.expiresAt) {
		return cacheEntry{}, false
	}
	return entry, true
}

func (l *Loader) store(principalID string, record authz.RecordState, request authz.RequestState) {
	if l.ttl <= 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache[principalID] = cacheEntry{
		record:    record,
		request:   request,
		expiresAt: time.Now().Add(l.ttl),
	}
}
