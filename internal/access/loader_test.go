// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

package access

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tradewatch/tradewatch/internal/backend"
	"github.com/tradewatch/tradewatch/internal/models"
	"github.com/tradewatch/tradewatch/internal/session"
)

// stubBackend serves canned access state per principal.
type stubBackend struct {
	records    map[string]*models.AccessRecord
	requests   map[string]*models.AccessRequest
	recordErr  error
	requestErr error

	recordCalls  atomic.Int64
	requestCalls atomic.Int64
}

func (s *stubBackend) GetAccessRecord(_ context.Context, principalID string) (*models.AccessRecord, error) {
	s.recordCalls.Add(1)
	if s.recordErr != nil {
		return nil, s.recordErr
	}
	record, ok := s.records[principalID]
	if !ok {
		return nil, fmt.Errorf("%w: record", backend.ErrNotFound)
	}
	return record, nil
}

func (s *stubBackend) GetAccessRequest(_ context.Context, principalID string) (*models.AccessRequest, error) {
	s.requestCalls.Add(1)
	if s.requestErr != nil {
		return nil, s.requestErr
	}
	request, ok := s.requests[principalID]
	if !ok {
		return nil, fmt.Errorf("%w: request", backend.ErrNotFound)
	}
	return request, nil
}

func authedPrincipal(id string) models.Principal {
	return models.Principal{ID: id, Email: id + "@example.com", Authenticated: true}
}

func TestLoader_ApprovedPrincipal(t *testing.T) {
	stub := &stubBackend{
		records: map[string]*models.AccessRecord{
			"user-1": {PrincipalID: "user-1", Status: models.AccessApproved, Role: models.RoleTrader},
		},
	}
	loader := NewLoader(stub, time.Minute)

	snapshot := loader.Load(context.Background(), authedPrincipal("user-1"))

	if snapshot.Access.Loading || snapshot.Request.Loading {
		t.Error("expected loaded states")
	}
	if !snapshot.Access.Record.IsApproved() {
		t.Error("expected approved record")
	}
	if snapshot.Request.Request != nil {
		t.Error("expected no request")
	}
}

func TestLoader_UnknownPrincipalFailsClosed(t *testing.T) {
	loader := NewLoader(&stubBackend{}, time.Minute)

	snapshot := loader.Load(context.Background(), authedPrincipal("stranger"))

	if snapshot.Access.Loading || snapshot.Request.Loading {
		t.Error("not-found must resolve to loaded states")
	}
	if snapshot.Access.Record != nil || snapshot.Request.Request != nil {
		t.Error("expected nil record and request")
	}
}

func TestLoader_AnonymousSkipsBackend(t *testing.T) {
	stub := &stubBackend{}
	loader := NewLoader(stub, time.Minute)

	snapshot := loader.Load(context.Background(), models.Principal{})

	if snapshot.Session.Principal.Authenticated {
		t.Error("expected anonymous snapshot")
	}
	if stub.recordCalls.Load() != 0 || stub.requestCalls.Load() != 0 {
		t.Error("anonymous principal must not hit the backend")
	}
}

func TestLoader_UnavailableBackendMarksLoading(t *testing.T) {
	stub := &stubBackend{
		recordErr:  fmt.Errorf("%w: boom", backend.ErrUnavailable),
		requestErr: fmt.Errorf("%w: boom", backend.ErrUnavailable),
	}
	loader := NewLoader(stub, time.Minute)

	snapshot := loader.Load(context.Background(), authedPrincipal("user-1"))

	if !snapshot.Access.Loading || !snapshot.Request.Loading {
		t.Error("backend outage must mark states loading")
	}

	// Loading snapshots are not cached; the next request retries.
	loader.Load(context.Background(), authedPrincipal("user-1"))
	if stub.recordCalls.Load() != 2 {
		t.Errorf("record calls = %d, want 2", stub.recordCalls.Load())
	}
}

func TestLoader_OtherErrorFailsClosed(t *testing.T) {
	stub := &stubBackend{
		recordErr: fmt.Errorf("decode response: bad json"),
	}
	loader := NewLoader(stub, time.Minute)

	snapshot := loader.Load(context.Background(), authedPrincipal("user-1"))

	if snapshot.Access.Loading {
		t.Error("non-transient error must not mark loading")
	}
	if snapshot.Access.Record != nil {
		t.Error("non-transient error must yield nil record")
	}
}

func TestLoader_CachesWithinTTL(t *testing.T) {
	stub := &stubBackend{
		records: map[string]*models.AccessRecord{
			"user-1": {PrincipalID: "user-1", Status: models.AccessApproved},
		},
	}
	loader := NewLoader(stub, time.Minute)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		loader.Load(ctx, authedPrincipal("user-1"))
	}

	if stub.recordCalls.Load() != 1 {
		t.Errorf("record calls = %d, want 1 (cached)", stub.recordCalls.Load())
	}
}

func TestLoader_InvalidateForcesRefresh(t *testing.T) {
	stub := &stubBackend{
		records: map[string]*models.AccessRecord{
			"user-1": {PrincipalID: "user-1", Status: models.AccessApproved},
		},
	}
	loader := NewLoader(stub, time.Minute)
	ctx := context.Background()

	loader.Load(ctx, authedPrincipal("user-1"))

	// Revocation invalidates; the next load must observe the new status.
	stub.records["user-1"] = &models.AccessRecord{PrincipalID: "user-1", Status: models.AccessRevoked}
	loader.Invalidate("user-1")

	snapshot := loader.Load(ctx, authedPrincipal("user-1"))
	if !snapshot.Access.Record.IsRevoked() {
		t.Error("expected revoked record after invalidation")
	}
	if stub.recordCalls.Load() != 2 {
		t.Errorf("record calls = %d, want 2", stub.recordCalls.Load())
	}
}

func TestLoader_ZeroTTLDisablesCache(t *testing.T) {
	stub := &stubBackend{}
	loader := NewLoader(stub, 0)
	ctx := context.Background()

	loader.Load(ctx, authedPrincipal("user-1"))
	loader.Load(ctx, authedPrincipal("user-1"))

	if stub.recordCalls.Load() != 2 {
		t.Errorf("record calls = %d, want 2 with caching disabled", stub.recordCalls.Load())
	}
}

func TestMiddleware_AttachesSnapshot(t *testing.T) {
	stub := &stubBackend{
		records: map[string]*models.AccessRecord{
			"user-1": {PrincipalID: "user-1", Status: models.AccessApproved},
		},
	}
	loader := NewLoader(stub, time.Minute)

	var sawApproved bool
	handler := Middleware(loader)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snapshot := SnapshotFromContext(r.Context())
		sawApproved = snapshot.Access.Record.IsApproved()
	}))

	r := httptest.NewRequest(http.MethodGet, "/app", nil)
	ctx := session.ContextWithPrincipal(r.Context(), authedPrincipal("user-1"))
	handler.ServeHTTP(httptest.NewRecorder(), r.WithContext(ctx))

	if !sawApproved {
		t.Error("expected approved record in context snapshot")
	}
}

func TestSnapshotFromContext_Missing(t *testing.T) {
	snapshot := SnapshotFromContext(context.Background())
	if snapshot.Session.Principal.Authenticated {
		t.Error("missing snapshot must be anonymous")
	}
	if snapshot.Access.Loading || snapshot.Request.Loading {
		t.Error("missing snapshot must be fully loaded")
	}
}
