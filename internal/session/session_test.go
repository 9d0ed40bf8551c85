// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tradewatch/tradewatch/internal/models"
)

func testPrincipal(id string) models.Principal {
	return models.Principal{
		ID:            id,
		Email:         id + "@example.com",
		Authenticated: true,
		Groups:        []string{"traders"},
	}
}

func TestNew_PopulatesSession(t *testing.T) {
	principal := testPrincipal("user-1")
	principal.IdPAdmin = true

	sess := New(principal, "id-token", time.Hour)

	if sess.ID == "" {
		t.Error("expected generated session ID")
	}
	if sess.PrincipalID != "user-1" {
		t.Errorf("PrincipalID = %q, want user-1", sess.PrincipalID)
	}
	if !sess.IdPAdmin {
		t.Error("expected IdPAdmin carried into session")
	}
	if sess.IDTokenHint != "id-token" {
		t.Errorf("IDTokenHint = %q", sess.IDTokenHint)
	}
	if sess.IsExpired() {
		t.Error("fresh session must not be expired")
	}

	// Round-trip back to a principal.
	got := sess.Principal()
	if !got.Authenticated {
		t.Error("session principal must be authenticated")
	}
	if got.ID != principal.ID || got.Email != principal.Email {
		t.Errorf("principal = %+v, want %+v", got, principal)
	}
	if !got.InGroup("traders") {
		t.Error("groups lost in round trip")
	}
}

func TestNew_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		sess := New(testPrincipal("user-1"), "", time.Hour)
		if seen[sess.ID] {
			t.Fatalf("duplicate session ID %s", sess.ID)
		}
		seen[sess.ID] = true
	}
}

func TestMemoryStore_CreateGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	sess := New(testPrincipal("user-1"), "", time.Hour)
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.PrincipalID != "user-1" {
		t.Errorf("PrincipalID = %q, want user-1", got.PrincipalID)
	}

	// The store must return a copy.
	got.Groups[0] = "mutated"
	again, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if again.Groups[0] != "traders" {
		t.Error("store returned a shared slice")
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), "nope")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestMemoryStore_GetExpired(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	sess := New(testPrincipal("user-1"), "", -time.Minute)
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	_, err := store.Get(ctx, sess.ID)
	if !errors.Is(err, ErrSessionExpired) {
		t.Errorf("err = %v, want ErrSessionExpired", err)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	sess := New(testPrincipal("user-1"), "", time.Hour)
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound after delete", err)
	}

	// Deleting again is not an error.
	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Errorf("Delete() of absent session: %v", err)
	}
}

func TestMemoryStore_DeleteByPrincipalID(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for i := 0; i < 3; i++ {
		if err := store.Create(ctx, New(testPrincipal("user-1"), "", time.Hour)); err != nil {
			t.Fatalf("Create() error: %v", err)
		}
	}
	other := New(testPrincipal("user-2"), "", time.Hour)
	if err := store.Create(ctx, other); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	count, err := store.DeleteByPrincipalID(ctx, "user-1")
	if err != nil {
		t.Fatalf("DeleteByPrincipalID() error: %v", err)
	}
	if count != 3 {
		t.Errorf("deleted %d sessions, want 3", count)
	}

	if _, err := store.Get(ctx, other.ID); err != nil {
		t.Errorf("other principal's session should survive: %v", err)
	}
}

func TestMemoryStore_Touch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	sess := New(testPrincipal("user-1"), "", time.Minute)
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	newExpiry := time.Now().Add(2 * time.Hour)
	if err := store.Touch(ctx, sess.ID, newExpiry); err != nil {
		t.Fatalf("Touch() error: %v", err)
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !got.ExpiresAt.Equal(newExpiry) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, newExpiry)
	}

	if err := store.Touch(ctx, "missing", newExpiry); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Touch missing = %v, want ErrSessionNotFound", err)
	}
}

func TestMemoryStore_CleanupExpired(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	live := New(testPrincipal("user-1"), "", time.Hour)
	dead := New(testPrincipal("user-2"), "", -time.Minute)
	for _, s := range []*Session{live, dead} {
		if err := store.Create(ctx, s); err != nil {
			t.Fatalf("Create() error: %v", err)
		}
	}

	count, err := store.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired() error: %v", err)
	}
	if count != 1 {
		t.Errorf("cleaned %d sessions, want 1", count)
	}
	if _, err := store.Get(ctx, live.ID); err != nil {
		t.Errorf("live session should survive cleanup: %v", err)
	}
}
