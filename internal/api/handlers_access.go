// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

// handlers_access.go - Access-request submission and the /me endpoint

package api

import (
	"net/http"

	"github.com/tradewatch/tradewatch/internal/access"
	"github.com/tradewatch/tradewatch/internal/logging"
	"github.com/tradewatch/tradewatch/internal/models"
	"github.com/tradewatch/tradewatch/internal/session"
)

// SubmitAccessRequest handles the onboarding application. One active
// request per principal: re-submission while a request exists conflicts,
// as does submission by an already-approved principal.
func (h *Handler) SubmitAccessRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := session.PrincipalFromContext(ctx)
	if !principal.Authenticated {
		respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized,
			"Sign in before requesting access", nil)
		return
	}

	snapshot := access.SnapshotFromContext(ctx)
	if snapshot.Access.Loading || snapshot.Request.Loading {
		w.Header().Set("Retry-After", "1")
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable,
			"Access state is still loading, retry shortly", nil)
		return
	}
	if snapshot.Access.Record.IsApproved() {
		respondError(w, r, http.StatusConflict, ErrCodeConflict,
			"Access is already approved", nil)
		return
	}
	if req := snapshot.Request.Request; req != nil && req.Status == models.RequestPending {
		respondError(w, r, http.StatusConflict, ErrCodeConflict,
			"An access request is already pending review", nil)
		return
	}

	var input models.AccessRequestInput
	if !h.decodeJSON(w, r, &input) {
		return
	}

	created, err := h.backend.CreateAccessRequest(ctx, principal.ID, input)
	if err != nil {
		respondBackendError(w, r, err)
		return
	}

	// The next snapshot must see the new request, not the cached absence.
	h.loader.Invalidate(principal.ID)

	logging.Ctx(ctx).Info().
		Str("principal_id", principal.ID).
		Str("request_id", created.ID).
		Msg("access request submitted")

	respondJSON(w, r, http.StatusCreated, created)
}

// Me returns the caller's identity and access state: principal, record,
// active request, and the effective feature permissions.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	snapshot := access.SnapshotFromContext(r.Context())
	record := snapshot.Access.Record

	respondJSON(w, r, http.StatusOK, map[string]any{
		"principal":   snapshot.Session.Principal,
		"record":      record,
		"request":     snapshot.Request.Request,
		"permissions": record.EffectivePermissions(),
	})
}
