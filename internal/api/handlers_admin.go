// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

// handlers_admin.go - Access administration endpoints
//
// Review and revocation mutate access state held by the data API, so
// each mutation invalidates the snapshot cache and the enforcement cache
// for the affected principal. Revocation additionally evicts all of the
// principal's sessions: their next request starts unauthenticated.

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tradewatch/tradewatch/internal/features"
	"github.com/tradewatch/tradewatch/internal/logging"
	"github.com/tradewatch/tradewatch/internal/models"
	"github.com/tradewatch/tradewatch/internal/session"
)

// ListAccessRequests returns access requests, optionally filtered by
// status (?status=PENDING).
func (h *Handler) ListAccessRequests(w http.ResponseWriter, r *http.Request) {
	status := models.RequestStatus(r.URL.Query().Get("status"))
	requests, err := h.backend.ListAccessRequests(r.Context(), status)
	if err != nil {
		respondBackendError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, requests)
}

// ReviewAccessRequest approves or rejects a pending request. Approval
// materializes an AccessRecord in the data API seeded with the given
// role and preset.
func (h *Handler) ReviewAccessRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chi.URLParam(r, "id")

	var input models.ReviewInput
	if !h.decodeJSON(w, r, &input) {
		return
	}
	if input.Preset != "" && !features.IsValidPreset(features.Preset(input.Preset)) {
		respondError(w, r, http.StatusUnprocessableEntity, ErrCodeValidationFailed,
			"Unknown permission preset", map[string]string{"preset": input.Preset})
		return
	}

	reviewer := session.PrincipalFromContext(ctx)
	reviewed, err := h.backend.ReviewAccessRequest(ctx, requestID, reviewer.ID, input)
	if err != nil {
		respondBackendError(w, r, err)
		return
	}

	h.invalidateAccessState(reviewed.PrincipalID)

	logging.Ctx(ctx).Info().
		Str("request_id", requestID).
		Str("principal_id", reviewed.PrincipalID).
		Str("reviewer_id", reviewer.ID).
		Str("status", input.Status).
		Msg("access request reviewed")

	respondJSON(w, r, http.StatusOK, reviewed)
}

// ListAccessRecords returns all access records.
func (h *Handler) ListAccessRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.backend.ListAccessRecords(r.Context())
	if err != nil {
		respondBackendError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, records)
}

// recordPatch is the editable subset of an access record.
type recordPatch struct {
	Role        string             `json:"role" validate:"omitempty,oneof=viewer trader admin"`
	Preset      string             `json:"preset" validate:"omitempty"`
	Permissions []features.Feature `json:"permissions" validate:"omitempty,dive,min=1"`
}

// UpdateAccessRecord edits a record's role, preset, or explicit
// permission set.
func (h *Handler) UpdateAccessRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID := chi.URLParam(r, "id")

	var input recordPatch
	if !h.decodeJSON(w, r, &input) {
		return
	}
	if input.Preset != "" && !features.IsValidPreset(features.Preset(input.Preset)) {
		respondError(w, r, http.StatusUnprocessableEntity, ErrCodeValidationFailed,
			"Unknown permission preset", map[string]string{"preset": input.Preset})
		return
	}
	for _, f := range input.Permissions {
		if !features.IsValid(f) {
			respondError(w, r, http.StatusUnprocessableEntity, ErrCodeValidationFailed,
				"Unknown feature", map[string]string{"feature": f.String()})
			return
		}
	}

	patch := make(map[string]any)
	if input.Role != "" {
		patch["role"] = input.Role
	}
	if input.Preset != "" {
		patch["preset"] = input.Preset
	}
	if input.Permissions != nil {
		patch["permissions"] = input.Permissions
	}
	if len(patch) == 0 {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest,
			"Nothing to update", nil)
		return
	}

	updated, err := h.backend.UpdateAccessRecord(ctx, recordID, patch)
	if err != nil {
		respondBackendError(w, r, err)
		return
	}

	h.invalidateAccessState(updated.PrincipalID)

	logging.Ctx(ctx).Info().
		Str("record_id", recordID).
		Str("principal_id", updated.PrincipalID).
		Msg("access record updated")

	respondJSON(w, r, http.StatusOK, updated)
}

// RevokeAccess revokes a principal's access record and evicts every
// session they hold.
func (h *Handler) RevokeAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principalID := chi.URLParam(r, "principalID")

	revoked, err := h.backend.RevokeAccess(ctx, principalID)
	if err != nil {
		respondBackendError(w, r, err)
		return
	}

	h.invalidateAccessState(principalID)

	evicted, err := h.sessions.EvictPrincipal(ctx, principalID)
	if err != nil {
		// The record is already revoked; guards fail closed even if a
		// session lingers until its next snapshot refresh.
		logging.Ctx(ctx).Error().Err(err).
			Str("principal_id", principalID).
			Msg("failed to evict sessions after revocation")
	}

	logging.Ctx(ctx).Info().
		Str("principal_id", principalID).
		Int("sessions_evicted", evicted).
		Msg("access revoked")

	respondJSON(w, r, http.StatusOK, revoked)
}

// invalidateAccessState drops cached snapshots and enforcement decisions
// for a principal after their access state changed.
func (h *Handler) invalidateAccessState(principalID string) {
	if principalID == "" {
		return
	}
	h.loader.Invalidate(principalID)
	h.enforcer.InvalidateSubject(principalID)
}
