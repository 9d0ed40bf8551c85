// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

// handlers_pages.go - Page-state endpoints
//
// The dashboard frontend is a thin shell: each page asks the service for
// its state as JSON and renders client-side. These handlers answer those
// page-state requests. The guarded ones only run once the route guards
// have allowed the request through.

package api

import (
	"net/http"

	"github.com/tradewatch/tradewatch/internal/access"
	"github.com/tradewatch/tradewatch/internal/features"
	"github.com/tradewatch/tradewatch/internal/models"
	"github.com/tradewatch/tradewatch/internal/session"
)

// Home answers the public landing page state.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	principal := session.PrincipalFromContext(r.Context())
	respondJSON(w, r, http.StatusOK, map[string]any{
		"authenticated": principal.Authenticated,
		"email":         principal.Email,
		"idp_admin":     principal.IdPAdmin,
	})
}

// RequestAccessState answers the request-access page. An applicant whose
// request was approved but whose record has not materialized yet sees a
// finalizing notice instead of the submission form.
func (h *Handler) RequestAccessState(w http.ResponseWriter, r *http.Request) {
	snapshot := access.SnapshotFromContext(r.Context())
	principal := snapshot.Session.Principal

	var requestStatus models.RequestStatus
	if req := snapshot.Request.Request; req != nil {
		requestStatus = req.Status
	}

	finalizing := requestStatus == models.RequestApproved && snapshot.Access.Record == nil

	respondJSON(w, r, http.StatusOK, map[string]any{
		"authenticated":  principal.Authenticated,
		"email":          principal.Email,
		"request_status": requestStatus,
		"finalizing":     finalizing,
		"can_submit":     principal.Authenticated && requestStatus == "",
	})
}

// PendingApproval answers the pending-approval page with the current
// review state of the principal's request.
func (h *Handler) PendingApproval(w http.ResponseWriter, r *http.Request) {
	snapshot := access.SnapshotFromContext(r.Context())

	data := map[string]any{
		"authenticated": snapshot.Session.Principal.Authenticated,
	}
	if req := snapshot.Request.Request; req != nil {
		data["request_status"] = req.Status
		data["review_notes"] = req.ReviewNotes
		data["submitted_at"] = req.CreatedAt
	}
	respondJSON(w, r, http.StatusOK, data)
}

// FeaturePage answers a guarded feature page with its registry metadata.
// The feature guard has already allowed the request, so the handler only
// describes what to render.
func (h *Handler) FeaturePage(f features.Feature) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, _ := features.Lookup(f)
		principal := session.PrincipalFromContext(r.Context())
		respondJSON(w, r, http.StatusOK, map[string]any{
			"feature":     f,
			"name":        info.Name,
			"description": info.Description,
			"category":    info.Category,
			"email":       principal.Email,
		})
	}
}

// AdminHome answers the admin area shell with the pending review queue
// size.
func (h *Handler) AdminHome(w http.ResponseWriter, r *http.Request) {
	pending, err := h.backend.ListAccessRequests(r.Context(), models.RequestPending)
	if err != nil {
		respondBackendError(w, r, err)
		return
	}

	principal := session.PrincipalFromContext(r.Context())
	respondJSON(w, r, http.StatusOK, map[string]any{
		"email":            principal.Email,
		"pending_requests": len(pending),
	})
}
