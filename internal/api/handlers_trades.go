// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

// handlers_trades.go - Trade and screening-result proxy endpoints
//
// The Casbin middleware has already checked the caller's role against
// the method; these handlers add ownership: non-admins only ever see and
// mutate their own trade records. Foreign trades answer 404, not 403, so
// record existence does not leak.

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tradewatch/tradewatch/internal/access"
	"github.com/tradewatch/tradewatch/internal/backend"
	"github.com/tradewatch/tradewatch/internal/models"
	"github.com/tradewatch/tradewatch/internal/session"
)

// defaultListLimit bounds list responses when the client does not ask
// for a specific page size.
const defaultListLimit = 100

// ListTrades returns the caller's trades, filtered by ?status= and
// bounded by ?limit=. Admins may pass ?owner_id= to inspect another
// principal's trades, or ?all=true for every record.
func (h *Handler) ListTrades(w http.ResponseWriter, r *http.Request) {
	principal := session.PrincipalFromContext(r.Context())

	filter := backend.TradeFilter{
		OwnerID: principal.ID,
		Status:  models.TradeStatus(r.URL.Query().Get("status")),
		Limit:   queryLimit(r),
	}
	if h.callerIsAdmin(r) {
		if owner := r.URL.Query().Get("owner_id"); owner != "" {
			filter.OwnerID = owner
		} else if r.URL.Query().Get("all") == "true" {
			filter.OwnerID = ""
		}
	}

	trades, err := h.backend.ListTrades(r.Context(), filter)
	if err != nil {
		respondBackendError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, trades)
}

// CreateTrade opens a new trade record owned by the caller.
func (h *Handler) CreateTrade(w http.ResponseWriter, r *http.Request) {
	var input models.TradeInput
	if !h.decodeJSON(w, r, &input) {
		return
	}

	principal := session.PrincipalFromContext(r.Context())
	trade, err := h.backend.CreateTrade(r.Context(), principal.ID, input)
	if err != nil {
		respondBackendError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, trade)
}

// GetTrade returns a single trade the caller owns.
func (h *Handler) GetTrade(w http.ResponseWriter, r *http.Request) {
	trade, ok := h.ownedTrade(w, r)
	if !ok {
		return
	}
	respondJSON(w, r, http.StatusOK, trade)
}

// UpdateTrade replaces the mutable fields of an open trade.
func (h *Handler) UpdateTrade(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.ownedTrade(w, r); !ok {
		return
	}

	var input models.TradeInput
	if !h.decodeJSON(w, r, &input) {
		return
	}

	updated, err := h.backend.UpdateTrade(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		respondBackendError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, updated)
}

// closeTradeInput is the payload for closing a trade.
type closeTradeInput struct {
	ExitPrice float64 `json:"exit_price" validate:"required,gt=0"`
}

// CloseTrade closes an open trade at the given exit price.
func (h *Handler) CloseTrade(w http.ResponseWriter, r *http.Request) {
	trade, ok := h.ownedTrade(w, r)
	if !ok {
		return
	}
	if trade.Status == models.TradeClosed {
		respondError(w, r, http.StatusConflict, ErrCodeConflict,
			"Trade is already closed", nil)
		return
	}

	var input closeTradeInput
	if !h.decodeJSON(w, r, &input) {
		return
	}

	closed, err := h.backend.CloseTrade(r.Context(), trade.ID, input.ExitPrice)
	if err != nil {
		respondBackendError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, closed)
}

// DeleteTrade removes a trade record.
func (h *Handler) DeleteTrade(w http.ResponseWriter, r *http.Request) {
	trade, ok := h.ownedTrade(w, r)
	if !ok {
		return
	}
	if err := h.backend.DeleteTrade(r.Context(), trade.ID); err != nil {
		respondBackendError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"deleted": trade.ID})
}

// ListScreeningResults returns stored screening output, newest first.
func (h *Handler) ListScreeningResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.backend.ListScreeningResults(r.Context(), queryLimit(r))
	if err != nil {
		respondBackendError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, results)
}

// GetScreeningResult returns a single screening result.
func (h *Handler) GetScreeningResult(w http.ResponseWriter, r *http.Request) {
	result, err := h.backend.GetScreeningResult(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondBackendError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, result)
}

// ownedTrade fetches the trade from the path and enforces ownership.
// Writes the error response and returns false when the caller may not
// touch it.
func (h *Handler) ownedTrade(w http.ResponseWriter, r *http.Request) (*models.Trade, bool) {
	trade, err := h.backend.GetTrade(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondBackendError(w, r, err)
		return nil, false
	}

	principal := session.PrincipalFromContext(r.Context())
	if trade.OwnerID != principal.ID && !h.callerIsAdmin(r) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Resource not found", nil)
		return nil, false
	}
	return trade, true
}

// callerIsAdmin reports whether the caller acts with the admin role.
func (h *Handler) callerIsAdmin(r *http.Request) bool {
	principal := session.PrincipalFromContext(r.Context())
	if principal.IdPAdmin {
		return true
	}
	record := access.SnapshotFromContext(r.Context()).Access.Record
	return record.IsApproved() && record.Role == models.RoleAdmin
}

// queryLimit parses ?limit= with a sane default and cap.
func queryLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > 1000 {
		return defaultListLimit
	}
	return limit
}
