// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

package api

import (
	"net/http"

	"github.com/tradewatch/tradewatch/internal/logging"
)

// Healthz reports liveness plus the reachability of the data API. The
// service stays healthy while the backend is down - guards fail closed
// and loading states cover the gap - so the status is informational,
// not a readiness gate.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	backendStatus := "up"
	if err := h.backend.Ping(r.Context()); err != nil {
		backendStatus = "down"
		logging.Ctx(r.Context()).Warn().Err(err).Msg("health check: data API unreachable")
	}

	respondJSON(w, r, http.StatusOK, map[string]any{
		"status":  "ok",
		"backend": backendStatus,
	})
}
