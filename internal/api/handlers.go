// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/tradewatch/tradewatch/internal/access"
	"github.com/tradewatch/tradewatch/internal/authz"
	"github.com/tradewatch/tradewatch/internal/backend"
	"github.com/tradewatch/tradewatch/internal/config"
	"github.com/tradewatch/tradewatch/internal/logging"
	"github.com/tradewatch/tradewatch/internal/models"
	"github.com/tradewatch/tradewatch/internal/session"
)

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 1 << 20 // 1 MB

// Handler holds the dependencies of all HTTP handlers.
type Handler struct {
	cfg      *config.Config
	sessions *session.Manager
	rp       *session.RelyingParty
	backend  *backend.Client
	loader   *access.Loader
	enforcer *authz.Enforcer
	validate *validator.Validate
}

// NewHandler creates the handler set.
func NewHandler(
	cfg *config.Config,
	sessions *session.Manager,
	rp *session.RelyingParty,
	backendClient *backend.Client,
	loader *access.Loader,
	enforcer *authz.Enforcer,
) *Handler {
	return &Handler{
		cfg:      cfg,
		sessions: sessions,
		rp:       rp,
		backend:  backendClient,
		loader:   loader,
		enforcer: enforcer,
		validate: validator.New(),
	}
}

// resolveSubject is the SubjectResolver for the Casbin API middleware.
// IdP admins act as admin regardless of their record; everyone else needs
// an approved record carrying a valid role. Unapproved principals get no
// API role at all.
func (h *Handler) resolveSubject(r *http.Request) (string, string, bool) {
	principal := session.PrincipalFromContext(r.Context())
	if !principal.Authenticated {
		return "", "", false
	}
	if principal.IdPAdmin {
		return principal.ID, models.RoleAdmin, true
	}

	snapshot := access.SnapshotFromContext(r.Context())
	record := snapshot.Access.Record
	if record.IsApproved() && models.IsValidRole(record.Role) {
		return principal.ID, record.Role, true
	}
	return "", "", false
}

// decodeJSON reads and validates a JSON request body into dst.
// Responds with an error envelope and returns false on failure.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer body.Close()

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body", nil)
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, ErrCodeValidationFailed,
			"Validation failed", validationDetails(err))
		return false
	}
	return true
}

// validationDetails flattens validator errors into field -> constraint.
func validationDetails(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return details
}

// respondBackendError maps data-API client errors to HTTP responses.
func respondBackendError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, backend.ErrNotFound):
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Resource not found", nil)

	case errors.Is(err, backend.ErrUnavailable):
		logging.Ctx(r.Context()).Warn().Err(err).
			Str("path", r.URL.Path).
			Msg("data API unavailable")
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable,
			"Trading data service temporarily unavailable", nil)

	default:
		logging.Ctx(r.Context()).Error().Err(err).
			Str("path", r.URL.Path).
			Msg("data API request failed")
		respondError(w, r, http.StatusBadGateway, ErrCodeUpstreamError,
			"Trading data service request failed", nil)
	}
}
