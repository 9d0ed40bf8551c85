// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

// handlers_auth.go - OIDC authorization-code flow
//
// Login sends the browser to the identity provider with a random state
// bound to a short-lived cookie; Callback verifies the state, exchanges
// the code, and establishes the server-side session. Logout destroys the
// session and, when the provider supports it, ends the IdP session too.

package api

import (
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tradewatch/tradewatch/internal/authz"
	"github.com/tradewatch/tradewatch/internal/logging"
	"github.com/tradewatch/tradewatch/internal/session"
)

const (
	// stateCookieName holds the in-flight authorization state.
	stateCookieName = "tradewatch_oauth_state"

	// stateCookieMaxAge bounds how long a login attempt may take.
	stateCookieMaxAge = 10 * time.Minute
)

// oauthState is the payload of the state cookie: the random state value
// plus where to land after a successful login.
type oauthState struct {
	State    string `json:"state"`
	ReturnTo string `json:"return_to,omitempty"`
}

// Login starts the authorization-code flow. An optional return_to query
// parameter (a local path) is carried through the state cookie so the
// principal lands back where a guard interrupted them.
//
// The signup, verify-email, and forgot-password pages route here as
// well: those flows live on the identity provider's hosted pages, which
// the authorization endpoint links to.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	// Already signed in: skip the IdP round trip.
	if session.PrincipalFromContext(r.Context()).Authenticated {
		http.Redirect(w, r, authz.PathApp, http.StatusSeeOther)
		return
	}

	state := oauthState{
		State:    uuid.New().String(),
		ReturnTo: localPath(r.URL.Query().Get("return_to")),
	}
	if err := h.setStateCookie(w, state); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to set state cookie")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError,
			"Could not start sign-in", nil)
		return
	}

	http.Redirect(w, r, h.rp.AuthURL(state.State), http.StatusFound)
}

// Callback completes the authorization-code flow: verify state, exchange
// the code, establish the session, and return to the original page.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state, ok := h.readStateCookie(r)
	h.clearStateCookie(w)

	if !ok || r.URL.Query().Get("state") != state.State {
		logging.Ctx(ctx).Warn().Msg("authorization state mismatch")
		http.Redirect(w, r, authz.PathLogin, http.StatusSeeOther)
		return
	}

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		logging.Ctx(ctx).Warn().
			Str("error", errParam).
			Str("description", r.URL.Query().Get("error_description")).
			Msg("identity provider returned an error")
		http.Redirect(w, r, authz.PathHome+"?login_error=true", http.StatusSeeOther)
		return
	}

	principal, idTokenHint, err := h.rp.Exchange(ctx, r.URL.Query().Get("code"))
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("code exchange failed")
		http.Redirect(w, r, authz.PathHome+"?login_error=true", http.StatusSeeOther)
		return
	}

	if _, err := h.sessions.Establish(ctx, w, principal, idTokenHint); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("failed to establish session")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError,
			"Could not establish session", nil)
		return
	}

	logging.Ctx(ctx).Info().
		Str("principal_id", principal.ID).
		Bool("idp_admin", principal.IdPAdmin).
		Msg("principal signed in")

	target := state.ReturnTo
	if target == "" {
		target = authz.PathApp
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Logout destroys the server-side session and sends the browser to the
// identity provider's end-session endpoint when one is configured, so
// the IdP session ends too.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	destroyed := h.sessions.Destroy(r.Context(), w, r)

	target := authz.PathHome
	if destroyed != nil {
		logging.Ctx(r.Context()).Info().
			Str("principal_id", destroyed.PrincipalID).
			Msg("principal signed out")
		if end := h.rp.EndSessionURL(destroyed.IDTokenHint); end != "" {
			target = end
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) setStateCookie(w http.ResponseWriter, state oauthState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    encodeCookieValue(payload),
		Path:     "/",
		MaxAge:   int(stateCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.Security.Session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (h *Handler) readStateCookie(r *http.Request) (oauthState, bool) {
	cookie, err := r.Cookie(stateCookieName)
	if err != nil {
		return oauthState{}, false
	}
	payload, err := decodeCookieValue(cookie.Value)
	if err != nil {
		return oauthState{}, false
	}
	var state oauthState
	if err := json.Unmarshal(payload, &state); err != nil || state.State == "" {
		return oauthState{}, false
	}
	return state, true
}

func (h *Handler) clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.Security.Session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func encodeCookieValue(payload []byte) string {
	return base64.RawURLEncoding.EncodeToString(payload)
}

func decodeCookieValue(value string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(value)
}

// localPath accepts only same-origin absolute paths, preventing open
// redirects through return_to.
func localPath(p string) string {
	if strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "/\\") {
		return p
	}
	return ""
}
