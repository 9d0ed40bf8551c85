// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tradewatch/tradewatch/internal/access"
	"github.com/tradewatch/tradewatch/internal/authz"
	"github.com/tradewatch/tradewatch/internal/features"
	"github.com/tradewatch/tradewatch/internal/guard"
	"github.com/tradewatch/tradewatch/internal/middleware"
)

// NewRouter builds the full route tree.
//
// Middleware order matters: the session middleware must precede the
// access middleware (the snapshot needs the principal), and both must
// precede every guard and API handler.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders(h.cfg.IsProduction()))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.PrometheusMetrics)
	r.Use(h.sessions.Middleware)
	r.Use(access.Middleware(h.loader))

	// Public pages.
	r.Get("/", h.Home)
	r.Get("/request-access", h.RequestAccessState)
	r.Post("/request-access", h.SubmitAccessRequest)
	r.Get("/pending-approval", h.PendingApproval)

	// Authentication flow, rate limited per IP against abuse.
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(h.cfg.Security.RateLimitReqs, h.cfg.Security.RateLimitWindow))

		r.Get("/login", h.Login)
		r.Get("/auth/callback", h.Callback)
		r.Get("/logout", h.Logout)
		r.Post("/logout", h.Logout)

		// Signup, verification, and password recovery live on the
		// identity provider's hosted pages, reached via the
		// authorization endpoint.
		r.Get("/signup", h.Login)
		r.Get("/verify-email", h.Login)
		r.Get("/forgot-password", h.Login)
	})

	// Guarded application area: the general guard wraps the whole tree,
	// each page additionally carries its feature guard.
	r.Route("/app", func(r chi.Router) {
		r.Use(guard.General())

		r.With(guard.Feature(features.FeatureDashboard)).Get("/", h.FeaturePage(features.FeatureDashboard))
		r.With(guard.Feature(features.FeatureAIScreener)).Get("/screener", h.FeaturePage(features.FeatureAIScreener))
		r.With(guard.Feature(features.FeatureScreeningResults)).Get("/screener/results", h.FeaturePage(features.FeatureScreeningResults))
		r.With(guard.Feature(features.FeatureOpenTrades)).Get("/trades/open", h.FeaturePage(features.FeatureOpenTrades))
		r.With(guard.Feature(features.FeatureTradeHistory)).Get("/trades/history", h.FeaturePage(features.FeatureTradeHistory))
		r.With(guard.Feature(features.FeatureSuggestions)).Get("/suggestions", h.FeaturePage(features.FeatureSuggestions))
		r.With(guard.Feature(features.FeatureAnalytics)).Get("/analytics", h.FeaturePage(features.FeatureAnalytics))
		r.With(guard.Feature(features.FeatureSettings)).Get("/settings", h.FeaturePage(features.FeatureSettings))
	})

	// Admin area.
	r.Route("/admin", func(r chi.Router) {
		r.Use(guard.Admin())
		r.Get("/", h.AdminHome)
	})

	// JSON API, role-enforced per method.
	rbac := authz.NewMiddleware(h.enforcer, h.resolveSubject)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rbac.AuthorizeRequest)

		r.Get("/me", h.Me)

		r.Route("/trades", func(r chi.Router) {
			r.Get("/", h.ListTrades)
			r.Post("/", h.CreateTrade)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetTrade)
				r.Put("/", h.UpdateTrade)
				r.Post("/close", h.CloseTrade)
				r.Delete("/", h.DeleteTrade)
			})
		})

		r.Route("/screening-results", func(r chi.Router) {
			r.Get("/", h.ListScreeningResults)
			r.Get("/{id}", h.GetScreeningResult)
		})

		r.Route("/access", func(r chi.Router) {
			r.Get("/requests", h.ListAccessRequests)
			r.Post("/requests/{id}/review", h.ReviewAccessRequest)
			r.Get("/records", h.ListAccessRecords)
			r.Patch("/records/{id}", h.UpdateAccessRecord)
			r.Post("/records/{principalID}/revoke", h.RevokeAccess)
		})
	})

	// Operational endpoints.
	r.Get("/healthz", h.Healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Unmatched paths land on the public home page.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, authz.PathHome, http.StatusSeeOther)
	})

	return r
}
