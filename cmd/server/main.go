// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

// Package main is the entry point for the Tradewatch server.
//
// Tradewatch is the backend-for-frontend of a trading-intelligence
// dashboard. It authenticates browser users against an OIDC identity
// provider, maintains server-side sessions, decides per-route and
// per-feature access (approval workflow, roles, permission presets), and
// proxies trade and screening data from an external managed data API.
//
// # Initialization order
//
//  1. Configuration: Koanf v2 layered sources (defaults, config.yaml,
//     environment variables)
//  2. Logging: zerolog, JSON or console format
//  3. Session store: BadgerDB (or in-memory) plus the signed cookie codec
//  4. OIDC relying party: issuer discovery, PKCE authorization-code flow
//  5. Data API client: circuit-broken HTTP client for the trading backend
//  6. RBAC enforcer: Casbin with embedded model and policy
//  7. HTTP server: chi router with route guards and the JSON API
//
// # Configuration
//
// Required environment: OIDC_ISSUER_URL, OIDC_CLIENT_ID,
// OIDC_REDIRECT_URL, BACKEND_URL. Production additionally requires
// SESSION_SECRET (32+ characters) and BACKEND_SERVICE_TOKEN. See
// internal/config for the full key set.
//
// # Signal handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the listener stops
// accepting connections, in-flight requests get 10 seconds to complete,
// then the session store and enforcer are closed.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tradewatch/tradewatch/internal/access"
	"github.com/tradewatch/tradewatch/internal/api"
	"github.com/tradewatch/tradewatch/internal/authz"
	"github.com/tradewatch/tradewatch/internal/backend"
	"github.com/tradewatch/tradewatch/internal/config"
	"github.com/tradewatch/tradewatch/internal/logging"
	"github.com/tradewatch/tradewatch/internal/session"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config is not available yet; use the default logger.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("issuer", cfg.Security.OIDC.IssuerURL).
		Str("backend", cfg.Backend.BaseURL).
		Str("session_store", cfg.Security.Session.Store).
		Msg("Starting Tradewatch")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Session layer: server-side store plus the signed cookie codec.
	storeFactory, err := session.NewStoreFactory(
		session.StoreType(cfg.Security.Session.Store), cfg.Security.Session.StorePath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open session store")
	}
	defer func() {
		if err := storeFactory.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing session store")
		}
	}()

	store := storeFactory.CreateStore()
	session.StartCleanupRoutine(ctx, store, cfg.Security.Session.CleanupInterval)

	codec := session.NewCookieCodec(
		cfg.Security.Session.CookieName,
		cfg.Security.Session.Secret,
		cfg.Security.Session.CookieSecure,
		cfg.Security.Session.MaxAge,
	)
	sessions := session.NewManager(store, codec, cfg.Security.Session.MaxAge)
	logging.Info().Str("store", cfg.Security.Session.Store).Msg("Session layer initialized")

	// OIDC relying party. Discovery needs the issuer reachable at boot.
	rpConfig := &session.RelyingPartyConfig{
		IssuerURL:             cfg.Security.OIDC.IssuerURL,
		ClientID:              cfg.Security.OIDC.ClientID,
		ClientSecret:          cfg.Security.OIDC.ClientSecret,
		RedirectURL:           cfg.Security.OIDC.RedirectURL,
		Scopes:                cfg.Security.OIDC.Scopes,
		PKCEEnabled:           cfg.Security.OIDC.PKCEEnabled,
		GroupsClaim:           cfg.Security.OIDC.GroupsClaim,
		AdminGroup:            cfg.Security.OIDC.AdminGroup,
		PostLogoutRedirectURI: cfg.Security.OIDC.PostLogoutRedirectURI,
	}
	rp, err := session.NewRelyingParty(ctx, rpConfig)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize OIDC relying party")
	}
	logging.Info().Str("issuer", cfg.Security.OIDC.IssuerURL).Msg("OIDC relying party ready")

	// Data API client and the snapshot loader on top of it.
	backendClient := backend.NewClient(backend.Config{
		BaseURL:            cfg.Backend.BaseURL,
		ServiceToken:       cfg.Backend.ServiceToken,
		Timeout:            cfg.Backend.Timeout,
		BreakerMaxFailures: cfg.Backend.BreakerMaxFailures,
		BreakerOpenTimeout: cfg.Backend.BreakerOpenTimeout,
	})
	if err := backendClient.Ping(ctx); err != nil {
		// Not fatal: guards fail closed and the breaker retries.
		logging.Warn().Err(err).Msg("Data API unreachable at startup (will retry)")
	}
	loader := access.NewLoader(backendClient, cfg.Backend.SnapshotCacheTTL)

	// RBAC enforcer for the JSON API.
	enforcer, err := authz.NewEnforcer(ctx, &authz.EnforcerConfig{
		ModelPath:      cfg.Security.Authz.ModelPath,
		PolicyPath:     cfg.Security.Authz.PolicyPath,
		AutoReload:     cfg.Security.Authz.AutoReload,
		ReloadInterval: cfg.Security.Authz.ReloadInterval,
		DefaultRole:    cfg.Security.Authz.DefaultRole,
		CacheEnabled:   cfg.Security.Authz.CacheEnabled,
		CacheTTL:       cfg.Security.Authz.CacheTTL,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize RBAC enforcer")
	}
	defer enforcer.Close()

	handler := api.NewHandler(cfg, sessions, rp, backendClient, loader, enforcer)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(handler),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("HTTP server error")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Graceful shutdown failed")
	}
	cancel()

	logging.Info().Msg("Tradewatch stopped gracefully")
}
