// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

// Package config loads and validates service configuration with layered
// sources: built-in defaults, an optional YAML file, and environment
// variables (highest priority).
package config

import "time"

// Config is the root configuration for the Tradewatch service.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Backend  BackendConfig  `koanf:"backend"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the listen address.
	Host string `koanf:"host"`

	// Port is the listen port.
	Port int `koanf:"port"`

	// Timeout is the read/write timeout for the HTTP server.
	Timeout time.Duration `koanf:"timeout"`

	// BaseURL is the externally visible URL of this service, used to
	// build absolute redirect URLs for the OIDC flow.
	BaseURL string `koanf:"base_url"`

	// Environment is "development" or "production".
	Environment string `koanf:"environment"`
}

// SecurityConfig holds authentication and authorization settings.
type SecurityConfig struct {
	// OIDC configures the identity-provider relying party.
	OIDC OIDCConfig `koanf:"oidc"`

	// Session configures the server-side session layer.
	Session SessionConfig `koanf:"session"`

	// Authz configures the RBAC enforcer.
	Authz AuthzConfig `koanf:"authz"`

	// RateLimitReqs is the per-IP request budget per window on auth routes.
	RateLimitReqs int `koanf:"rate_limit_reqs"`

	// RateLimitWindow is the rate-limit window.
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	// CORSOrigins are the allowed CORS origins for the JSON API.
	CORSOrigins []string `koanf:"cors_origins"`
}

// OIDCConfig configures the OIDC relying party for the identity provider.
type OIDCConfig struct {
	// IssuerURL is the identity provider's issuer URL.
	IssuerURL string `koanf:"issuer_url" validate:"required,url"`

	// ClientID is the OAuth 2.0 client identifier.
	ClientID string `koanf:"client_id" validate:"required"`

	// ClientSecret is the OAuth 2.0 client secret. Optional with PKCE.
	ClientSecret string `koanf:"client_secret"`

	// RedirectURL is the authorization callback URL.
	RedirectURL string `koanf:"redirect_url" validate:"required,url"`

	// Scopes are the OAuth 2.0 scopes to request.
	Scopes []string `koanf:"scopes"`

	// PKCEEnabled enables PKCE (RFC 7636).
	PKCEEnabled bool `koanf:"pkce_enabled"`

	// GroupsClaim is the token claim carrying group memberships.
	// Cognito issues "cognito:groups"; generic providers use "groups".
	GroupsClaim string `koanf:"groups_claim"`

	// AdminGroup is the IdP group whose members are administrators,
	// provisioned outside the access-request workflow.
	AdminGroup string `koanf:"admin_group"`

	// PostLogoutRedirectURI is where the IdP sends users after logout.
	PostLogoutRedirectURI string `koanf:"post_logout_redirect_uri"`
}

// SessionConfig configures server-side sessions.
type SessionConfig struct {
	// Store selects the session backend: "badger" or "memory".
	Store string `koanf:"store"`

	// StorePath is the Badger database directory.
	StorePath string `koanf:"store_path"`

	// MaxAge is the session lifetime.
	MaxAge time.Duration `koanf:"max_age"`

	// CookieName names the session cookie.
	CookieName string `koanf:"cookie_name"`

	// CookieSecure marks the session cookie Secure.
	CookieSecure bool `koanf:"cookie_secure"`

	// Secret signs the session cookie (HMAC-SHA256). Required in
	// production.
	Secret string `koanf:"secret"`

	// CleanupInterval is how often expired sessions are purged.
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// AuthzConfig configures the Casbin RBAC enforcer.
type AuthzConfig struct {
	// ModelPath overrides the embedded Casbin model.
	ModelPath string `koanf:"model_path"`

	// PolicyPath overrides the embedded policy.
	PolicyPath string `koanf:"policy_path"`

	// DefaultRole is assumed for principals without a role.
	DefaultRole string `koanf:"default_role"`

	// AutoReload enables policy auto-reload from PolicyPath.
	AutoReload bool `koanf:"auto_reload"`

	// ReloadInterval is how often to check for policy changes.
	ReloadInterval time.Duration `koanf:"reload_interval"`

	// CacheEnabled enables decision caching.
	CacheEnabled bool `koanf:"cache_enabled"`

	// CacheTTL is how long decisions are cached.
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// BackendConfig configures the client for the external data API.
type BackendConfig struct {
	// BaseURL is the data API's base URL.
	BaseURL string `koanf:"base_url" validate:"required,url"`

	// ServiceToken authenticates this service to the data API.
	ServiceToken string `koanf:"service_token"`

	// Timeout bounds each request to the data API.
	Timeout time.Duration `koanf:"timeout"`

	// BreakerMaxFailures opens the circuit after this many consecutive
	// failures.
	BreakerMaxFailures uint32 `koanf:"breaker_max_failures"`

	// BreakerOpenTimeout is how long the circuit stays open before
	// probing again.
	BreakerOpenTimeout time.Duration `koanf:"breaker_open_timeout"`

	// SnapshotCacheTTL is how long per-principal access snapshots are
	// served from cache between backend reads.
	SnapshotCacheTTL time.Duration `koanf:"snapshot_cache_ttl"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8484,
			Timeout:     30 * time.Second,
			BaseURL:     "http://localhost:8484",
			Environment: "development",
		},
		Security: SecurityConfig{
			OIDC: OIDCConfig{
				Scopes:                []string{"openid", "profile", "email"},
				PKCEEnabled:           true,
				GroupsClaim:           "cognito:groups",
				AdminGroup:            "admins",
				PostLogoutRedirectURI: "/",
			},
			Session: SessionConfig{
				Store:           "badger",
				StorePath:       "/data/sessions",
				MaxAge:          24 * time.Hour,
				CookieName:      "tradewatch_session",
				CookieSecure:    true,
				CleanupInterval: time.Hour,
			},
			Authz: AuthzConfig{
				DefaultRole:    "viewer",
				AutoReload:     true,
				ReloadInterval: 30 * time.Second,
				CacheEnabled:   true,
				CacheTTL:       5 * time.Minute,
			},
			RateLimitReqs:   20,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{},
		},
		Backend: BackendConfig{
			Timeout:            10 * time.Second,
			BreakerMaxFailures: 5,
			BreakerOpenTimeout: 30 * time.Second,
			SnapshotCacheTTL:   15 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
