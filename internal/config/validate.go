// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// minSessionSecretLength is the minimum length for the session cookie
// signing secret in production.
const minSessionSecretLength = 32

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateOIDC(); err != nil {
		return err
	}

	if err := c.validateSession(); err != nil {
		return err
	}

	if err := c.validateBackend(); err != nil {
		return err
	}

	return c.validateLogging()
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.Server.Timeout)
	}
	if err := validateHTTPURL(c.Server.BaseURL, "BASE_URL"); err != nil {
		return err
	}

	switch strings.ToLower(c.Server.Environment) {
	case "development", "production":
		return nil
	default:
		return fmt.Errorf("ENVIRONMENT must be 'development' or 'production', got %q", c.Server.Environment)
	}
}

func (c *Config) validateOIDC() error {
	oidc := &c.Security.OIDC

	if oidc.IssuerURL == "" {
		return fmt.Errorf("OIDC_ISSUER_URL is required")
	}
	if err := validateHTTPURL(oidc.IssuerURL, "OIDC_ISSUER_URL"); err != nil {
		return err
	}
	if oidc.ClientID == "" {
		return fmt.Errorf("OIDC_CLIENT_ID is required")
	}
	if oidc.RedirectURL == "" {
		return fmt.Errorf("OIDC_REDIRECT_URL is required")
	}
	if err := validateHTTPURL(oidc.RedirectURL, "OIDC_REDIRECT_URL"); err != nil {
		return err
	}

	// Without PKCE the flow needs a client secret to authenticate.
	if !oidc.PKCEEnabled && oidc.ClientSecret == "" {
		return fmt.Errorf("OIDC_CLIENT_SECRET is required when OIDC_PKCE_ENABLED=false")
	}

	if !containsScope(oidc.Scopes, "openid") {
		return fmt.Errorf("OIDC_SCOPES must include 'openid'")
	}

	if oidc.GroupsClaim == "" {
		return fmt.Errorf("OIDC_GROUPS_CLAIM must not be empty")
	}

	return nil
}

func (c *Config) validateSession() error {
	sess := &c.Security.Session

	switch sess.Store {
	case "badger", "memory":
	default:
		return fmt.Errorf("SESSION_STORE must be 'badger' or 'memory', got %q", sess.Store)
	}

	if sess.Store == "badger" && sess.StorePath == "" {
		return fmt.Errorf("SESSION_STORE_PATH is required when SESSION_STORE=badger")
	}

	if sess.MaxAge < time.Minute {
		return fmt.Errorf("SESSION_MAX_AGE must be at least 1 minute, got %s", sess.MaxAge)
	}

	if sess.CookieName == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME must not be empty")
	}

	// Production requires a strong signing secret and secure cookies.
	if c.IsProduction() {
		if len(sess.Secret) < minSessionSecretLength {
			return fmt.Errorf("SESSION_SECRET must be at least %d characters in production", minSessionSecretLength)
		}
		if !sess.CookieSecure {
			return fmt.Errorf("SESSION_COOKIE_SECURE must be true in production")
		}
	}

	return nil
}

func (c *Config) validateBackend() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	if err := validateHTTPURL(c.Backend.BaseURL, "BACKEND_URL"); err != nil {
		return err
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must be positive, got %s", c.Backend.Timeout)
	}
	if c.IsProduction() && c.Backend.ServiceToken == "" {
		return fmt.Errorf("BACKEND_SERVICE_TOKEN is required in production")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal; got %q", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be 'json' or 'console', got %q", c.Logging.Format)
	}
}

// validateHTTPURL checks that the value is an absolute http(s) URL.
func validateHTTPURL(raw, name string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is invalid: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https scheme, got %q", name, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", name, raw)
	}
	return nil
}

func containsScope(scopes []string, want string) bool {
	for _, s := range scopes {
		if s == want {
			return true
		}
	}
	return false
}
