// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/tradewatch/config.yaml",
	"/etc/tradewatch/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load builds the configuration from layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables
	// Env names map to koanf paths via an explicit table, e.g.
	// OIDC_ISSUER_URL -> security.oidc.issuer_url
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Env vars arrive as strings; split comma-separated slice fields.
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file that exists, checking the
// CONFIG_PATH env var before the default search paths.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths are parsed as
// comma-separated slices when sourced from env vars.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.oidc.scopes",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from YAML): leave as-is.
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf
// config paths. Unmapped variables are ignored so that unrelated
// environment noise never reaches the config.
var envMappings = map[string]string{
	// Server
	"http_host":    "server.host",
	"http_port":    "server.port",
	"http_timeout": "server.timeout",
	"base_url":     "server.base_url",
	"environment":  "server.environment",

	// OIDC
	"oidc_issuer_url":               "security.oidc.issuer_url",
	"oidc_client_id":                "security.oidc.client_id",
	"oidc_client_secret":            "security.oidc.client_secret",
	"oidc_redirect_url":             "security.oidc.redirect_url",
	"oidc_scopes":                   "security.oidc.scopes",
	"oidc_pkce_enabled":             "security.oidc.pkce_enabled",
	"oidc_groups_claim":             "security.oidc.groups_claim",
	"oidc_admin_group":              "security.oidc.admin_group",
	"oidc_post_logout_redirect_uri": "security.oidc.post_logout_redirect_uri",

	// Session
	"session_store":            "security.session.store",
	"session_store_path":       "security.session.store_path",
	"session_max_age":          "security.session.max_age",
	"session_cookie_name":      "security.session.cookie_name",
	"session_cookie_secure":    "security.session.cookie_secure",
	"session_secret":           "security.session.secret",
	"session_cleanup_interval": "security.session.cleanup_interval",

	// Authz
	"authz_model_path":      "security.authz.model_path",
	"authz_policy_path":     "security.authz.policy_path",
	"authz_default_role":    "security.authz.default_role",
	"authz_auto_reload":     "security.authz.auto_reload",
	"authz_reload_interval": "security.authz.reload_interval",
	"authz_cache_enabled":   "security.authz.cache_enabled",
	"authz_cache_ttl":       "security.authz.cache_ttl",

	// Rate limiting and CORS
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"cors_origins":        "security.cors_origins",

	// Backend data API
	"backend_url":                  "backend.base_url",
	"backend_service_token":        "backend.service_token",
	"backend_timeout":              "backend.timeout",
	"backend_breaker_max_failures": "backend.breaker_max_failures",
	"backend_breaker_open_timeout": "backend.breaker_open_timeout",
	"backend_snapshot_cache_ttl":   "backend.snapshot_cache_ttl",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config
// paths. Unmapped keys return "" and are skipped.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
