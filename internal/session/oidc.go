// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

package session

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/zitadel/oidc/v3/pkg/client/rp"
	"github.com/zitadel/oidc/v3/pkg/oidc"

	"github.com/tradewatch/tradewatch/internal/models"
)

// RelyingPartyConfig configures the OIDC relying party. The identity
// provider owns signup, email verification, and password reset; this
// service only consumes the resulting tokens.
type RelyingPartyConfig struct {
	// IssuerURL is the OIDC provider's issuer URL. Must match the 'iss'
	// claim in tokens.
	IssuerURL string

	// ClientID is the OAuth 2.0 client identifier.
	ClientID string

	// ClientSecret is optional for public clients using PKCE.
	ClientSecret string

	// RedirectURL is the authorization callback URL registered with the
	// provider.
	RedirectURL string

	// Scopes are the OAuth 2.0 scopes to request. Must include "openid".
	Scopes []string

	// PKCEEnabled enables PKCE (RFC 7636).
	PKCEEnabled bool

	// GroupsClaim is the token claim carrying group memberships.
	GroupsClaim string

	// AdminGroup marks principals in this IdP group as administrators.
	AdminGroup string

	// PostLogoutRedirectURI is where the IdP sends users after logout.
	PostLogoutRedirectURI string

	// HTTPClient is the HTTP client for OIDC requests. Defaults to a
	// client with a 30s timeout.
	HTTPClient *http.Client
}

// SetDefaults applies default values to unset fields.
func (c *RelyingPartyConfig) SetDefaults() {
	if len(c.Scopes) == 0 {
		c.Scopes = []string{"openid", "profile", "email"}
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if c.GroupsClaim == "" {
		c.GroupsClaim = "groups"
	}
	if c.PostLogoutRedirectURI == "" {
		c.PostLogoutRedirectURI = "/"
	}
}

// Validate checks required fields.
func (c *RelyingPartyConfig) Validate() error {
	if c.IssuerURL == "" {
		return fmt.Errorf("issuer_url is required")
	}
	if c.ClientID == "" {
		return fmt.Errorf("client_id is required")
	}
	if c.RedirectURL == "" {
		return fmt.Errorf("redirect_url is required")
	}

	hasOpenID := false
	for _, scope := range c.Scopes {
		if scope == "openid" {
			hasOpenID = true
			break
		}
	}
	if !hasOpenID && len(c.Scopes) > 0 {
		return fmt.Errorf("scopes must include 'openid'")
	}

	return nil
}

// RelyingParty wraps the certified zitadel/oidc relying party and maps
// token claims to principals.
type RelyingParty struct {
	rp     rp.RelyingParty
	config *RelyingPartyConfig
}

// NewRelyingParty creates the relying party. OIDC discovery runs against
// the issuer, so the context should carry a timeout.
func NewRelyingParty(ctx context.Context, config *RelyingPartyConfig) (*RelyingParty, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	cfg := *config
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	options := []rp.Option{
		rp.WithHTTPClient(cfg.HTTPClient),
	}
	if cfg.PKCEEnabled {
		options = append(options, rp.WithPKCE(nil))
	}

	relyingParty, err := rp.NewRelyingPartyOIDC(ctx,
		cfg.IssuerURL,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.RedirectURL,
		cfg.Scopes,
		options...,
	)
	if err != nil {
		return nil, fmt.Errorf("create relying party: %w", err)
	}

	return &RelyingParty{
		rp:     relyingParty,
		config: &cfg,
	}, nil
}

// RelyingParty returns the underlying zitadel relying party.
func (p *RelyingParty) RelyingParty() rp.RelyingParty {
	return p.rp
}

// AuthURL returns the authorization URL that starts the login flow for
// the given state.
func (p *RelyingParty) AuthURL(state string) string {
	return rp.AuthURL(state, p.rp)
}

// Exchange trades an authorization code for tokens and maps the verified
// ID token claims to a principal. The raw ID token is returned for use
// as id_token_hint on logout.
func (p *RelyingParty) Exchange(ctx context.Context, code string) (models.Principal, string, error) {
	tokens, err := rp.CodeExchange[*oidc.IDTokenClaims](ctx, code, p.rp)
	if err != nil {
		return models.Principal{}, "", fmt.Errorf("code exchange: %w", err)
	}

	principal := p.PrincipalFromClaims(tokens.IDTokenClaims)
	return principal, tokens.IDToken, nil
}

// PrincipalFromClaims maps verified ID token claims to a principal.
// Admin status is derived from membership in the configured admin group.
func (p *RelyingParty) PrincipalFromClaims(claims *oidc.IDTokenClaims) models.Principal {
	if claims == nil {
		return models.Principal{}
	}

	groups := extractStringSlice(claims.Claims, p.config.GroupsClaim)

	principal := models.Principal{
		ID:            claims.Subject,
		Email:         claims.Email,
		Authenticated: true,
		Groups:        groups,
	}
	principal.IdPAdmin = p.config.AdminGroup != "" && principal.InGroup(p.config.AdminGroup)
	return principal
}

// EndSessionURL builds the IdP logout URL for RP-initiated logout.
// Returns empty string if the provider has no end session endpoint.
func (p *RelyingParty) EndSessionURL(idTokenHint string) string {
	endpoint := p.rp.GetEndSessionEndpoint()
	if endpoint == "" {
		return ""
	}

	query := url.Values{}
	if idTokenHint != "" {
		query.Set("id_token_hint", idTokenHint)
	}
	if p.config.PostLogoutRedirectURI != "" {
		query.Set("post_logout_redirect_uri", p.config.PostLogoutRedirectURI)
	}
	if len(query) == 0 {
		return endpoint
	}
	return endpoint + "?" + query.Encode()
}

// extractStringSlice pulls a []string from a raw claims map. Providers
// encode list claims as []interface{}, []string, or a single string.
func extractStringSlice(claims map[string]any, key string) []string {
	if claims == nil || key == "" {
		return nil
	}

	switch val := claims[key].(type) {
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	default:
		return nil
	}
}
