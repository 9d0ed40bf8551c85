// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

package session

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidCookie is returned when the session cookie is missing,
// malformed, or fails signature verification.
var ErrInvalidCookie = errors.New("invalid session cookie")

// cookieClaims is the signed payload of the session cookie. The cookie
// carries only the opaque session ID; all session state stays server-side.
type cookieClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// CookieCodec issues and verifies the signed session cookie (HS256).
// Signing makes a forged or truncated cookie fail verification instead
// of hitting the session store with attacker-chosen IDs.
type CookieCodec struct {
	name   string
	secret []byte
	secure bool
	maxAge time.Duration
}

// NewCookieCodec creates a codec. An empty secret gets a random one,
// which is fine for development but invalidates cookies on restart;
// production config requires an explicit secret.
func NewCookieCodec(name, secret string, secure bool, maxAge time.Duration) *CookieCodec {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		//nolint:errcheck // rand.Read never fails on supported platforms
		rand.Read(key)
	}
	return &CookieCodec{
		name:   name,
		secret: key,
		secure: secure,
		maxAge: maxAge,
	}
}

// Issue sets the signed session cookie on the response.
func (c *CookieCodec) Issue(w http.ResponseWriter, sessionID string) error {
	now := time.Now()
	claims := cookieClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.maxAge)),
		},
		SessionID: sessionID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return fmt.Errorf("sign session cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(c.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie.
func (c *CookieCodec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionID extracts and verifies the session ID from the request's
// cookie. Returns ErrInvalidCookie for any missing or unverifiable
// cookie so callers treat all failures as unauthenticated.
func (c *CookieCodec) SessionID(r *http.Request) (string, error) {
	cookie, err := r.Cookie(c.name)
	if err != nil {
		return "", ErrInvalidCookie
	}

	claims := &cookieClaims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid || claims.SessionID == "" {
		return "", ErrInvalidCookie
	}

	return claims.SessionID, nil
}
