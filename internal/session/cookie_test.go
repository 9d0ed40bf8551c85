// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

package session

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func issueCookie(t *testing.T, codec *CookieCodec, sessionID string) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	if err := codec.Issue(w, sessionID); err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	return cookies[0]
}

func TestCookieCodec_RoundTrip(t *testing.T) {
	codec := NewCookieCodec("tradewatch_session", "secret-key-for-tests", true, time.Hour)

	cookie := issueCookie(t, codec, "session-123")
	if !cookie.HttpOnly {
		t.Error("cookie must be HttpOnly")
	}
	if !cookie.Secure {
		t.Error("cookie must be Secure when configured")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Error("cookie must be SameSite=Lax")
	}

	r := httptest.NewRequest(http.MethodGet, "/app", nil)
	r.AddCookie(cookie)

	id, err := codec.SessionID(r)
	if err != nil {
		t.Fatalf("SessionID() error: %v", err)
	}
	if id != "session-123" {
		t.Errorf("SessionID() = %q, want session-123", id)
	}
}

func TestCookieCodec_MissingCookie(t *testing.T) {
	codec := NewCookieCodec("tradewatch_session", "secret-key-for-tests", false, time.Hour)

	r := httptest.NewRequest(http.MethodGet, "/app", nil)
	if _, err := codec.SessionID(r); !errors.Is(err, ErrInvalidCookie) {
		t.Errorf("err = %v, want ErrInvalidCookie", err)
	}
}

func TestCookieCodec_TamperedCookie(t *testing.T) {
	codec := NewCookieCodec("tradewatch_session", "secret-key-for-tests", false, time.Hour)

	cookie := issueCookie(t, codec, "session-123")
	// Flip the signature.
	parts := strings.Split(cookie.Value, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", cookie.Value)
	}
	cookie.Value = parts[0] + "." + parts[1] + ".AAAA" + parts[2][4:]

	r := httptest.NewRequest(http.MethodGet, "/app", nil)
	r.AddCookie(cookie)

	if _, err := codec.SessionID(r); !errors.Is(err, ErrInvalidCookie) {
		t.Errorf("err = %v, want ErrInvalidCookie for tampered cookie", err)
	}
}

func TestCookieCodec_WrongSecret(t *testing.T) {
	issuer := NewCookieCodec("tradewatch_session", "secret-one-for-tests", false, time.Hour)
	verifier := NewCookieCodec("tradewatch_session", "secret-two-for-tests", false, time.Hour)

	cookie := issueCookie(t, issuer, "session-123")
	r := httptest.NewRequest(http.MethodGet, "/app", nil)
	r.AddCookie(cookie)

	if _, err := verifier.SessionID(r); !errors.Is(err, ErrInvalidCookie) {
		t.Errorf("err = %v, want ErrInvalidCookie across secrets", err)
	}
}

func TestCookieCodec_Clear(t *testing.T) {
	codec := NewCookieCodec("tradewatch_session", "secret-key-for-tests", false, time.Hour)

	w := httptest.NewRecorder()
	codec.Clear(w)

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	if cookies[0].MaxAge != -1 {
		t.Errorf("MaxAge = %d, want -1", cookies[0].MaxAge)
	}
	if cookies[0].Value != "" {
		t.Errorf("Value = %q, want empty", cookies[0].Value)
	}
}

func TestCookieCodec_RandomSecretStillRoundTrips(t *testing.T) {
	codec := NewCookieCodec("tradewatch_session", "", false, time.Hour)

	cookie := issueCookie(t, codec, "session-123")
	r := httptest.NewRequest(http.MethodGet, "/app", nil)
	r.AddCookie(cookie)

	id, err := codec.SessionID(r)
	if err != nil {
		t.Fatalf("SessionID() error: %v", err)
	}
	if id != "session-123" {
		t.Errorf("SessionID() = %q, want session-123", id)
	}
}
