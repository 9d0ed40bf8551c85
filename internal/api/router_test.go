// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tradewatch/tradewatch/internal/access"
	"github.com/tradewatch/tradewatch/internal/authz"
	"github.com/tradewatch/tradewatch/internal/backend"
	"github.com/tradewatch/tradewatch/internal/config"
	"github.com/tradewatch/tradewatch/internal/features"
	"github.com/tradewatch/tradewatch/internal/models"
	"github.com/tradewatch/tradewatch/internal/session"
)

type testEnv struct {
	router   http.Handler
	sessions *session.Manager
}

// backendMux stubs the external data API. Principals present in records
// get that access record; everyone else gets 404 (no record).
func backendMux(records map[string]*models.AccessRecord, trades []models.Trade) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/internal/v1/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/internal/v1/access-records/", func(w http.ResponseWriter, r *http.Request) {
		pid := strings.TrimPrefix(r.URL.Path, "/internal/v1/access-records/")
		if record, ok := records[pid]; ok {
			json.NewEncoder(w).Encode(record)
			return
		}
		http.NotFound(w, r)
	})
	mux.HandleFunc("/internal/v1/access-requests/by-principal/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/internal/v1/access-requests", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			var payload struct {
				PrincipalID string `json:"principal_id"`
				models.AccessRequestInput
			}
			json.NewDecoder(r.Body).Decode(&payload)
			json.NewEncoder(w).Encode(models.AccessRequest{
				ID:          "req-1",
				PrincipalID: payload.PrincipalID,
				Email:       payload.Email,
				Status:      models.RequestPending,
			})
			return
		}
		json.NewEncoder(w).Encode([]models.AccessRequest{})
	})
	mux.HandleFunc("/internal/v1/trades", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(trades)
	})
	return mux
}

func newTestEnv(t *testing.T, records map[string]*models.AccessRecord, trades []models.Trade) *testEnv {
	t.Helper()

	srv := httptest.NewServer(backendMux(records, trades))
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.Server.Environment = "development"
	cfg.Security.Session.CookieSecure = false
	cfg.Security.RateLimitReqs = 100
	cfg.Security.RateLimitWindow = time.Minute
	cfg.Security.CORSOrigins = []string{"http://localhost:3000"}

	store := session.NewMemoryStore()
	codec := session.NewCookieCodec("tradewatch_test", "0123456789abcdef0123456789abcdef", false, time.Hour)
	sessions := session.NewManager(store, codec, time.Hour)

	client := backend.NewClient(backend.Config{
		BaseURL:            srv.URL,
		Timeout:            5 * time.Second,
		BreakerMaxFailures: 100,
		BreakerOpenTimeout: time.Second,
	})
	loader := access.NewLoader(client, 0)

	enforcer, err := authz.NewEnforcer(context.Background(), authz.DefaultEnforcerConfig())
	if err != nil {
		t.Fatalf("NewEnforcer: %v", err)
	}
	t.Cleanup(enforcer.Close)

	h := NewHandler(cfg, sessions, nil, client, loader, enforcer)
	return &testEnv{router: NewRouter(h), sessions: sessions}
}

// signIn establishes a session and returns its cookie.
func (e *testEnv) signIn(t *testing.T, principal models.Principal) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	if _, err := e.sessions.Establish(context.Background(), w, principal, ""); err != nil {
		t.Fatalf("Establish: %v", err)
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie issued")
	}
	return cookies[0]
}

func (e *testEnv) do(t *testing.T, method, target string, cookie *http.Cookie, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	if cookie != nil {
		r.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, r)
	return w
}

func approvedRecord(principalID, role string, perms ...features.Feature) *models.AccessRecord {
	return &models.AccessRecord{
		ID:          "rec-" + principalID,
		PrincipalID: principalID,
		Role:        role,
		Status:      models.AccessApproved,
		Permissions: perms,
	}
}

func TestRouter_UnmatchedRedirectsHome(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	w := env.do(t, http.MethodGet, "/no/such/page", nil, "")
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", w.Code)
	}
	if got := w.Header().Get("Location"); got != "/" {
		t.Errorf("Location = %q, want /", got)
	}
}

func TestRouter_HomeAnonymous(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	w := env.do(t, http.MethodGet, "/", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	data := resp.Data.(map[string]any)
	if data["authenticated"] != false {
		t.Error("expected authenticated=false for anonymous request")
	}
}

func TestRouter_AppAnonymousRedirectsToLogin(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	w := env.do(t, http.MethodGet, "/app", nil, "")
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", w.Code)
	}
	if got := w.Header().Get("Location"); got != "/login?return_to=%2Fapp" {
		t.Errorf("Location = %q", got)
	}
}

func TestRouter_AppApprovedPrincipal(t *testing.T) {
	records := map[string]*models.AccessRecord{
		"user-1": approvedRecord("user-1", models.RoleViewer, features.FeatureDashboard),
	}
	env := newTestEnv(t, records, nil)
	cookie := env.signIn(t, models.Principal{ID: "user-1", Email: "u@example.com", Authenticated: true})

	w := env.do(t, http.MethodGet, "/app", cookie, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "dashboard") {
		t.Errorf("expected dashboard page payload, got %s", w.Body.String())
	}
}

func TestRouter_FeatureDeniedRedirectsToApp(t *testing.T) {
	records := map[string]*models.AccessRecord{
		"user-1": approvedRecord("user-1", models.RoleViewer, features.FeatureDashboard),
	}
	env := newTestEnv(t, records, nil)
	cookie := env.signIn(t, models.Principal{ID: "user-1", Authenticated: true})

	w := env.do(t, http.MethodGet, "/app/screener", cookie, "")
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", w.Code)
	}
	if got := w.Header().Get("Location"); got != authz.PathApp {
		t.Errorf("Location = %q, want %q", got, authz.PathApp)
	}
}

func TestRouter_NoRecordRedirectsToRequestAccess(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	cookie := env.signIn(t, models.Principal{ID: "user-1", Authenticated: true})

	w := env.do(t, http.MethodGet, "/app", cookie, "")
	if got := w.Header().Get("Location"); got != authz.PathRequestAccess {
		t.Errorf("Location = %q, want %q", got, authz.PathRequestAccess)
	}
}

func TestAPI_AnonymousForbidden(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	w := env.do(t, http.MethodGet, "/api/v1/trades", nil, "")
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestAPI_ViewerReadsTrades(t *testing.T) {
	records := map[string]*models.AccessRecord{
		"user-1": approvedRecord("user-1", models.RoleViewer, features.FeatureOpenTrades),
	}
	trades := []models.Trade{{ID: "t-1", OwnerID: "user-1", Symbol: "ACME", Status: models.TradeOpen}}
	env := newTestEnv(t, records, trades)
	cookie := env.signIn(t, models.Principal{ID: "user-1", Authenticated: true})

	w := env.do(t, http.MethodGet, "/api/v1/trades", cookie, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "ACME") {
		t.Errorf("expected trade in response, got %s", w.Body.String())
	}
}

func TestAPI_ViewerCannotWriteTrades(t *testing.T) {
	records := map[string]*models.AccessRecord{
		"user-1": approvedRecord("user-1", models.RoleViewer),
	}
	env := newTestEnv(t, records, nil)
	cookie := env.signIn(t, models.Principal{ID: "user-1", Authenticated: true})

	body := `{"symbol":"ACME","side":"LONG","quantity":10,"entry_price":5}`
	w := env.do(t, http.MethodPost, "/api/v1/trades", cookie, body)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestAPI_ViewerCannotReadAccessAdmin(t *testing.T) {
	records := map[string]*models.AccessRecord{
		"user-1": approvedRecord("user-1", models.RoleViewer),
	}
	env := newTestEnv(t, records, nil)
	cookie := env.signIn(t, models.Principal{ID: "user-1", Authenticated: true})

	w := env.do(t, http.MethodGet, "/api/v1/access/requests", cookie, "")
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestAPI_IdPAdminListsAccessRequests(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	cookie := env.signIn(t, models.Principal{ID: "admin-1", Authenticated: true, IdPAdmin: true})

	w := env.do(t, http.MethodGet, "/api/v1/access/requests", cookie, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
}

func TestAPI_UnapprovedPrincipalForbidden(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	cookie := env.signIn(t, models.Principal{ID: "user-1", Authenticated: true})

	w := env.do(t, http.MethodGet, "/api/v1/me", cookie, "")
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 for principal without approved record", w.Code)
	}
}

func TestSubmitAccessRequest_Unauthenticated(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	body := `{"email":"u@example.com","full_name":"A User","trading_experience":"beginner","reason":"I would like dashboard access please"}`
	w := env.do(t, http.MethodPost, "/request-access", nil, body)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestSubmitAccessRequest_Created(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	cookie := env.signIn(t, models.Principal{ID: "user-1", Email: "u@example.com", Authenticated: true})

	body := `{"email":"u@example.com","full_name":"A User","trading_experience":"beginner","reason":"I would like dashboard access please"}`
	w := env.do(t, http.MethodPost, "/request-access", cookie, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "req-1") {
		t.Errorf("expected created request in response, got %s", w.Body.String())
	}
}

func TestSubmitAccessRequest_ValidationFailure(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	cookie := env.signIn(t, models.Principal{ID: "user-1", Authenticated: true})

	w := env.do(t, http.MethodPost, "/request-access", cookie, `{"email":"not-an-email"}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422, body %s", w.Code, w.Body.String())
	}

	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeValidationFailed {
		t.Errorf("expected %s error, got %+v", ErrCodeValidationFailed, resp.Error)
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	w := env.do(t, http.MethodGet, "/healthz", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"backend":"up"`) {
		t.Errorf("expected backend up, got %s", w.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	w := env.do(t, http.MethodGet, "/metrics", nil, "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}
