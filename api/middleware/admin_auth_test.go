package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/scentlane/storefront-backend/pkg/config"
)

func adminTestConfig() config.AdminConfig {
	return config.AdminConfig{
		JWTSecret: "test-secret",
		JWTIssuer: "scentlane-auth",
		Emails:    []string{"Ops@scentlane.store"},
	}
}

func signAdminToken(t *testing.T, email, issuer string, key []byte) string {
	t.Helper()
	claims := jwt.MapClaims{
		"email": email,
		"iss":   issuer,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestAdminAuthRejectsMissingToken(t *testing.T) {
	mw := AdminAuth(adminTestConfig(), nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAdminAuthRejectsWrongSigningKey(t *testing.T) {
	cfg := adminTestConfig()
	mw := AdminAuth(cfg, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	token := signAdminToken(t, "ops@scentlane.store", cfg.JWTIssuer, []byte("other-secret"))
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAdminAuthRejectsWrongIssuer(t *testing.T) {
	cfg := adminTestConfig()
	mw := AdminAuth(cfg, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	token := signAdminToken(t, "ops@scentlane.store", "someone-else", []byte(cfg.JWTSecret))
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAdminAuthEnforcesAllowlist(t *testing.T) {
	cfg := adminTestConfig()
	mw := AdminAuth(cfg, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	token := signAdminToken(t, "intruder@example.com", cfg.JWTIssuer, []byte(cfg.JWTSecret))
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestAdminAuthAcceptsAllowlistedEmailCaseInsensitive(t *testing.T) {
	cfg := adminTestConfig()
	mw := AdminAuth(cfg, nil)
	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = AdminEmailFromContext(r.Context())
	})

	token := signAdminToken(t, "OPS@scentlane.store", cfg.JWTIssuer, []byte(cfg.JWTSecret))
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if seen != "ops@scentlane.store" {
		t.Fatalf("expected normalized email in context, got %q", seen)
	}
}
