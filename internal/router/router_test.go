// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router tests verify the HTTP routing configuration, middleware
// chains, and the health endpoint.
package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sectionshop/internal/handlers"
	"sectionshop/internal/middleware"
	"sectionshop/internal/models"
	"sectionshop/internal/render"
	"sectionshop/internal/shopify"
)

type stubThemes struct{}

func (stubThemes) ListThemes(context.Context, shopify.Admin) ([]models.Theme, error) {
	return []models.Theme{{ID: "gid://shopify/OnlineStoreTheme/1", Name: "Dawn", Role: models.ThemeRoleMain}}, nil
}

// allow injects fixed Admin credentials in place of Authenticate.
func allow(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin := shopify.Admin{Shop: "my-shop.myshopify.com", AccessToken: "shpat"}
		next.ServeHTTP(w, r.WithContext(middleware.WithAdmin(r.Context(), admin)))
	})
}

// deny rejects every request in place of Authenticate.
func deny(http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}

func newTestRouter(t *testing.T, authenticate func(http.Handler) http.Handler) http.Handler {
	t.Helper()
	rn, err := render.New(true, "api-key")
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	sections := handlers.NewSections(rn, stubThemes{}, nil, nil)
	auth := handlers.NewAuth(nil, nil, nil, "secret")
	webhooks := handlers.NewWebhooks("secret", nil, nil)
	return New(sections, auth, webhooks, authenticate, "secret", false)
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, target, nil))
	return rr
}

func TestHealthHandler(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/health", nil)

	healthHandler(w, r)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "application/json" {
		t.Errorf("content-type: got %q, want %q", ct, "application/json")
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field: got %q, want %q", body["status"], "ok")
	}
}

func TestOperationalRoutes(t *testing.T) {
	h := newTestRouter(t, deny)

	tests := []struct {
		name     string
		target   string
		want     int
		contains string
	}{
		{"health", "/health", http.StatusOK, `"ok"`},
		{"metrics", "/metrics", http.StatusOK, "go_goroutines"},
		{"static", "/static/app.css", http.StatusOK, ".banner"},
		{"unknown", "/nope", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(h, http.MethodGet, tt.target)
			if rr.Code != tt.want {
				t.Errorf("status: got %d, want %d", rr.Code, tt.want)
			}
			if tt.contains != "" && !strings.Contains(rr.Body.String(), tt.contains) {
				t.Errorf("body missing %q", tt.contains)
			}
		})
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	h := newTestRouter(t, deny)

	rr := serve(h, http.MethodGet, "/health?shop=my-shop.myshopify.com")
	want := "frame-ancestors https://my-shop.myshopify.com https://admin.shopify.com"
	if got := rr.Header().Get("Content-Security-Policy"); got != want {
		t.Errorf("CSP: got %q, want %q", got, want)
	}
}

func TestRootRedirect(t *testing.T) {
	h := newTestRouter(t, deny)

	rr := serve(h, http.MethodGet, "/?shop=my-shop.myshopify.com&host=abc")
	if rr.Code != http.StatusFound {
		t.Fatalf("status: got %d, want 302", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/app/sections?shop=my-shop.myshopify.com&host=abc" {
		t.Errorf("Location: got %q", loc)
	}
}

func TestAppRoutesRequireAuthentication(t *testing.T) {
	h := newTestRouter(t, deny)

	for _, target := range []string{"/app/sections", "/app/sections/p5-trust-builder-bar"} {
		if rr := serve(h, http.MethodGet, target); rr.Code != http.StatusUnauthorized {
			t.Errorf("GET %s: got %d, want 401", target, rr.Code)
		}
	}
}

func TestAppRoutes(t *testing.T) {
	h := newTestRouter(t, allow)

	rr := serve(h, http.MethodGet, "/app/sections")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Highlights Bar") {
		t.Errorf("list: got %d", rr.Code)
	}

	rr = serve(h, http.MethodGet, "/app/sections/p5-trust-builder-bar")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Dawn (Live)") {
		t.Errorf("detail: got %d", rr.Code)
	}

	rr = serve(h, http.MethodGet, "/app/sections/unknown")
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown section: got %d, want 404", rr.Code)
	}
}

func TestActionRequiresCSRF(t *testing.T) {
	h := newTestRouter(t, allow)

	rr := serve(h, http.MethodPost, "/app/sections/p5-trust-builder-bar")
	if rr.Code != http.StatusForbidden {
		t.Errorf("POST without CSRF token: got %d, want 403", rr.Code)
	}
}

func TestAuthAndWebhookRoutes(t *testing.T) {
	h := newTestRouter(t, deny)

	if rr := serve(h, http.MethodGet, "/auth?shop=evil.example.com"); rr.Code != http.StatusBadRequest {
		t.Errorf("/auth invalid shop: got %d, want 400", rr.Code)
	}
	if rr := serve(h, http.MethodPost, "/webhooks/app/uninstalled"); rr.Code != http.StatusUnauthorized {
		t.Errorf("unsigned webhook: got %d, want 401", rr.Code)
	}
	if rr := serve(h, http.MethodGet, "/webhooks/app/uninstalled"); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET webhook: got %d, want 405", rr.Code)
	}
}
