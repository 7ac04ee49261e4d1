// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Collaborators are replaced by small fakes so the tests run without
// PostgreSQL, Valkey or Shopify.
package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"sectionshop/internal/middleware"
	"sectionshop/internal/models"
	"sectionshop/internal/render"
	"sectionshop/internal/session"
	"sectionshop/internal/shopify"
)

const (
	testShop   = "my-shop.myshopify.com"
	testSecret = "shpss_test_secret"
	trustBar   = "p5-trust-builder-bar"
)

var testAdmin = shopify.Admin{Shop: testShop, AccessToken: "shpat_test"}

// fakeThemes implements ThemeLister.
type fakeThemes struct {
	themes []models.Theme
	err    error
	calls  int
}

func (f *fakeThemes) ListThemes(context.Context, shopify.Admin) ([]models.Theme, error) {
	f.calls++
	out := make([]models.Theme, len(f.themes))
	copy(out, f.themes)
	return out, f.err
}

// fakeGate implements Entitler.
type fakeGate struct {
	ent   models.Entitlement
	err   error
	calls int
}

func (f *fakeGate) Ensure(context.Context, shopify.Admin, models.Section) (models.Entitlement, error) {
	f.calls++
	return f.ent, f.err
}

// fakeInstaller implements SectionInstaller.
type fakeInstaller struct {
	result  models.InstallResult
	err     error
	calls   int
	themeID string
}

func (f *fakeInstaller) Install(_ context.Context, _ shopify.Admin, themeID, _ string) (models.InstallResult, error) {
	f.calls++
	f.themeID = themeID
	return f.result, f.err
}

// fakeOAuth implements OAuthFlow.
type fakeOAuth struct {
	grant *shopify.Grant
	err   error
	code  string
}

func (f *fakeOAuth) AuthCodeURL(shop, state string) string {
	return "https://" + shop + "/admin/oauth/authorize?state=" + state
}

func (f *fakeOAuth) Exchange(_ context.Context, _, code string) (*shopify.Grant, error) {
	f.code = code
	return f.grant, f.err
}

// fakeSessions implements BrowserSessions and ShopSessionDestroyer.
type fakeSessions struct {
	states    map[string]string
	created   []string
	destroyed []string
	err       error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{states: map[string]string{}}
}

func (f *fakeSessions) Create(_ context.Context, w http.ResponseWriter, data *session.Data) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.created = append(f.created, data.Shop)
	http.SetCookie(w, &http.Cookie{Name: session.CookieName, Value: "sid"})
	return "sid", nil
}

func (f *fakeSessions) NewState(_ context.Context, shop string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	state := "state-" + shop
	f.states[state] = shop
	return state, nil
}

func (f *fakeSessions) ConsumeState(_ context.Context, state, shop string) error {
	bound, ok := f.states[state]
	delete(f.states, state)
	if !ok || bound != shop {
		return session.ErrInvalidState
	}
	return nil
}

func (f *fakeSessions) DestroyShop(_ context.Context, shop string) (int, error) {
	f.destroyed = append(f.destroyed, shop)
	return 1, f.err
}

// fakeShops implements ShopTokens and ShopRemover.
type fakeShops struct {
	tokens  map[string]string
	deleted []string
	err     error
}

func newFakeShops() *fakeShops {
	return &fakeShops{tokens: map[string]string{}}
}

func (f *fakeShops) Upsert(_ context.Context, shop, token, scope string) (*models.ShopSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tokens[shop] = token
	return &models.ShopSession{Shop: shop, AccessToken: token, Scope: scope}, nil
}

func (f *fakeShops) DeleteByShop(_ context.Context, shop string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.deleted = append(f.deleted, shop)
	delete(f.tokens, shop)
	return 1, nil
}

func testRenderer(t *testing.T) *render.Renderer {
	t.Helper()
	rn, err := render.New(true, "api-key")
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	return rn
}

// sectionsRouter mounts the section handlers the way the app router does,
// with the Admin credentials Authenticate would provide.
func sectionsRouter(h *Sections) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithAdmin(r.Context(), testAdmin)))
		})
	})
	r.Get("/app/sections", h.List)
	r.Get("/app/sections/{handle}", h.Detail)
	r.Post("/app/sections/{handle}", h.Action)
	return r
}

// signQuery adds the hmac parameter Shopify would append.
func signQuery(q url.Values, secret string) url.Values {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+strings.Join(q[k], ","))
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(parts, "&")))
	q.Set("hmac", hex.EncodeToString(mac.Sum(nil)))
	return q
}

// signBody returns the X-Shopify-Hmac-Sha256 header value for body.
func signBody(body, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// captureLogs routes the default logger into a buffer for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}
