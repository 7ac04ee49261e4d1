// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"sectionshop/internal/models"
	"sectionshop/internal/session"
	"sectionshop/internal/shopify"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// AdminKey is the context key for the authenticated shop's Admin API
	// credentials.
	AdminKey contextKey = "admin"

	// csrfKey is the context key for the CSRF token.
	csrfKey contextKey = "csrf"
)

// TokenVerifier resolves a shop domain from an App Bridge session token.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// BrowserSessions loads and clears the browser session attached to a request.
type BrowserSessions interface {
	Get(ctx context.Context, r *http.Request) (*session.Data, error)
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// ShopSessions loads the offline Admin API token of an installed shop.
type ShopSessions interface {
	FindByShop(ctx context.Context, shop string) (*models.ShopSession, error)
}

// Authenticate resolves the calling shop from a bearer session token or a
// browser session, loads its offline access token and stores the Admin API
// credentials in the request context. Requests without a usable session are
// sent to OAuth when the shop is known, or rejected with 401.
func Authenticate(tokens TokenVerifier, browser BrowserSessions, shops ShopSessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var shop string
			raw, bearer := bearerToken(r)
			if bearer {
				s, err := tokens.Verify(raw)
				if err != nil {
					slog.Warn("session token rejected", "error", err)
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
				shop = s
			} else {
				data, err := browser.Get(ctx, r)
				if err != nil {
					slog.Error("load browser session failed", "error", err)
				}
				if data != nil {
					shop = data.Shop
				}
			}

			if shop == "" {
				reauthorize(w, r, r.URL.Query().Get("shop"))
				return
			}

			ss, err := shops.FindByShop(ctx, shop)
			if err != nil {
				slog.Error("load shop session failed", "error", err, "shop", shop)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			if ss == nil {
				// The shop uninstalled since this browser session was issued.
				if !bearer {
					if err := browser.Destroy(ctx, w, r); err != nil {
						slog.Warn("destroy stale browser session failed", "error", err, "shop", shop)
					}
				}
				reauthorize(w, r, shop)
				return
			}

			admin := shopify.Admin{Shop: ss.Shop, AccessToken: ss.AccessToken}
			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, AdminKey, admin)))
		})
	}
}

// AdminFromCtx returns the authenticated shop's Admin API credentials.
// ok is false when Authenticate did not run.
func AdminFromCtx(ctx context.Context) (shopify.Admin, bool) {
	admin, ok := ctx.Value(AdminKey).(shopify.Admin)
	return admin, ok
}

// WithAdmin returns a copy of ctx carrying admin. Used by handlers mounted
// without Authenticate in tests.
func WithAdmin(ctx context.Context, admin shopify.Admin) context.Context {
	return context.WithValue(ctx, AdminKey, admin)
}

// reauthorize sends the browser through OAuth for shop. JSON and bearer
// callers, and requests without a valid shop, get a 401 instead.
func reauthorize(w http.ResponseWriter, r *http.Request, shop string) {
	_, bearer := bearerToken(r)
	if bearer || !shopify.ValidShopDomain(shop) || wantsJSON(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	target := "/auth?shop=" + url.QueryEscape(shop)
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return "", false
	}
	return strings.TrimSpace(raw), true
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
