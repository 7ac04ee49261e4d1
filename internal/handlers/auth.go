package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"sectionshop/internal/models"
	"sectionshop/internal/session"
	"sectionshop/internal/shopify"
)

// OAuthFlow is the Shopify authorization code grant.
type OAuthFlow interface {
	AuthCodeURL(shop, state string) string
	Exchange(ctx context.Context, shop, code string) (*shopify.Grant, error)
}

// BrowserSessions issues browser sessions and OAuth state nonces.
type BrowserSessions interface {
	Create(ctx context.Context, w http.ResponseWriter, data *session.Data) (string, error)
	NewState(ctx context.Context, shop string) (string, error)
	ConsumeState(ctx context.Context, state, shop string) error
}

// ShopTokens persists offline access tokens.
type ShopTokens interface {
	Upsert(ctx context.Context, shop, accessToken, scope string) (*models.ShopSession, error)
}

// Auth groups the OAuth install handlers.
type Auth struct {
	oauth     OAuthFlow
	sessions  BrowserSessions
	shops     ShopTokens
	apiSecret string
}

// NewAuth creates a new Auth handler group.
func NewAuth(oauth OAuthFlow, sessions BrowserSessions, shops ShopTokens, apiSecret string) *Auth {
	return &Auth{
		oauth:     oauth,
		sessions:  sessions,
		shops:     shops,
		apiSecret: apiSecret,
	}
}

// Begin starts OAuth for the shop in the query string.
func (a *Auth) Begin(w http.ResponseWriter, r *http.Request) {
	shop := r.URL.Query().Get("shop")
	if !shopify.ValidShopDomain(shop) {
		http.Error(w, "Invalid shop domain", http.StatusBadRequest)
		return
	}

	state, err := a.sessions.NewState(r.Context(), shop)
	if err != nil {
		slog.Error("oauth state create failed", "shop", shop, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, a.oauth.AuthCodeURL(shop, state), http.StatusSeeOther)
}

// Callback completes OAuth: it verifies the request signature and state,
// exchanges the code for an offline token, stores it and opens a browser
// session for the shop.
func (a *Auth) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	shop := q.Get("shop")
	if !shopify.ValidShopDomain(shop) {
		http.Error(w, "Invalid shop domain", http.StatusBadRequest)
		return
	}
	if !shopify.VerifyQueryHMAC(q, a.apiSecret) {
		slog.Warn("oauth callback signature mismatch", "shop", shop)
		http.Error(w, "Invalid signature", http.StatusForbidden)
		return
	}

	if err := a.sessions.ConsumeState(r.Context(), q.Get("state"), shop); err != nil {
		if errors.Is(err, session.ErrInvalidState) {
			slog.Warn("oauth callback state rejected", "shop", shop)
			http.Error(w, "Invalid state", http.StatusForbidden)
			return
		}
		slog.Error("oauth state consume failed", "shop", shop, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	grant, err := a.oauth.Exchange(r.Context(), shop, q.Get("code"))
	if err != nil {
		slog.Error("oauth exchange failed", "shop", shop, "error", err)
		http.Error(w, "Could not complete installation", http.StatusBadGateway)
		return
	}

	if _, err := a.shops.Upsert(r.Context(), shop, grant.AccessToken, grant.Scope); err != nil {
		slog.Error("store shop session failed", "shop", shop, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if _, err := a.sessions.Create(r.Context(), w, &session.Data{Shop: shop}); err != nil {
		slog.Error("browser session create failed", "shop", shop, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	slog.Info("shop authorized", "shop", shop, "scope", grant.Scope)

	target := url.Values{"shop": {shop}}
	if host := q.Get("host"); host != "" {
		target.Set("host", host)
	}
	http.Redirect(w, r, "/app/sections?"+target.Encode(), http.StatusSeeOther)
}
