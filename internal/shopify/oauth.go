package shopify

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
)

// OAuth runs the authorization-code install flow. Shopify issues one
// authorization server per shop, so the oauth2 config is built per call.
type OAuth struct {
	apiKey      string
	apiSecret   string
	scopes      []string
	redirectURL string
	// baseURL maps a shop to its origin; overridden in tests.
	baseURL func(shop string) string
}

// NewOAuth creates an install flow for the app credentials. scopes is a
// comma-separated list as configured in SHOPIFY_SCOPES.
func NewOAuth(apiKey, apiSecret, scopes, redirectURL string) *OAuth {
	var list []string
	for _, s := range strings.Split(scopes, ",") {
		if s = strings.TrimSpace(s); s != "" {
			list = append(list, s)
		}
	}
	return &OAuth{
		apiKey:      apiKey,
		apiSecret:   apiSecret,
		scopes:      list,
		redirectURL: redirectURL,
		baseURL:     func(shop string) string { return "https://" + shop },
	}
}

func (o *OAuth) config(shop string) *oauth2.Config {
	base := o.baseURL(shop)
	return &oauth2.Config{
		ClientID:     o.apiKey,
		ClientSecret: o.apiSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   base + "/admin/oauth/authorize",
			TokenURL:  base + "/admin/oauth/access_token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: o.redirectURL,
		Scopes:      o.scopes,
	}
}

// AuthCodeURL returns the URL that asks the merchant to grant the app's
// scopes. state must be verified on callback.
func (o *OAuth) AuthCodeURL(shop, state string) string {
	return o.config(shop).AuthCodeURL(state)
}

// Grant is the result of a successful code exchange.
type Grant struct {
	AccessToken string
	Scope       string
}

// Exchange trades the callback code for an offline access token.
func (o *OAuth) Exchange(ctx context.Context, shop, code string) (*Grant, error) {
	tok, err := o.config(shop).Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("oauth exchange for %s: %w", shop, err)
	}
	scope, _ := tok.Extra("scope").(string)
	return &Grant{AccessToken: tok.AccessToken, Scope: scope}, nil
}
