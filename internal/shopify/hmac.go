// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// shopDomainRe matches a permanent myshopify.com domain.
var shopDomainRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*\.myshopify\.com$`)

// ValidShopDomain reports whether shop is a well-formed myshopify domain.
// Every shop value taken from a request must pass this before it is used
// to build a URL.
func ValidShopDomain(shop string) bool {
	return shopDomainRe.MatchString(shop)
}

// StoreHandle returns the subdomain part of a myshopify domain,
// e.g. "my-shop" for "my-shop.myshopify.com".
func StoreHandle(shop string) string {
	return strings.TrimSuffix(shop, ".myshopify.com")
}

// VerifyQueryHMAC checks the hmac parameter Shopify appends to OAuth
// callbacks and admin links: hex HMAC-SHA256 over the remaining parameters
// sorted by key and joined as k=v pairs with '&'.
func VerifyQueryHMAC(query url.Values, secret string) bool {
	given := query.Get("hmac")
	if given == "" || secret == "" {
		return false
	}

	keys := make([]string, 0, len(query))
	for k := range query {
		if k == "hmac" || k == "signature" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+strings.Join(query[k], ","))
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(parts, "&")))
	want := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(want), []byte(strings.ToLower(given)))
}

// VerifyWebhookHMAC checks the X-Shopify-Hmac-Sha256 header of a webhook:
// base64 HMAC-SHA256 of the raw request body.
func VerifyWebhookHMAC(body []byte, header, secret string) bool {
	if header == "" || secret == "" {
		return false
	}
	given, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), given)
}
