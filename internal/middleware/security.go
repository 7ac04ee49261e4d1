// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"

	"sectionshop/internal/shopify"
)

// adminOrigin is where the embedded app iframe is hosted.
const adminOrigin = "https://admin.shopify.com"

// SecureHeaders adds security-related HTTP headers to every response.
// Framing is restricted to the Shopify admin and the requesting shop's
// own domain instead of X-Frame-Options, which cannot allow-list origins.
func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-XSS-Protection", "0")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "interest-cohort=()")
		h.Set("Content-Security-Policy", "frame-ancestors "+frameAncestors(r))

		next.ServeHTTP(w, r)
	})
}

func frameAncestors(r *http.Request) string {
	if shop := r.URL.Query().Get("shop"); shopify.ValidShopDomain(shop) {
		return "https://" + shop + " " + adminOrigin
	}
	return "https://*.myshopify.com " + adminOrigin
}
