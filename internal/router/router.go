// Package router sets up all HTTP routes and middleware chains for the
// sections app. It organizes routes into the embedded app, the OAuth flow,
// webhooks and operational endpoints, each with its own middleware stack.
package router

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sectionshop/internal/handlers"
	"sectionshop/internal/middleware"
	"sectionshop/web"
)

// Rate limits for unauthenticated entry points: OAuth per client IP,
// webhooks per sending shop.
const (
	authRateLimit    = 20
	webhookRateLimit = 600
	rateWindow       = time.Minute
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. authenticate resolves the shop for /app routes;
// apiSecret verifies webhook signatures before the per-shop limit applies.
func New(
	sections *handlers.Sections,
	auth *handlers.Auth,
	webhooks *handlers.Webhooks,
	authenticate func(http.Handler) http.Handler,
	apiSecret string,
	secureCookies bool,
) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	// Operational endpoints: no auth, no CSRF.
	r.Get("/health", healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	static, _ := fs.Sub(web.StaticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	// The app URL registered with Shopify points at the root.
	r.Get("/", redirectToSections)

	// OAuth install flow.
	authLimiter := middleware.NewRateLimiter(authRateLimit, rateWindow, middleware.ByClientIP)
	r.Group(func(r chi.Router) {
		r.Use(authLimiter.Middleware)
		r.Get("/auth", auth.Begin)
		r.Get("/auth/callback", auth.Callback)
	})

	// Webhooks are authenticated by their HMAC signature.
	webhookLimiter := middleware.NewRateLimiter(webhookRateLimit, rateWindow, middleware.ByWebhookShop(apiSecret))
	r.Route("/webhooks", func(r chi.Router) {
		r.Use(webhookLimiter.Middleware)
		r.Post("/app/uninstalled", webhooks.AppUninstalled)
		r.Post("/compliance", webhooks.Compliance)
	})

	// Embedded app: requires an installed shop and CSRF protection.
	r.Route("/app", func(r chi.Router) {
		r.Use(middleware.NewCSRF(secureCookies))
		r.Use(authenticate)

		r.Get("/", redirectToSections)
		r.Route("/sections", func(r chi.Router) {
			r.Get("/", sections.List)
			r.Get("/{handle}", sections.Detail)
			r.Post("/{handle}", sections.Action)
		})
	})

	return r
}

// redirectToSections forwards to the catalog, keeping shop and host.
func redirectToSections(w http.ResponseWriter, r *http.Request) {
	target := "/app/sections"
	if q := r.URL.RawQuery; q != "" {
		target += "?" + q
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
