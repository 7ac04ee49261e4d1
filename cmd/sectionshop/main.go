// Package main is the entry point for the sections app server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"sectionshop/internal/cache"
	"sectionshop/internal/catalog"
	"sectionshop/internal/config"
	"sectionshop/internal/database"
	"sectionshop/internal/handlers"
	"sectionshop/internal/middleware"
	"sectionshop/internal/render"
	"sectionshop/internal/router"
	"sectionshop/internal/sections"
	"sectionshop/internal/session"
	"sectionshop/internal/shopify"
	"sectionshop/internal/storage"
	"sectionshop/internal/store"
)

func main() {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: JSON in production, text in development.
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"app_url", cfg.AppURL,
		"api_version", cfg.ShopifyAPIVersion,
		"billing_force_test", cfg.BillingForceTest,
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed the dev store token (no-op unless configured).
	if cfg.IsDev() {
		if err := database.SeedShopSession(context.Background(), db, cfg.DevShop, cfg.DevShopToken, cfg.ShopifyScopes); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (browser sessions + OAuth state).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword, cfg.ValkeyDB)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	secureCookies := cfg.SecureCookies()
	sessionStore := session.NewStore(valkeyClient, secureCookies)
	shopSessions := store.NewShopSessionStore(db)
	if n, err := shopSessions.Count(context.Background()); err != nil {
		slog.Warn("failed to count installed shops", "error", err)
	} else {
		slog.Info("installed shops", "count", n)
	}

	// Section sources come from S3 when configured, otherwise from disk.
	library, err := newLibrary(cfg)
	if err != nil {
		slog.Error("failed to initialize section library", "error", err)
		os.Exit(1)
	}

	slog.Info("catalog loaded", "sections", len(catalog.All()), "plans", catalog.Plans())

	renderer, err := render.New(cfg.IsDev(), cfg.ShopifyAPIKey)
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	client := shopify.NewClient(cfg.ShopifyAPIVersion)
	gate := sections.NewGate(client, cfg.AppURL, cfg.BillingForceTest)
	installer := sections.NewInstaller(library, client)
	oauth := shopify.NewOAuth(cfg.ShopifyAPIKey, cfg.ShopifyAPISecret, cfg.ShopifyScopes, cfg.RedirectURL())
	tokens := shopify.NewSessionTokenVerifier(cfg.ShopifyAPIKey, cfg.ShopifyAPISecret, time.Now)

	sectionHandlers := handlers.NewSections(renderer, client, gate, installer)
	authHandlers := handlers.NewAuth(oauth, sessionStore, shopSessions, cfg.ShopifyAPISecret)
	webhookHandlers := handlers.NewWebhooks(cfg.ShopifyAPISecret, shopSessions, sessionStore)

	r := router.New(
		sectionHandlers,
		authHandlers,
		webhookHandlers,
		middleware.Authenticate(tokens, sessionStore, shopSessions),
		cfg.ShopifyAPISecret,
		secureCookies,
	)

	// WriteTimeout covers an install: billing check plus theme file upsert.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

// newLibrary picks the section source store.
func newLibrary(cfg *config.Config) (catalog.Library, error) {
	objects, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket)
	if err != nil {
		return nil, err
	}
	if objects == nil {
		slog.Info("section library on disk", "dir", cfg.SectionLibrary)
		return catalog.NewDirLibrary(cfg.SectionLibrary), nil
	}
	slog.Info("section library in s3", "endpoint", objects.Endpoint(), "bucket", objects.Bucket(), "prefix", cfg.S3Prefix)
	prefix := strings.Trim(cfg.S3Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return catalog.NewObjectLibrary(objects, objects.Bucket(), prefix), nil
}
