package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// SeedShopSession stores a development shop's access token so the app can
// be exercised against a dev store without running the OAuth install flow.
// It is a no-op when shop or token is empty or when the shop already has a
// session.
func SeedShopSession(ctx context.Context, db *sql.DB, shop, token, scope string) error {
	if shop == "" || token == "" {
		return nil
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM shop_sessions WHERE shop = $1", shop).Scan(&count); err != nil {
		return fmt.Errorf("seed check shop session: %w", err)
	}
	if count > 0 {
		slog.Info("dev shop session already present, skipping", "shop", shop)
		return nil
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO shop_sessions (id, shop, access_token, scope)
		VALUES ($1, $2, $3, $4)
	`, uuid.New(), shop, token, scope)
	if err != nil {
		return fmt.Errorf("seed insert shop session: %w", err)
	}

	slog.Info("database seeded with dev shop session", "shop", shop)
	return nil
}
