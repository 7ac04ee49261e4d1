// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides database access for the app's only persisted
// entity: the offline Admin API session of each installed shop.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"sectionshop/internal/models"
)

// ShopSessionStore handles shop session persistence.
type ShopSessionStore struct {
	db *sql.DB
}

// NewShopSessionStore creates a new ShopSessionStore.
func NewShopSessionStore(db *sql.DB) *ShopSessionStore {
	return &ShopSessionStore{db: db}
}

// FindByShop returns the session for a shop domain. Returns nil if the shop
// has not installed the app.
func (s *ShopSessionStore) FindByShop(ctx context.Context, shop string) (*models.ShopSession, error) {
	ss := &models.ShopSession{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, shop, access_token, scope, installed_at, updated_at
		FROM shop_sessions WHERE shop = $1
	`, shop).Scan(&ss.ID, &ss.Shop, &ss.AccessToken, &ss.Scope, &ss.InstalledAt, &ss.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find shop session: %w", err)
	}
	return ss, nil
}

// Upsert stores the access token for a shop, replacing any previous token.
// The row id and installed_at of an existing row are preserved.
func (s *ShopSessionStore) Upsert(ctx context.Context, shop, accessToken, scope string) (*models.ShopSession, error) {
	ss := &models.ShopSession{}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO shop_sessions (id, shop, access_token, scope)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (shop) DO UPDATE
		SET access_token = EXCLUDED.access_token,
		    scope = EXCLUDED.scope,
		    updated_at = NOW()
		RETURNING id, shop, access_token, scope, installed_at, updated_at
	`, uuid.New(), shop, accessToken, scope).Scan(
		&ss.ID, &ss.Shop, &ss.AccessToken, &ss.Scope, &ss.InstalledAt, &ss.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert shop session: %w", err)
	}
	return ss, nil
}

// DeleteByShop removes a shop's session, e.g. after the app is uninstalled.
// Returns the number of rows removed.
func (s *ShopSessionStore) DeleteByShop(ctx context.Context, shop string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM shop_sessions WHERE shop = $1`, shop)
	if err != nil {
		return 0, fmt.Errorf("delete shop session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete shop session rows: %w", err)
	}
	return n, nil
}

// Count returns the number of installed shops.
func (s *ShopSessionStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shop_sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count shop sessions: %w", err)
	}
	return n, nil
}
