package models

import (
	"time"

	"github.com/google/uuid"
)

// ShopSession holds the offline Admin API access token granted to the app
// when a shop installs it. There is at most one row per shop.
type ShopSession struct {
	ID          uuid.UUID `json:"id"`
	Shop        string    `json:"shop"`
	AccessToken string    `json:"-"`
	Scope       string    `json:"scope"`
	InstalledAt time.Time `json:"installed_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
