// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the value types shared between the catalog, the
// Shopify client, the purchase/install workflow, and the HTTP handlers.
package models

import "fmt"

// Section is a purchasable, installable storefront template snippet.
// Sections are defined statically at process start and never mutated.
type Section struct {
	Handle        string  `json:"handle"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	PriceUSD      float64 `json:"priceUsd"`
	BillingPlan   string  `json:"billingPlan"`
	ThemeFilename string  `json:"themeFilename"`
}

// PriceLabel formats the one-time price for display, e.g. "$9.99".
func (s Section) PriceLabel() string {
	return fmt.Sprintf("$%.2f", s.PriceUSD)
}

// DetailPath returns the admin path of the section's detail page.
func (s Section) DetailPath() string {
	return "/app/sections/" + s.Handle
}
