// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package sections

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"sectionshop/internal/models"
	"sectionshop/internal/shopify"
)

// Billing is the subset of the Shopify client the gate needs.
type Billing interface {
	HasActivePayment(ctx context.Context, admin shopify.Admin, plans []string) (bool, error)
	RequestPurchase(ctx context.Context, admin shopify.Admin, req shopify.PurchaseRequest) (string, error)
	IsPartnerDevelopment(ctx context.Context, admin shopify.Admin) (bool, error)
}

// Gate decides whether a shop may use a section and, when it may not yet,
// starts the one-time payment flow. It keeps no state: billing is re-read
// from the provider on every call.
type Gate struct {
	billing   Billing
	appURL    string
	forceTest bool
}

// NewGate creates a gate. appURL is the public origin of the app, used to
// build the return URL after payment. When forceTest is true every charge
// is created in test mode.
func NewGate(billing Billing, appURL string, forceTest bool) *Gate {
	return &Gate{
		billing:   billing,
		appURL:    strings.TrimRight(appURL, "/"),
		forceTest: forceTest,
	}
}

// Ensure returns an active entitlement if the shop already paid for the
// section's plan. Otherwise it requests a payment and returns the
// confirmation URL the merchant must be sent to. Billing failures are
// returned as *BillingError.
func (g *Gate) Ensure(ctx context.Context, admin shopify.Admin, section models.Section) (models.Entitlement, error) {
	active, err := g.billing.HasActivePayment(ctx, admin, []string{section.BillingPlan})
	if err != nil {
		return models.Entitlement{}, &BillingError{Plan: section.BillingPlan, Err: err}
	}
	if active {
		return models.Entitlement{Active: true}, nil
	}

	test := g.isTest(ctx, admin)
	confirmation, err := g.billing.RequestPurchase(ctx, admin, shopify.PurchaseRequest{
		Plan:      section.BillingPlan,
		PriceUSD:  section.PriceUSD,
		ReturnURL: g.ReturnURL(admin.Shop, section),
		Test:      test,
	})
	if err != nil {
		return models.Entitlement{}, &BillingError{Plan: section.BillingPlan, Err: err}
	}

	slog.Info("payment requested",
		"shop", admin.Shop,
		"plan", section.BillingPlan,
		"test", test,
	)
	return models.Entitlement{ConfirmationURL: confirmation}, nil
}

// isTest picks the billing mode. A failed development-store lookup falls
// back to live billing.
func (g *Gate) isTest(ctx context.Context, admin shopify.Admin) bool {
	if g.forceTest {
		return true
	}
	dev, err := g.billing.IsPartnerDevelopment(ctx, admin)
	if err != nil {
		slog.Warn("partner development lookup failed, using live billing",
			"shop", admin.Shop,
			"error", err,
		)
		return false
	}
	return dev
}

// ReturnURL is where the merchant lands after approving the charge: the
// section's detail page, carrying the shop so the session can be resolved.
func (g *Gate) ReturnURL(shop string, section models.Section) string {
	return g.appURL + section.DetailPath() + "?shop=" + url.QueryEscape(shop)
}
