// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package shopify

import (
	"context"
	"fmt"
	"strings"
)

// purchaseStatusActive is the status of a one-time purchase the merchant
// has approved and paid.
const purchaseStatusActive = "ACTIVE"

const oneTimePurchasesQuery = `query OneTimePurchases {
  currentAppInstallation {
    oneTimePurchases(first: 250, sortKey: CREATED_AT, reverse: true) {
      nodes { id name status test }
    }
  }
}`

const purchaseOneTimeCreateMutation = `mutation AppPurchaseOneTimeCreate($name: String!, $price: MoneyInput!, $returnUrl: URL!, $test: Boolean) {
  appPurchaseOneTimeCreate(name: $name, price: $price, returnUrl: $returnUrl, test: $test) {
    appPurchaseOneTime { id }
    confirmationUrl
    userErrors { field message }
  }
}`

const shopPlanQuery = `query ShopPlan {
  shop {
    plan { partnerDevelopment }
  }
}`

// PurchaseRequest describes a one-time charge to create.
type PurchaseRequest struct {
	// Plan is the billing plan identifier; it becomes the purchase name so
	// HasActivePayment can match it later.
	Plan      string
	PriceUSD  float64
	ReturnURL string
	Test      bool
}

// HasActivePayment reports whether the shop holds an ACTIVE one-time
// purchase for any of the given plans. Test purchases count: they can only
// exist when the app itself requested test mode.
func (c *Client) HasActivePayment(ctx context.Context, admin Admin, plans []string) (bool, error) {
	data, err := c.Do(ctx, admin, Request{Operation: "OneTimePurchases", Query: oneTimePurchasesQuery})
	if err != nil {
		return false, fmt.Errorf("check payments: %w", err)
	}

	wanted := make(map[string]bool, len(plans))
	for _, p := range plans {
		wanted[p] = true
	}

	for _, n := range data.Get("currentAppInstallation.oneTimePurchases.nodes").Array() {
		if n.Get("status").String() == purchaseStatusActive && wanted[n.Get("name").String()] {
			return true, nil
		}
	}
	return false, nil
}

// RequestPurchase creates a pending one-time charge and returns the URL the
// merchant must visit to approve it.
func (c *Client) RequestPurchase(ctx context.Context, admin Admin, req PurchaseRequest) (string, error) {
	data, err := c.Do(ctx, admin, Request{
		Operation: "AppPurchaseOneTimeCreate",
		Query:     purchaseOneTimeCreateMutation,
		Variables: map[string]any{
			"name": req.Plan,
			"price": map[string]any{
				"amount":       req.PriceUSD,
				"currencyCode": "USD",
			},
			"returnUrl": req.ReturnURL,
			"test":      req.Test,
		},
	})
	if err != nil {
		return "", fmt.Errorf("request purchase %s: %w", req.Plan, err)
	}

	result := data.Get("appPurchaseOneTimeCreate")
	if errs := parseUserErrors(result.Get("userErrors")); len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.Message)
		}
		return "", fmt.Errorf("request purchase %s: %s", req.Plan, strings.Join(msgs, "; "))
	}

	confirmation := result.Get("confirmationUrl").String()
	if confirmation == "" {
		return "", fmt.Errorf("request purchase %s: no confirmation URL returned", req.Plan)
	}
	return confirmation, nil
}

// IsPartnerDevelopment reports whether the shop is a Shopify Partner
// development store, where only test charges are possible.
func (c *Client) IsPartnerDevelopment(ctx context.Context, admin Admin) (bool, error) {
	data, err := c.Do(ctx, admin, Request{Operation: "ShopPlan", Query: shopPlanQuery})
	if err != nil {
		return false, fmt.Errorf("shop plan: %w", err)
	}
	flag := data.Get("shop.plan.partnerDevelopment")
	if !flag.Exists() {
		return false, fmt.Errorf("shop plan: partnerDevelopment missing from response")
	}
	return flag.Bool(), nil
}
