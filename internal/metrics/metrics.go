// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values shared by the action counters.
const (
	OutcomeEntitled    = "entitled"
	OutcomeRedirected  = "redirected"
	OutcomeInstalled   = "installed"
	OutcomeRejected    = "rejected"
	OutcomeBillingFail = "billing_error"
	OutcomeError       = "error"
)

var (
	// PurchasesTotal counts purchase actions by outcome.
	PurchasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sectionshop",
		Name:      "purchases_total",
		Help:      "Purchase actions by outcome.",
	}, []string{"outcome"})

	// InstallsTotal counts install actions by outcome.
	InstallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sectionshop",
		Name:      "installs_total",
		Help:      "Install actions by outcome.",
	}, []string{"outcome"})

	// ShopifyRequestDuration tracks Admin API latency per GraphQL operation.
	ShopifyRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sectionshop",
		Subsystem: "shopify",
		Name:      "request_duration_seconds",
		Help:      "Shopify Admin API request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "status"})

	// WebhooksTotal counts received webhooks by topic and result.
	WebhooksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sectionshop",
		Name:      "webhooks_total",
		Help:      "Received Shopify webhooks by topic and result.",
	}, []string{"topic", "result"})
)
