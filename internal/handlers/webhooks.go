package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"sectionshop/internal/metrics"
	"sectionshop/internal/shopify"
)

// maxWebhookBody bounds the payload read before signature verification.
const maxWebhookBody = 1 << 20

// Webhook topics the app subscribes to.
const (
	topicAppUninstalled       = "app/uninstalled"
	topicShopRedact           = "shop/redact"
	topicCustomersRedact      = "customers/redact"
	topicCustomersDataRequest = "customers/data_request"
)

// ShopRemover deletes a shop's stored access token.
type ShopRemover interface {
	DeleteByShop(ctx context.Context, shop string) (int64, error)
}

// ShopSessionDestroyer removes every browser session of a shop.
type ShopSessionDestroyer interface {
	DestroyShop(ctx context.Context, shop string) (int, error)
}

// Webhooks handles Shopify webhook deliveries.
type Webhooks struct {
	apiSecret string
	shops     ShopRemover
	sessions  ShopSessionDestroyer
}

// NewWebhooks creates a new Webhooks handler group.
func NewWebhooks(apiSecret string, shops ShopRemover, sessions ShopSessionDestroyer) *Webhooks {
	return &Webhooks{
		apiSecret: apiSecret,
		shops:     shops,
		sessions:  sessions,
	}
}

// AppUninstalled forgets everything stored for the shop.
func (h *Webhooks) AppUninstalled(w http.ResponseWriter, r *http.Request) {
	shop, ok := h.verify(w, r, topicAppUninstalled)
	if !ok {
		return
	}
	h.forget(w, r, topicAppUninstalled, shop)
}

// Compliance handles the mandatory privacy webhooks. The app keeps no
// customer data, so only shop/redact has anything to delete.
func (h *Webhooks) Compliance(w http.ResponseWriter, r *http.Request) {
	topic := r.Header.Get("X-Shopify-Topic")
	shop, ok := h.verify(w, r, topic)
	if !ok {
		return
	}

	switch topic {
	case topicShopRedact:
		h.forget(w, r, topic, shop)
	case topicCustomersRedact, topicCustomersDataRequest:
		metrics.WebhooksTotal.WithLabelValues(topic, "ok").Inc()
		w.WriteHeader(http.StatusOK)
	default:
		metrics.WebhooksTotal.WithLabelValues(topic, "unknown_topic").Inc()
		http.Error(w, "Unknown topic", http.StatusBadRequest)
	}
}

// verify checks the delivery signature and shop header.
func (h *Webhooks) verify(w http.ResponseWriter, r *http.Request, topic string) (string, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		metrics.WebhooksTotal.WithLabelValues(topic, "read_error").Inc()
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return "", false
	}

	if !shopify.VerifyWebhookHMAC(body, r.Header.Get("X-Shopify-Hmac-Sha256"), h.apiSecret) {
		slog.Warn("webhook signature mismatch", "topic", topic)
		metrics.WebhooksTotal.WithLabelValues(topic, "unauthorized").Inc()
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return "", false
	}

	shop := r.Header.Get("X-Shopify-Shop-Domain")
	if !shopify.ValidShopDomain(shop) {
		metrics.WebhooksTotal.WithLabelValues(topic, "bad_shop").Inc()
		http.Error(w, "Invalid shop domain", http.StatusBadRequest)
		return "", false
	}
	return shop, true
}

// forget deletes the shop's offline token and browser sessions.
func (h *Webhooks) forget(w http.ResponseWriter, r *http.Request, topic, shop string) {
	tokens, err := h.shops.DeleteByShop(r.Context(), shop)
	if err != nil {
		slog.Error("delete shop session failed", "topic", topic, "shop", shop, "error", err)
		metrics.WebhooksTotal.WithLabelValues(topic, "error").Inc()
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	browsers, err := h.sessions.DestroyShop(r.Context(), shop)
	if err != nil {
		// The offline token is already gone, so the shop cannot act anymore.
		slog.Warn("destroy browser sessions failed", "shop", shop, "error", err)
	}

	slog.Info("shop data removed", "topic", topic, "shop", shop, "tokens", tokens, "browser_sessions", browsers)
	metrics.WebhooksTotal.WithLabelValues(topic, "ok").Inc()
	w.WriteHeader(http.StatusOK)
}
