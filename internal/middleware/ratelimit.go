// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"sectionshop/internal/shopify"
)

// KeyFunc picks the bucket a request is counted against.
type KeyFunc func(r *http.Request) string

// ByClientIP counts requests per client address.
func ByClientIP(r *http.Request) string {
	return "ip:" + clientIP(r)
}

// maxWebhookBody bounds the payload read to check a delivery signature.
const maxWebhookBody = 1 << 20

// ByWebhookShop counts webhook deliveries per sending shop. Shopify delivers
// from a shared pool of addresses, so the IP says nothing about the sender.
// The shop header is only trusted once the body's HMAC matches secret;
// unsigned or forged deliveries are counted against the client IP. The body
// is restored for the handler.
func ByWebhookShop(secret string) KeyFunc {
	return func(r *http.Request) string {
		shop := r.Header.Get("X-Shopify-Shop-Domain")
		if !shopify.ValidShopDomain(shop) || r.Body == nil {
			return ByClientIP(r)
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		r.Body = io.NopCloser(bytes.NewReader(body))
		if err != nil || !shopify.VerifyWebhookHMAC(body, r.Header.Get("X-Shopify-Hmac-Sha256"), secret) {
			return ByClientIP(r)
		}
		return "shop:" + shop
	}
}

// window holds the request times of one bucket, oldest first.
type window struct {
	mu   sync.Mutex
	hits []time.Time
}

// RateLimiter is a sliding-window limiter keyed by KeyFunc.
type RateLimiter struct {
	mu      sync.RWMutex
	buckets map[string]*window
	limit   int
	period  time.Duration
	key     KeyFunc
	now     func() time.Time
	stopCh  chan struct{}
}

// NewRateLimiter allows limit requests per period for each key. A nil key
// limits by client IP. Idle buckets are swept every five minutes until Stop.
func NewRateLimiter(limit int, period time.Duration, key KeyFunc) *RateLimiter {
	if key == nil {
		key = ByClientIP
	}
	rl := &RateLimiter{
		buckets: make(map[string]*window),
		limit:   limit,
		period:  period,
		key:     key,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.sweep()
			case <-rl.stopCh:
				return
			}
		}
	}()

	return rl
}

// Stop ends the sweeper goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

func (rl *RateLimiter) bucket(key string) *window {
	rl.mu.RLock()
	b, ok := rl.buckets[key]
	rl.mu.RUnlock()
	if ok {
		return b
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if b, ok = rl.buckets[key]; !ok {
		b = &window{}
		rl.buckets[key] = b
	}
	return b
}

// take records a hit for key. When the bucket is full it records nothing
// and returns how long until the oldest hit leaves the window.
func (rl *RateLimiter) take(key string) (bool, time.Duration) {
	b := rl.bucket(key)
	now := rl.now()
	cutoff := now.Add(-rl.period)

	b.mu.Lock()
	defer b.mu.Unlock()

	drop := 0
	for drop < len(b.hits) && !b.hits[drop].After(cutoff) {
		drop++
	}
	b.hits = b.hits[drop:]

	if len(b.hits) >= rl.limit {
		return false, b.hits[0].Add(rl.period).Sub(now)
	}
	b.hits = append(b.hits, now)
	return true, 0
}

// sweep forgets buckets whose newest hit has left the window.
func (rl *RateLimiter) sweep() {
	cutoff := rl.now().Add(-rl.period)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, b := range rl.buckets {
		b.mu.Lock()
		idle := len(b.hits) == 0 || !b.hits[len(b.hits)-1].After(cutoff)
		b.mu.Unlock()
		if idle {
			delete(rl.buckets, key)
		}
	}
}

// Middleware rejects requests over the limit with 429 and a Retry-After
// header in whole seconds.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.key(r)
		ok, wait := rl.take(key)
		if !ok {
			secs := int(math.Ceil(wait.Seconds()))
			if secs < 1 {
				secs = 1
			}
			slog.Warn("rate limited", "key", key, "path", r.URL.Path, "retry_after", secs)
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the leftmost X-Forwarded-For address, then X-Real-IP,
// then RemoteAddr without its port.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
