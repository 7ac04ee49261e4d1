// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package shopify is a small client for the parts of the Shopify platform
// the app depends on: the Admin GraphQL API (themes, billing, shop plan),
// the OAuth install flow, session tokens, and HMAC-signed callbacks.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"sectionshop/internal/metrics"
	"sectionshop/internal/models"
)

// DefaultAPIVersion is the Admin API version requested when none is configured.
const DefaultAPIVersion = "2025-07"

// ErrUnauthorized means the Admin API rejected the access token (for
// example after the app was uninstalled).
var ErrUnauthorized = errors.New("shopify: access token rejected")

// Admin is the authenticated admin context for one shop: its myshopify
// domain and the offline access token used for Admin API calls.
type Admin struct {
	Shop        string
	AccessToken string
}

// Request is a single GraphQL operation.
type Request struct {
	// Operation names the request for logs and metrics, e.g. "ThemeFilesUpsert".
	Operation string
	Query     string
	Variables map[string]any
}

// APIError is returned when the Admin API answers with a non-200 status.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shopify API error (status %d): %s", e.Status, e.Body)
}

// GraphQLError carries the top-level "errors" array of a GraphQL response.
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return "shopify graphql: " + strings.Join(e.Messages, "; ")
}

// Client performs Admin GraphQL requests.
type Client struct {
	apiVersion string
	http       *http.Client
	// baseURL maps a shop domain to its API origin. Tests point it at an
	// httptest server.
	baseURL func(shop string) string
}

// NewClient creates an Admin API client for the given API version.
func NewClient(apiVersion string) *Client {
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	return &Client{
		apiVersion: apiVersion,
		http:       &http.Client{Timeout: 30 * time.Second},
		baseURL: func(shop string) string {
			return "https://" + shop
		},
	}
}

// WithBaseURL returns a copy of the client that sends every request to
// base regardless of shop. Used in tests and for local API mocks.
func (c *Client) WithBaseURL(base string) *Client {
	cp := *c
	base = strings.TrimRight(base, "/")
	cp.baseURL = func(string) string { return base }
	return &cp
}

// Endpoint returns the GraphQL endpoint URL for a shop.
func (c *Client) Endpoint(shop string) string {
	return c.baseURL(shop) + "/admin/api/" + c.apiVersion + "/graphql.json"
}

type graphQLBody struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// Do sends a GraphQL request on behalf of admin and returns the "data"
// object of the response. Non-200 statuses and top-level GraphQL errors
// are returned as *APIError and *GraphQLError.
func (c *Client) Do(ctx context.Context, admin Admin, req Request) (gjson.Result, error) {
	start := time.Now()
	status := "error"
	defer func() {
		metrics.ShopifyRequestDuration.WithLabelValues(req.Operation, status).Observe(time.Since(start).Seconds())
	}()

	payload, err := json.Marshal(graphQLBody{Query: req.Query, Variables: req.Variables})
	if err != nil {
		return gjson.Result{}, fmt.Errorf("shopify marshal %s: %w", req.Operation, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(admin.Shop), bytes.NewReader(payload))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("shopify request %s: %w", req.Operation, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Shopify-Access-Token", admin.AccessToken)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("shopify http %s: %w", req.Operation, err)
	}
	defer resp.Body.Close()
	status = strconv.Itoa(resp.StatusCode)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("shopify read body %s: %w", req.Operation, err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return gjson.Result{}, fmt.Errorf("%s: %w", req.Operation, ErrUnauthorized)
	}
	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}
	if !gjson.ValidBytes(respBody) {
		return gjson.Result{}, fmt.Errorf("shopify %s: malformed response body", req.Operation)
	}

	parsed := gjson.ParseBytes(respBody)
	if errs := parsed.Get("errors"); errs.Exists() {
		gqlErr := &GraphQLError{}
		if errs.IsArray() {
			for _, e := range errs.Array() {
				gqlErr.Messages = append(gqlErr.Messages, e.Get("message").String())
			}
		} else {
			gqlErr.Messages = append(gqlErr.Messages, errs.String())
		}
		return gjson.Result{}, gqlErr
	}

	data := parsed.Get("data")
	if !data.Exists() {
		return gjson.Result{}, fmt.Errorf("shopify %s: response has no data", req.Operation)
	}
	return data, nil
}

// parseUserErrors converts a GraphQL userErrors array into field errors.
func parseUserErrors(list gjson.Result) []models.FieldError {
	var out []models.FieldError
	for _, e := range list.Array() {
		fe := models.FieldError{Message: e.Get("message").String()}
		for _, f := range e.Get("field").Array() {
			fe.Field = append(fe.Field, f.String())
		}
		out = append(out, fe)
	}
	return out
}
