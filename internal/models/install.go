// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "strings"

// Entitlement is the billing state of one plan for one shop, derived per
// request. When Active is false, ConfirmationURL points at the payment
// confirmation page the merchant must visit.
type Entitlement struct {
	Active          bool   `json:"active"`
	ConfirmationURL string `json:"confirmationUrl,omitempty"`
}

// FieldError is a user-facing error reported by the Admin API, scoped to an
// input field path (may be empty for general errors).
type FieldError struct {
	Field   []string `json:"field,omitempty"`
	Message string   `json:"message"`
}

// InstallResult is the outcome of one install or purchase action. It is
// returned to the caller and never persisted.
type InstallResult struct {
	OK                bool         `json:"ok"`
	InstalledFilename string       `json:"installedFilename,omitempty"`
	ThemeEditorURL    string       `json:"themeEditorUrl,omitempty"`
	ConfirmationURL   string       `json:"confirmationUrl,omitempty"`
	Errors            []FieldError `json:"errors,omitempty"`
}

// ErrorSummary joins all error messages for display in a banner.
func (r InstallResult) ErrorSummary() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, " · ")
}
