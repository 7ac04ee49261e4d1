// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package sections implements the purchase-then-install workflow: the
// entitlement gate that makes sure a shop has paid for a section's billing
// plan, and the installer that writes the section's Liquid source into a
// storefront theme.
package sections

import (
	"errors"

	"sectionshop/internal/catalog"
)

var (
	// ErrMissingTheme is returned when an install names no target theme.
	ErrMissingTheme = errors.New("sections: missing theme id")

	// ErrUnknownIntent is returned for an action other than purchase or
	// install.
	ErrUnknownIntent = errors.New("sections: unknown intent")

	// ErrUnknownSection is returned for handles not in the catalog.
	ErrUnknownSection = catalog.ErrUnknownSection

	// ErrMissingSource is returned when the section's Liquid source is not
	// deployed. It indicates a configuration defect and is never turned
	// into a user-facing result.
	ErrMissingSource = catalog.ErrMissingSource
)

// BillingError wraps any failure talking to the billing provider. The
// protected action must not run when it is returned.
type BillingError struct {
	Plan string
	Err  error
}

func (e *BillingError) Error() string {
	return "billing check for " + e.Plan + " failed: " + e.Err.Error()
}

func (e *BillingError) Unwrap() error { return e.Err }

// RemoteError wraps a transport or API failure of the theme file write.
type RemoteError struct {
	Err error
}

func (e *RemoteError) Error() string {
	return "theme file upsert failed: " + e.Err.Error()
}

func (e *RemoteError) Unwrap() error { return e.Err }
