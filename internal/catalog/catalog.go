// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package catalog holds the static table of purchasable sections and the
// template library that stores each section's Liquid source. The table is
// built once at package initialisation and exposed only through read
// accessors that return copies.
package catalog

import (
	"errors"

	"sectionshop/internal/models"
)

// ErrUnknownSection is returned when a handle does not name a catalog section.
var ErrUnknownSection = errors.New("catalog: unknown section handle")

// sections is the immutable catalog. Handles are unique; each billing plan
// belongs to exactly one section.
var sections = []models.Section{
	{
		Handle:        "p5-trust-builder-bar",
		Title:         "Highlights Bar",
		Description:   "A clean highlights/trust bar (icons + text) to boost confidence near add-to-cart.",
		PriceUSD:      9.99,
		BillingPlan:   "TRUST_BAR_999",
		ThemeFilename: "sections/p5-trust-builder-bar.liquid",
	},
}

// byHandle indexes sections by handle for constant-time lookup.
var byHandle = func() map[string]int {
	m := make(map[string]int, len(sections))
	for i, s := range sections {
		if _, dup := m[s.Handle]; dup {
			panic("catalog: duplicate section handle " + s.Handle)
		}
		m[s.Handle] = i
	}
	return m
}()

// All returns every section in catalog order. The returned slice is a copy.
func All() []models.Section {
	out := make([]models.Section, len(sections))
	copy(out, sections)
	return out
}

// ByHandle returns the section with the given handle, or false if the
// handle is not in the catalog.
func ByHandle(handle string) (models.Section, bool) {
	i, ok := byHandle[handle]
	if !ok {
		return models.Section{}, false
	}
	return sections[i], true
}

// Plans returns the billing plan of every section, in catalog order.
func Plans() []string {
	plans := make([]string, 0, len(sections))
	for _, s := range sections {
		plans = append(plans, s.BillingPlan)
	}
	return plans
}
