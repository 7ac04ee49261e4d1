// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the HTTP handlers of the sections app: the
// catalog pages and purchase/install actions, the OAuth install flow and
// the Shopify webhooks.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"sectionshop/internal/catalog"
	"sectionshop/internal/metrics"
	"sectionshop/internal/middleware"
	"sectionshop/internal/models"
	"sectionshop/internal/render"
	"sectionshop/internal/sections"
	"sectionshop/internal/shopify"
)

// ThemeLister lists a shop's storefront themes.
type ThemeLister interface {
	ListThemes(ctx context.Context, admin shopify.Admin) ([]models.Theme, error)
}

// Entitler makes sure a shop has paid for a section.
type Entitler interface {
	Ensure(ctx context.Context, admin shopify.Admin, section models.Section) (models.Entitlement, error)
}

// SectionInstaller writes a section into a theme.
type SectionInstaller interface {
	Install(ctx context.Context, admin shopify.Admin, themeID, handle string) (models.InstallResult, error)
}

// Sections groups the catalog pages and section actions.
type Sections struct {
	renderer  *render.Renderer
	themes    ThemeLister
	gate      Entitler
	installer SectionInstaller
}

// NewSections creates a new Sections handler group.
func NewSections(renderer *render.Renderer, themes ThemeLister, gate Entitler, installer SectionInstaller) *Sections {
	return &Sections{
		renderer:  renderer,
		themes:    themes,
		gate:      gate,
		installer: installer,
	}
}

// List renders the catalog.
func (h *Sections) List(w http.ResponseWriter, r *http.Request) {
	all := catalog.All()

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{"sections": all})
		return
	}

	h.renderer.Page(w, r, "sections", &render.PageData{
		Title: "Sections",
		Nav:   "sections",
		Data:  map[string]any{"Sections": all},
	})
}

// Detail renders one section with the shop's themes, live theme first.
func (h *Sections) Detail(w http.ResponseWriter, r *http.Request) {
	section, ok := catalog.ByHandle(chi.URLParam(r, "handle"))
	if !ok {
		fail(w, r, http.StatusNotFound, "Section not found.")
		return
	}
	admin, ok := middleware.AdminFromCtx(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	themes, err := h.listThemes(r.Context(), admin)
	if err != nil {
		slog.Error("list themes failed", "shop", admin.Shop, "error", err)
		if errors.Is(err, shopify.ErrUnauthorized) {
			fail(w, r, http.StatusUnauthorized, "Shopify rejected the access token. Reinstall the app.")
			return
		}
		fail(w, r, http.StatusBadGateway, "Could not load themes from Shopify.")
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{"section": section, "themes": themes})
		return
	}

	var flashes []render.Flash
	if r.URL.Query().Get("charge_id") != "" {
		flashes = append(flashes, render.Flash{Type: "success", Message: "Purchase approved. You can now install the section."})
	}

	h.renderer.Page(w, r, "section", &render.PageData{
		Title:   section.Title,
		Nav:     "sections",
		Flashes: flashes,
		Data:    map[string]any{"Section": section, "Themes": themes},
	})
}

// Action runs a purchase or install for a section. Both intents pass the
// entitlement gate first; an install is only attempted once the shop has
// paid.
func (h *Sections) Action(w http.ResponseWriter, r *http.Request) {
	section, ok := catalog.ByHandle(chi.URLParam(r, "handle"))
	if !ok {
		fail(w, r, http.StatusNotFound, "Section not found.")
		return
	}
	admin, ok := middleware.AdminFromCtx(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	intent := r.FormValue("intent")
	themeID := r.FormValue("themeId")
	if msg := validateAction(intent, themeID); msg != "" {
		fail(w, r, http.StatusBadRequest, msg)
		return
	}

	outcomes := metrics.PurchasesTotal
	if intent == intentInstall {
		outcomes = metrics.InstallsTotal
	}

	ent, err := h.gate.Ensure(r.Context(), admin, section)
	if err != nil {
		var billingErr *sections.BillingError
		if errors.As(err, &billingErr) {
			slog.Warn("billing check failed", "shop", admin.Shop, "plan", section.BillingPlan, "error", err)
			record(outcomes, metrics.OutcomeBillingFail)
			h.result(w, r, admin, section, models.InstallResult{
				Errors: []models.FieldError{{Message: "Billing is unavailable right now. Please try again."}},
			})
			return
		}
		slog.Error("entitlement check failed", "shop", admin.Shop, "error", err)
		record(outcomes, metrics.OutcomeError)
		fail(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if !ent.Active {
		record(outcomes, metrics.OutcomeRedirected)
		redirectTop(w, r, ent.ConfirmationURL)
		return
	}

	if intent == intentPurchase {
		record(outcomes, metrics.OutcomeEntitled)
		h.result(w, r, admin, section, models.InstallResult{OK: true})
		return
	}

	result, err := h.installer.Install(r.Context(), admin, themeID, section.Handle)
	var remoteErr *sections.RemoteError
	switch {
	case err == nil:
	case errors.Is(err, sections.ErrMissingTheme):
		record(outcomes, metrics.OutcomeRejected)
		fail(w, r, http.StatusBadRequest, "Missing theme.")
		return
	case errors.Is(err, sections.ErrUnknownSection):
		fail(w, r, http.StatusNotFound, "Section not found.")
		return
	case errors.As(err, &remoteErr):
		slog.Warn("theme file upsert failed", "shop", admin.Shop, "theme", themeID, "error", err)
		record(outcomes, metrics.OutcomeError)
		result = models.InstallResult{
			Errors: []models.FieldError{{Message: "Could not reach Shopify. Please try again."}},
		}
	default:
		// ErrMissingSource and anything unexpected is a deployment defect.
		slog.Error("install failed", "shop", admin.Shop, "section", section.Handle, "error", err)
		record(outcomes, metrics.OutcomeError)
		fail(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if result.OK {
		record(outcomes, metrics.OutcomeInstalled)
	} else if remoteErr == nil {
		record(outcomes, metrics.OutcomeRejected)
	}
	h.result(w, r, admin, section, result)
}

// result writes an action result with status 200: JSON, the banner
// fragment for HTMX, or the full detail page.
func (h *Sections) result(w http.ResponseWriter, r *http.Request, admin shopify.Admin, section models.Section, result models.InstallResult) {
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, result)
		return
	}

	data := &render.PageData{
		Title: section.Title,
		Nav:   "sections",
		Data:  map[string]any{"Section": section, "Result": &result},
	}
	if isHTMX(r) {
		h.renderer.Fragment(w, r, http.StatusOK, "section", "banner", data)
		return
	}

	themes, err := h.listThemes(r.Context(), admin)
	if err != nil {
		slog.Warn("list themes after action failed", "shop", admin.Shop, "error", err)
	}
	data.Data["Themes"] = themes
	h.renderer.Page(w, r, "section", data)
}

func (h *Sections) listThemes(ctx context.Context, admin shopify.Admin) ([]models.Theme, error) {
	themes, err := h.themes.ListThemes(ctx, admin)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(themes, func(i, j int) bool {
		return themes[i].IsLive() && !themes[j].IsLive()
	})
	return themes, nil
}

func record(outcomes *prometheus.CounterVec, outcome string) {
	outcomes.WithLabelValues(outcome).Inc()
}
