// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the embedded app UI.
// It supports full-page and HTMX partial rendering, automatically detecting
// the request type via the HX-Request header.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"sectionshop/internal/middleware"
)

//go:embed templates/app/*.html
var appFS embed.FS

const templateDir = "templates/app"

// PageData holds all data passed to app templates.
type PageData struct {
	Title     string         // Page title for <title> tag
	Nav       string         // Active navigation entry (e.g., "sections")
	Shop      string         // Shop domain the page is rendered for
	Host      string         // App Bridge host parameter
	APIKey    string         // Public app key App Bridge initializes with
	CSRFToken string         // CSRF token for forms and HTMX headers
	Data      map[string]any // Page-specific data
	Flashes   []Flash        // One-time notification messages
}

// Flash represents a one-time notification message displayed to the user.
type Flash struct {
	Type    string // "success", "critical", "warning", "info"
	Message string
}

// Renderer handles template parsing and execution for app pages.
type Renderer struct {
	templates map[string]*template.Template
	funcMap   template.FuncMap
	apiKey    string
}

// New creates a Renderer by parsing all app templates from the embedded
// filesystem. Each page template is paired with the base layout.
// When devMode is true, templates use CDN-hosted TailwindCSS; when false,
// they reference the local stylesheet under /static/.
func New(devMode bool, apiKey string) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		apiKey:    apiKey,
		funcMap: template.FuncMap{
			"activeClass": func(current, target string) string {
				if current == target {
					return "font-semibold text-gray-900"
				}
				return "text-gray-500 hover:text-gray-900"
			},
			"isDev": func() bool {
				return devMode
			},
			// withShop appends the shop query parameter so links keep working
			// outside the embedded admin.
			"withShop": func(path, shop string) string {
				if shop == "" {
					return path
				}
				sep := "?"
				if strings.Contains(path, "?") {
					sep = "&"
				}
				return path + sep + "shop=" + shop
			},
		},
	}

	pages, err := fs.Glob(appFS, templateDir+"/*.html")
	if err != nil {
		return nil, fmt.Errorf("glob templates: %w", err)
	}

	for _, page := range pages {
		name := page[len(templateDir)+1:]
		if name == "base.html" {
			continue
		}
		tmplName := strings.TrimSuffix(name, ".html")

		tmpl, err := template.New("base.html").Funcs(r.funcMap).ParseFS(
			appFS, templateDir+"/base.html", page,
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[tmplName] = tmpl
	}

	return r, nil
}

// Page renders a full app page or an HTMX partial with status 200. For
// HTMX requests only the "content" block is sent.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	rn.PageStatus(w, r, http.StatusOK, name, data)
}

// PageStatus is Page with an explicit status code.
func (rn *Renderer) PageStatus(w http.ResponseWriter, r *http.Request, status int, name string, data *PageData) {
	block := "base.html"
	if isHTMX(r) {
		block = "content"
	}
	rn.execute(w, r, status, name, block, data)
}

// Fragment renders a single named block of a page template, e.g. the
// result banner swapped in after an HTMX form post.
func (rn *Renderer) Fragment(w http.ResponseWriter, r *http.Request, status int, name, block string, data *PageData) {
	rn.execute(w, r, status, name, block, data)
}

func (rn *Renderer) execute(w http.ResponseWriter, r *http.Request, status int, name, block string, data *PageData) {
	tmpl, ok := rn.templates[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}

	data.CSRFToken = middleware.CSRFTokenFromCtx(r.Context())
	data.APIKey = rn.apiKey
	if data.Shop == "" {
		if admin, ok := middleware.AdminFromCtx(r.Context()); ok {
			data.Shop = admin.Shop
		}
	}
	if data.Host == "" {
		data.Host = r.URL.Query().Get("host")
	}

	// Buffer so a template error does not leave a half-written page.
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, block, data); err != nil {
		slog.Error("template execute failed", "template", name, "block", block, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// isHTMX returns true if the request was made by HTMX (has HX-Request header).
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
