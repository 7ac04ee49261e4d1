// Package web provides embedded static assets for the app UI. In
// development, templates load TailwindCSS from a CDN; in production the
// stylesheet embedded here is served at /static/.
package web

import "embed"

// StaticFS embeds the web/static/ directory tree.
//
//go:embed all:static
var StaticFS embed.FS
