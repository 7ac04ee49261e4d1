package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"sectionshop/internal/models"
)

// wantsJSON reports whether the client asked for a JSON response.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", "error", err)
	}
}

// fail writes an error in the representation the client asked for. JSON
// callers get the same envelope as action results.
func fail(w http.ResponseWriter, r *http.Request, status int, message string) {
	if wantsJSON(r) {
		writeJSON(w, status, models.InstallResult{
			Errors: []models.FieldError{{Message: message}},
		})
		return
	}
	http.Error(w, message, status)
}

// redirectTop sends the merchant to an external URL such as a billing
// confirmation page. HTMX gets HX-Redirect so the whole page navigates.
func redirectTop(w http.ResponseWriter, r *http.Request, target string) {
	switch {
	case wantsJSON(r):
		writeJSON(w, http.StatusOK, models.InstallResult{ConfirmationURL: target})
	case isHTMX(r):
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
	default:
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}
