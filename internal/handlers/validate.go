package handlers

import (
	"strings"
	"unicode/utf8"
)

// Form intents accepted by the section action.
const (
	intentPurchase = "purchase"
	intentInstall  = "install"
)

// maxThemeIDLen bounds the themeId form field. Theme GIDs are well under it.
const maxThemeIDLen = 255

// validateAction checks the action form inputs and returns the first error
// found. It runs before the entitlement check, so a malformed post never
// requests a payment.
func validateAction(intent, themeID string) string {
	switch intent {
	case intentPurchase, intentInstall:
	case "":
		return "Intent is required."
	default:
		return "Unknown intent."
	}
	if intent == intentInstall && strings.TrimSpace(themeID) == "" {
		return "Select a theme to install into."
	}
	if utf8.RuneCountInString(themeID) > maxThemeIDLen {
		return "Theme id is too long (max 255 characters)."
	}
	return ""
}
