package models

// ThemeRoleMain is the role of the theme currently published on the storefront.
const ThemeRoleMain = "MAIN"

// Theme is a read-only view of a merchant's storefront theme as returned by
// the Admin API. It is fetched per request and never persisted.
type Theme struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// IsLive reports whether the theme is the published storefront theme.
func (t Theme) IsLive() bool {
	return t.Role == ThemeRoleMain
}

// Label is the option text shown in the theme picker.
func (t Theme) Label() string {
	if t.IsLive() {
		return t.Name + " (Live)"
	}
	return t.Name
}
