package sections

import (
	"fmt"
	"regexp"

	"sectionshop/internal/shopify"
)

// trailingDigits captures the numeric id at the end of a theme GID such as
// gid://shopify/OnlineStoreTheme/123456789.
var trailingDigits = regexp.MustCompile(`(\d+)$`)

// BuildThemeEditorURL returns the theme editor link for a shop and theme
// id, or "" when the id has no trailing numeric segment.
func BuildThemeEditorURL(shop, themeID string) string {
	m := trailingDigits.FindStringSubmatch(themeID)
	if m == nil {
		return ""
	}
	return fmt.Sprintf("https://admin.shopify.com/store/%s/themes/%s/editor", shopify.StoreHandle(shop), m[1])
}
