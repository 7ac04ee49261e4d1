package shopify

import (
	"context"
	"fmt"

	"sectionshop/internal/models"
)

const themesQuery = `query Themes {
  themes(first: 50) {
    nodes { id name role }
  }
}`

const themeFilesUpsertMutation = `mutation ThemeFilesUpsert($themeId: ID!, $files: [OnlineStoreThemeFilesUpsertFileInput!]!) {
  themeFilesUpsert(themeId: $themeId, files: $files) {
    upsertedThemeFiles { filename }
    userErrors { field message }
  }
}`

// ThemeFile is a text file to write into a theme.
type ThemeFile struct {
	Filename string
	Body     string
}

// ListThemes returns the shop's themes (up to 50) in API order.
func (c *Client) ListThemes(ctx context.Context, admin Admin) ([]models.Theme, error) {
	data, err := c.Do(ctx, admin, Request{Operation: "Themes", Query: themesQuery})
	if err != nil {
		return nil, fmt.Errorf("list themes: %w", err)
	}

	var themes []models.Theme
	for _, n := range data.Get("themes.nodes").Array() {
		themes = append(themes, models.Theme{
			ID:   n.Get("id").String(),
			Name: n.Get("name").String(),
			Role: n.Get("role").String(),
		})
	}
	return themes, nil
}

// UpsertThemeFiles creates or overwrites files in a theme. Transport and
// API failures are returned as err; per-field validation problems reported
// by the API are returned as field errors with a nil err.
func (c *Client) UpsertThemeFiles(ctx context.Context, admin Admin, themeID string, files []ThemeFile) ([]models.FieldError, error) {
	inputs := make([]map[string]any, 0, len(files))
	for _, f := range files {
		inputs = append(inputs, map[string]any{
			"filename": f.Filename,
			"body": map[string]any{
				"type":  "TEXT",
				"value": f.Body,
			},
		})
	}

	data, err := c.Do(ctx, admin, Request{
		Operation: "ThemeFilesUpsert",
		Query:     themeFilesUpsertMutation,
		Variables: map[string]any{
			"themeId": themeID,
			"files":   inputs,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upsert theme files: %w", err)
	}

	return parseUserErrors(data.Get("themeFilesUpsert.userErrors")), nil
}
