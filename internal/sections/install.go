package sections

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"sectionshop/internal/catalog"
	"sectionshop/internal/models"
	"sectionshop/internal/shopify"
)

// ThemeFiles writes files into a remote theme.
type ThemeFiles interface {
	UpsertThemeFiles(ctx context.Context, admin shopify.Admin, themeID string, files []shopify.ThemeFile) ([]models.FieldError, error)
}

// Installer writes a section's Liquid source into a theme. It assumes the
// caller has already passed the entitlement gate for the section's plan.
type Installer struct {
	library catalog.Library
	files   ThemeFiles
}

// NewInstaller creates an installer reading sources from library.
func NewInstaller(library catalog.Library, files ThemeFiles) *Installer {
	return &Installer{library: library, files: files}
}

// Install upserts the section identified by handle into themeID.
//
// Field errors reported by the Admin API are a normal outcome and come
// back as an InstallResult with OK=false. Returned errors are
// ErrMissingTheme, ErrUnknownSection, ErrMissingSource (wrapped) or a
// *RemoteError for transport failures.
func (in *Installer) Install(ctx context.Context, admin shopify.Admin, themeID, handle string) (models.InstallResult, error) {
	themeID = strings.TrimSpace(themeID)
	if themeID == "" {
		return models.InstallResult{}, ErrMissingTheme
	}

	section, ok := catalog.ByHandle(handle)
	if !ok {
		return models.InstallResult{}, fmt.Errorf("%w: %s", ErrUnknownSection, handle)
	}

	body, err := in.library.Load(ctx, section.Handle)
	if err != nil {
		return models.InstallResult{}, err
	}

	fieldErrs, err := in.files.UpsertThemeFiles(ctx, admin, themeID, []shopify.ThemeFile{
		{Filename: section.ThemeFilename, Body: body},
	})
	if err != nil {
		return models.InstallResult{}, &RemoteError{Err: err}
	}

	if len(fieldErrs) > 0 {
		slog.Warn("section install rejected",
			"shop", admin.Shop,
			"theme_id", themeID,
			"section", section.Handle,
			"errors", len(fieldErrs),
		)
		return models.InstallResult{OK: false, Errors: fieldErrs}, nil
	}

	slog.Info("section installed",
		"shop", admin.Shop,
		"section", section.Handle,
		"theme_id", themeID,
		"filename", section.ThemeFilename,
	)
	return models.InstallResult{
		OK:                true,
		InstalledFilename: section.ThemeFilename,
		ThemeEditorURL:    BuildThemeEditorURL(admin.Shop, themeID),
	}, nil
}
