package sections

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"sectionshop/internal/catalog"
	"sectionshop/internal/models"
	"sectionshop/internal/shopify"
)

// fakeBilling records calls and returns canned answers.
type fakeBilling struct {
	active      bool
	checkErr    error
	partnerDev  bool
	partnerErr  error
	confirm     string
	requestErr  error
	checked     [][]string
	requests    []shopify.PurchaseRequest
	partnerHits int
}

func (f *fakeBilling) HasActivePayment(_ context.Context, _ shopify.Admin, plans []string) (bool, error) {
	f.checked = append(f.checked, plans)
	return f.active, f.checkErr
}

func (f *fakeBilling) RequestPurchase(_ context.Context, _ shopify.Admin, req shopify.PurchaseRequest) (string, error) {
	f.requests = append(f.requests, req)
	if f.requestErr != nil {
		return "", f.requestErr
	}
	return f.confirm, nil
}

func (f *fakeBilling) IsPartnerDevelopment(_ context.Context, _ shopify.Admin) (bool, error) {
	f.partnerHits++
	return f.partnerDev, f.partnerErr
}

// fakeFiles records upserts and returns canned field errors.
type fakeFiles struct {
	fieldErrs []models.FieldError
	err       error
	calls     int
	themeID   string
	files     []shopify.ThemeFile
}

func (f *fakeFiles) UpsertThemeFiles(_ context.Context, _ shopify.Admin, themeID string, files []shopify.ThemeFile) ([]models.FieldError, error) {
	f.calls++
	f.themeID = themeID
	f.files = files
	return f.fieldErrs, f.err
}

// fakeLibrary serves sources from a map.
type fakeLibrary map[string]string

func (l fakeLibrary) Load(_ context.Context, handle string) (string, error) {
	body, ok := l[handle]
	if !ok {
		return "", catalog.ErrMissingSource
	}
	return body, nil
}

var testAdmin = shopify.Admin{Shop: "my-shop.myshopify.com", AccessToken: "shpat_test"}

func trustBar() models.Section {
	s, ok := catalog.ByHandle("p5-trust-builder-bar")
	if !ok {
		panic("trust bar missing from catalog")
	}
	return s
}

// captureLogs routes the default logger into a buffer for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}
