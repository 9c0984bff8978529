package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/gram-portal/internal/domain"
	"github.com/spec-kit/gram-portal/internal/events"
	"github.com/spec-kit/gram-portal/internal/seed"
)

func TestListPublicHidesInactiveAndFilters(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	all, total, err := env.catalog.ListPublic(ctx, CatalogQuery{})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	for _, svc := range all {
		assert.True(t, svc.IsActive)
	}

	certs, total, err := env.catalog.ListPublic(ctx, CatalogQuery{Category: "Certificates"})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	for _, svc := range certs {
		assert.Equal(t, "Certificates", svc.Category)
	}

	wildcard, _, err := env.catalog.ListPublic(ctx, CatalogQuery{Category: domain.AllCategories, Search: "PENSION"})
	require.NoError(t, err)
	assert.Len(t, wildcard, 2)

	_, total, err = env.catalog.ListPublic(ctx, CatalogQuery{Search: "crop"})
	require.NoError(t, err)
	assert.Zero(t, total, "inactive services are hidden")

	page, total, err := env.catalog.ListPublic(ctx, CatalogQuery{Limit: 2, Offset: 6})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.Len(t, page, 1)
}

func TestListAdminSearchesCategoryAndIncludesInactive(t *testing.T) {
	env := newTestEnv(t, true)

	list, total, err := env.catalog.ListAdmin(context.Background(), CatalogQuery{Search: "agri"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Crop Damage Compensation", list[0].Title)
	assert.False(t, list[0].IsActive)
}

func TestCategoriesLeadWithWildcard(t *testing.T) {
	env := newTestEnv(t, true)
	categories, err := env.catalog.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{domain.AllCategories, "Certificates", "Licenses", "Utilities", "Welfare Schemes"}, categories)
}

func TestGetPublicHidesInactive(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	crop := env.service(t, "Crop Damage Compensation")

	_, err := env.catalog.GetPublic(ctx, crop.ID)
	assertCode(t, err, "NOT_FOUND")

	svc, err := env.catalog.Get(ctx, crop.ID)
	require.NoError(t, err)
	assert.Equal(t, crop.ID, svc.ID)

	_, err = env.catalog.Get(ctx, "missing")
	assertCode(t, err, "NOT_FOUND")
}

func TestCreateServiceNormalizesDocuments(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	admin := env.user(t, seed.AdminEmail)

	svc, err := env.catalog.Create(ctx, admin, ServiceInput{
		Title:             " Marriage Certificate ",
		Description:       "Registration of marriages",
		Category:          "Certificates",
		RequiredDocuments: []string{"", " Wedding card ", "  ", "ID proof"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Marriage Certificate", svc.Title)
	assert.Equal(t, []string{"Wedding card", "ID proof"}, svc.RequiredDocuments)
	assert.True(t, svc.IsActive)
	assert.Equal(t, admin.ID, svc.CreatedBy)
	assert.Len(t, env.events.ofType(events.EventServiceCreated), 1)

	_, err = env.catalog.Create(ctx, admin, ServiceInput{Title: "No category", Description: "x"})
	assertCode(t, err, "VALIDATION_FAILED")

	_, err = env.catalog.Create(ctx, admin, ServiceInput{Title: "Wild", Description: "x", Category: domain.AllCategories})
	assertCode(t, err, "VALIDATION_FAILED")
}

func TestUpdateAndToggleService(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	admin := env.user(t, seed.AdminEmail)
	water := env.service(t, "Water Connection")

	inactive := false
	updated, err := env.catalog.Update(ctx, admin, water.ID, ServiceInput{
		Title:       "Water Connection (Domestic)",
		Description: water.Description,
		Category:    "Utilities",
		IsActive:    &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Water Connection (Domestic)", updated.Title)
	assert.False(t, updated.IsActive)

	toggled, err := env.catalog.SetActive(ctx, admin, water.ID, true)
	require.NoError(t, err)
	assert.True(t, toggled.IsActive)

	_, err = env.catalog.SetActive(ctx, admin, "missing", true)
	assertCode(t, err, "NOT_FOUND")
}

func TestDeleteServiceRefusesWhenApplied(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	admin := env.user(t, seed.AdminEmail)

	birth := env.service(t, "Birth Certificate")
	err := env.catalog.Delete(ctx, admin, birth.ID)
	assertCode(t, err, "CONFLICT")

	license := env.service(t, "Trade License")
	require.NoError(t, env.catalog.Delete(ctx, admin, license.ID))
	_, err = env.catalog.Get(ctx, license.ID)
	assertCode(t, err, "NOT_FOUND")
	assert.Len(t, env.events.ofType(events.EventServiceDeleted), 1)
}
