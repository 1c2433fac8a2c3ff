package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendhub/internal/adapters/persistence/repositories"
	"lendhub/internal/core/domain"
)

func newCatalogService(t *testing.T) (*testEnv, *CatalogService) {
	t.Helper()
	env := newTestEnv(t)
	svc := NewCatalogService(
		repositories.NewSectionRepository(env.db),
		repositories.NewProductRepository(env.db),
	)
	return env, svc
}

func TestCreateSectionValidation(t *testing.T) {
	_, svc := newCatalogService(t)

	section, err := svc.CreateSection(&SectionInput{
		Code:           "AV",
		Name:           "Audio / Video",
		AllowedDaysOut: "1,2,3,4,5",
		AllowedDaysIn:  "1,2,3,4,5",
	})
	require.NoError(t, err)
	assert.True(t, section.IsActive)

	daysOut, err := section.DaysOut()
	require.NoError(t, err)
	assert.True(t, daysOut.Allows(monday))
	assert.False(t, daysOut.Allows(sunday))

	_, err = svc.CreateSection(&SectionInput{Name: "no code"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	// Weekday numbers are ISO 1..7
	_, err = svc.CreateSection(&SectionInput{
		Code:           "BAD",
		Name:           "Bad days",
		AllowedDaysOut: "0,8",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreateProductValidation(t *testing.T) {
	_, svc := newCatalogService(t)

	section, err := svc.CreateSection(&SectionInput{Code: "AV", Name: "Audio / Video"})
	require.NoError(t, err)

	price := int64(10)
	product, err := svc.CreateProduct(&ProductInput{
		SectionID:    section.ID,
		Code:         "AV-CAM-01",
		Name:         "Field camera",
		MinDuration:  1,
		MaxDuration:  14,
		PriceCredits: &price,
		CreditPeriod: string(domain.PeriodDay),
		Status:       string(domain.ProductAvailable),
	})
	require.NoError(t, err)
	assert.Equal(t, section.ID, product.SectionID)

	cases := []struct {
		name  string
		input ProductInput
	}{
		{"missing code", ProductInput{SectionID: section.ID, Name: "x", MinDuration: 1}},
		{"zero min duration", ProductInput{SectionID: section.ID, Code: "c", Name: "x", MinDuration: 0}},
		{"max below min", ProductInput{SectionID: section.ID, Code: "c", Name: "x", MinDuration: 5, MaxDuration: 3}},
		{"unknown period", ProductInput{SectionID: section.ID, Code: "c", Name: "x", MinDuration: 1, CreditPeriod: "FORTNIGHT"}},
		{"missing period", ProductInput{SectionID: section.ID, Code: "c", Name: "x", MinDuration: 1}},
		{"unknown status", ProductInput{SectionID: section.ID, Code: "c", Name: "x", MinDuration: 1, CreditPeriod: string(domain.PeriodDay), Status: "GONE"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateProduct(&tc.input)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	_, err = svc.CreateProduct(&ProductInput{
		SectionID: 999, Code: "c", Name: "x", MinDuration: 1,
		CreditPeriod: string(domain.PeriodDay),
	})
	assert.ErrorIs(t, err, ErrSectionNotFound)
}

func TestUpdateProduct(t *testing.T) {
	env, svc := newCatalogService(t)

	section := env.createSection(t, allDays(), allDays())
	product := env.createProduct(t, section.ID, 1, 14, 10, domain.PeriodDay)

	updated, err := svc.UpdateProduct(product.ID, &ProductInput{
		SectionID:   section.ID,
		Code:         product.Code,
		Name:         "Renamed kit",
		MinDuration:  2,
		MaxDuration:  7,
		CreditPeriod: string(domain.PeriodDay),
		Status:       string(domain.ProductUnavailable),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed kit", updated.Name)
	assert.Equal(t, 2, updated.MinDuration)
	assert.Equal(t, string(domain.ProductUnavailable), updated.Status)
	// Omitted price hides it
	assert.Nil(t, updated.PriceCredits)
}
