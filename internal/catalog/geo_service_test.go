package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"catalog-service/internal/domain"
	"catalog-service/internal/i18n"
	"catalog-service/internal/store"
	"catalog-service/internal/store/mocks"
)

func TestGeoService_ListRegions_SortedByResolvedName(t *testing.T) {
	gs := new(mocks.GeoStorer)
	svc := NewGeoService(gs, zap.NewNop())
	ctx := context.Background()
	gs.On("ListRegions", ctx).Return([]domain.Region{
		{ID: uuid.New(), Code: "shirak", Names: i18n.Translations{"ru": "Ширак", "en": "Shirak"}},
		{ID: uuid.New(), Code: "ararat", Names: i18n.Translations{"ru": "Арарат"}},
		{ID: uuid.New(), Code: "lori"},
	}, nil)

	regions, err := svc.ListRegions(ctx, "en")

	require.NoError(t, err)
	require.Len(t, regions, 3)
	assert.Equal(t, "Shirak", regions[0].Name)
	assert.Equal(t, "lori", regions[1].Name, "no names falls back to code")
	assert.Equal(t, "Арарат", regions[2].Name)
}

func TestGeoService_ListCities_PassesFilter(t *testing.T) {
	gs := new(mocks.GeoStorer)
	svc := NewGeoService(gs, zap.NewNop())
	ctx := context.Background()
	regionID := uuid.New()
	gs.On("ListCities", ctx, store.CityFilter{RegionCode: "shirak", Query: "gyu", Lang: "hi"}).Return([]domain.City{
		{ID: uuid.New(), RegionID: &regionID, Code: "gyumri", Names: i18n.Translations{"hi": "ग्युमरी", "ru": "Гюмри"}},
	}, nil).Once()

	cities, err := svc.ListCities(ctx, CityQuery{Region: "shirak", Lang: "hi", Query: "gyu"})

	require.NoError(t, err)
	require.Len(t, cities, 1)
	assert.Equal(t, "ग्युमरी", cities[0].Name)
	assert.Equal(t, &regionID, cities[0].RegionID)
	gs.AssertExpectations(t)
}

func TestGeoService_SearchCities_ShortQuery(t *testing.T) {
	gs := new(mocks.GeoStorer)
	svc := NewGeoService(gs, zap.NewNop())

	items, err := svc.SearchCities(context.Background(), "ru", " е ")

	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
	gs.AssertNotCalled(t, "ListCities", mock.Anything, mock.Anything)
}

func TestGeoService_SearchCities_IncludesRegion(t *testing.T) {
	gs := new(mocks.GeoStorer)
	svc := NewGeoService(gs, zap.NewNop())
	ctx := context.Background()
	regionID := uuid.New()
	region := &domain.Region{ID: regionID, Code: "shirak", Names: i18n.Translations{"ru": "Ширак"}}
	gs.On("ListCities", ctx, store.CityFilter{Query: "Ер", Lang: "ru", Limit: citySearchLimit}).Return([]domain.City{
		{ID: uuid.New(), Code: "yerevan", Names: i18n.Translations{"ru": "Ереван"}},
		{ID: uuid.New(), RegionID: &regionID, Region: region, Code: "erazgavors", Names: i18n.Translations{"ru": "Еразгаворс"}},
	}, nil).Once()

	items, err := svc.SearchCities(ctx, "", " Ер ")

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Еразгаворс", items[0].Name)
	assert.Equal(t, "Ширак", items[0].RegionName)
	assert.Equal(t, "Ереван", items[1].Name)
	assert.Empty(t, items[1].RegionName)
	gs.AssertExpectations(t)
}
