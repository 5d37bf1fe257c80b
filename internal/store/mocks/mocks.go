// Package mocks provides testify mocks of the store interfaces and the blob
// and profile collaborators, shared by the service and transport tests.
package mocks

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"catalog-service/internal/blob"
	"catalog-service/internal/domain"
	"catalog-service/internal/i18n"
	"catalog-service/internal/profile"
	"catalog-service/internal/store"
)

// Create and Update methods accept either a fixed value or a function of the
// call arguments as their first return value.

// CategoryStorer is a mock implementation of store.CategoryStorer.
type CategoryStorer struct {
	mock.Mock
}

var _ store.CategoryStorer = (*CategoryStorer)(nil)

func (m *CategoryStorer) ListEnabledCategories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	var categories []domain.Category
	if arg0 := args.Get(0); arg0 != nil {
		categories = arg0.([]domain.Category)
	}
	return categories, args.Error(1)
}

func (m *CategoryStorer) ListCategories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	var categories []domain.Category
	if arg0 := args.Get(0); arg0 != nil {
		categories = arg0.([]domain.Category)
	}
	return categories, args.Error(1)
}

func (m *CategoryStorer) GetCategoryByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *CategoryStorer) CategoryParents(ctx context.Context) (map[uuid.UUID]*uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*uuid.UUID), args.Error(1)
}

func (m *CategoryStorer) SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, slug, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *CategoryStorer) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	args := m.Called(ctx, category)
	if rf, ok := args.Get(0).(func(context.Context, *domain.Category) *domain.Category); ok {
		return rf(ctx, category), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *CategoryStorer) UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	args := m.Called(ctx, category)
	if rf, ok := args.Get(0).(func(context.Context, *domain.Category) *domain.Category); ok {
		return rf(ctx, category), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *CategoryStorer) DisableCategory(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// AttributeStorer is a mock implementation of store.AttributeStorer.
type AttributeStorer struct {
	mock.Mock
}

var _ store.AttributeStorer = (*AttributeStorer)(nil)

func (m *AttributeStorer) ListAttributes(ctx context.Context, categoryID uuid.UUID) ([]domain.CategoryAttribute, error) {
	args := m.Called(ctx, categoryID)
	var attrs []domain.CategoryAttribute
	if arg0 := args.Get(0); arg0 != nil {
		attrs = arg0.([]domain.CategoryAttribute)
	}
	return attrs, args.Error(1)
}

func (m *AttributeStorer) GetAttributeByID(ctx context.Context, id uuid.UUID) (*domain.CategoryAttribute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CategoryAttribute), args.Error(1)
}

func (m *AttributeStorer) CreateAttribute(ctx context.Context, attr *domain.CategoryAttribute) (*domain.CategoryAttribute, error) {
	args := m.Called(ctx, attr)
	if rf, ok := args.Get(0).(func(context.Context, *domain.CategoryAttribute) *domain.CategoryAttribute); ok {
		return rf(ctx, attr), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CategoryAttribute), args.Error(1)
}

func (m *AttributeStorer) CreateOption(ctx context.Context, opt *domain.AttributeOption) (*domain.AttributeOption, error) {
	args := m.Called(ctx, opt)
	if rf, ok := args.Get(0).(func(context.Context, *domain.AttributeOption) *domain.AttributeOption); ok {
		return rf(ctx, opt), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AttributeOption), args.Error(1)
}

func (m *AttributeStorer) SetOptionActive(ctx context.Context, optionID uuid.UUID, active bool) error {
	return m.Called(ctx, optionID, active).Error(0)
}

// GeoStorer is a mock implementation of store.GeoStorer.
type GeoStorer struct {
	mock.Mock
}

var _ store.GeoStorer = (*GeoStorer)(nil)

func (m *GeoStorer) ListRegions(ctx context.Context) ([]domain.Region, error) {
	args := m.Called(ctx)
	var regions []domain.Region
	if arg0 := args.Get(0); arg0 != nil {
		regions = arg0.([]domain.Region)
	}
	return regions, args.Error(1)
}

func (m *GeoStorer) ListCities(ctx context.Context, filter store.CityFilter) ([]domain.City, error) {
	args := m.Called(ctx, filter)
	var cities []domain.City
	if arg0 := args.Get(0); arg0 != nil {
		cities = arg0.([]domain.City)
	}
	return cities, args.Error(1)
}

func (m *GeoStorer) GetCity(ctx context.Context, id uuid.UUID) (*domain.City, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.City), args.Error(1)
}

func (m *GeoStorer) CityNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]i18n.Translations, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]i18n.Translations), args.Error(1)
}

// ListingStorer is a mock implementation of store.ListingStorer.
type ListingStorer struct {
	mock.Mock
}

var _ store.ListingStorer = (*ListingStorer)(nil)

func (m *ListingStorer) CreateListing(ctx context.Context, listing *domain.Listing, values []domain.ListingAttributeValue) (*domain.Listing, error) {
	args := m.Called(ctx, listing, values)
	if rf, ok := args.Get(0).(func(context.Context, *domain.Listing, []domain.ListingAttributeValue) *domain.Listing); ok {
		return rf(ctx, listing, values), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *ListingStorer) GetListingByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *ListingStorer) UpdateListing(ctx context.Context, listing *domain.Listing, values []domain.ListingAttributeValue) (*domain.Listing, error) {
	args := m.Called(ctx, listing, values)
	if rf, ok := args.Get(0).(func(context.Context, *domain.Listing, []domain.ListingAttributeValue) *domain.Listing); ok {
		return rf(ctx, listing, values), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *ListingStorer) ReplaceAttributeValues(ctx context.Context, listingID uuid.UUID, values []domain.ListingAttributeValue) error {
	return m.Called(ctx, listingID, values).Error(0)
}

func (m *ListingStorer) ListAttributeValues(ctx context.Context, listingID uuid.UUID) ([]domain.ListingAttributeValue, error) {
	args := m.Called(ctx, listingID)
	var values []domain.ListingAttributeValue
	if arg0 := args.Get(0); arg0 != nil {
		values = arg0.([]domain.ListingAttributeValue)
	}
	return values, args.Error(1)
}

func (m *ListingStorer) ListPublishedListings(ctx context.Context, params store.ListListingsParams) ([]domain.ListingCard, error) {
	args := m.Called(ctx, params)
	var cards []domain.ListingCard
	if arg0 := args.Get(0); arg0 != nil {
		cards = arg0.([]domain.ListingCard)
	}
	return cards, args.Error(1)
}

// PhotoStorer is a mock implementation of store.PhotoStorer.
type PhotoStorer struct {
	mock.Mock
}

var _ store.PhotoStorer = (*PhotoStorer)(nil)

func (m *PhotoStorer) ListPhotos(ctx context.Context, listingID uuid.UUID) ([]domain.ListingPhoto, error) {
	args := m.Called(ctx, listingID)
	var photos []domain.ListingPhoto
	if arg0 := args.Get(0); arg0 != nil {
		photos = arg0.([]domain.ListingPhoto)
	}
	return photos, args.Error(1)
}

func (m *PhotoStorer) AddPhoto(ctx context.Context, listingID uuid.UUID, url string, requestedMain bool) (*domain.ListingPhoto, error) {
	args := m.Called(ctx, listingID, url, requestedMain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ListingPhoto), args.Error(1)
}

func (m *PhotoStorer) SetMainPhoto(ctx context.Context, listingID, photoID uuid.UUID) error {
	return m.Called(ctx, listingID, photoID).Error(0)
}

func (m *PhotoStorer) DeletePhoto(ctx context.Context, listingID, photoID uuid.UUID) (*domain.ListingPhoto, error) {
	args := m.Called(ctx, listingID, photoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ListingPhoto), args.Error(1)
}

// BlobStore is a mock implementation of blob.Store. Put drains the reader
// before recording the call so size limits enforced by the body apply.
type BlobStore struct {
	mock.Mock
}

var _ blob.Store = (*BlobStore)(nil)

func (m *BlobStore) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	args := m.Called(ctx, key, contentType)
	return args.String(0), args.Error(1)
}

func (m *BlobStore) Delete(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

// ProfileClient is a mock implementation of profile.Client.
type ProfileClient struct {
	mock.Mock
}

var _ profile.Client = (*ProfileClient)(nil)

func (m *ProfileClient) GetSeller(ctx context.Context, id uuid.UUID) (*domain.Seller, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Seller), args.Error(1)
}
