package store

import (
	"context"

	"github.com/google/uuid"

	"catalog-service/internal/domain"
	"catalog-service/internal/i18n"
)

// CategoryStorer defines the database operations for categories and their translations.
type CategoryStorer interface {
	// ListEnabledCategories returns enabled categories with their names, ordered by sort_order.
	ListEnabledCategories(ctx context.Context) ([]domain.Category, error)
	// ListCategories returns every category, newest first, with names.
	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategoryByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	// CategoryParents maps every category id to its parent id (nil for roots).
	CategoryParents(ctx context.Context) (map[uuid.UUID]*uuid.UUID, error)
	SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error)
	CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error)
	UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error)
	DisableCategory(ctx context.Context, id uuid.UUID) error
}

// AttributeStorer defines the database operations for category attribute definitions.
type AttributeStorer interface {
	// ListAttributes returns a category's attributes ordered by sort_order, each with
	// labels and all of its options (active or not) ordered by sort_order.
	ListAttributes(ctx context.Context, categoryID uuid.UUID) ([]domain.CategoryAttribute, error)
	GetAttributeByID(ctx context.Context, id uuid.UUID) (*domain.CategoryAttribute, error)
	CreateAttribute(ctx context.Context, attr *domain.CategoryAttribute) (*domain.CategoryAttribute, error)
	CreateOption(ctx context.Context, opt *domain.AttributeOption) (*domain.AttributeOption, error)
	SetOptionActive(ctx context.Context, optionID uuid.UUID, active bool) error
}

// CityFilter narrows ListCities. Query matches the name in Lang or the code.
type CityFilter struct {
	RegionCode string
	Query      string
	Lang       string
	Limit      int
}

// GeoStorer defines read access to regions and cities. Only active rows are returned.
type GeoStorer interface {
	ListRegions(ctx context.Context) ([]domain.Region, error)
	ListCities(ctx context.Context, filter CityFilter) ([]domain.City, error)
	// GetCity returns an active city with its region (if any) and names.
	GetCity(ctx context.Context, id uuid.UUID) (*domain.City, error)
	CityNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]i18n.Translations, error)
}

// ListListingsParams holds the feed filters.
type ListListingsParams struct {
	Limit      int
	CategoryID *uuid.UUID
}

// ListingStorer defines the database operations for listings and their attribute values.
type ListingStorer interface {
	CreateListing(ctx context.Context, listing *domain.Listing, values []domain.ListingAttributeValue) (*domain.Listing, error)
	GetListingByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error)
	// UpdateListing rewrites the listing row and replaces its attribute values in one transaction.
	UpdateListing(ctx context.Context, listing *domain.Listing, values []domain.ListingAttributeValue) (*domain.Listing, error)
	ReplaceAttributeValues(ctx context.Context, listingID uuid.UUID, values []domain.ListingAttributeValue) error
	ListAttributeValues(ctx context.Context, listingID uuid.UUID) ([]domain.ListingAttributeValue, error)
	ListPublishedListings(ctx context.Context, params ListListingsParams) ([]domain.ListingCard, error)
}

// PhotoStorer defines the listing photo operations. Each mutation keeps the
// "exactly one main photo" invariant inside a single transaction.
type PhotoStorer interface {
	// ListPhotos returns photos main first, then by sort_order.
	ListPhotos(ctx context.Context, listingID uuid.UUID) ([]domain.ListingPhoto, error)
	AddPhoto(ctx context.Context, listingID uuid.UUID, url string, requestedMain bool) (*domain.ListingPhoto, error)
	SetMainPhoto(ctx context.Context, listingID, photoID uuid.UUID) error
	// DeletePhoto returns the removed row so the caller can drop the blob.
	DeletePhoto(ctx context.Context, listingID, photoID uuid.UUID) (*domain.ListingPhoto, error)
}
