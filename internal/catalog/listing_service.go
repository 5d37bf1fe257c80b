package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"catalog-service/internal/blob"
	"catalog-service/internal/domain"
	"catalog-service/internal/i18n"
	"catalog-service/internal/profile"
	"catalog-service/internal/store"
)

const (
	defaultTake = 24
	maxTake     = 60

	// Prices are stored as NUMERIC(14,2).
	priceScale = 2
)

var priceLimit = decimal.New(1, 12)

// ListingInput is the owner supplied part of a listing. A nil Attributes map
// on update keeps the stored values unless the category changes.
type ListingInput struct {
	CategoryID  uuid.UUID
	CityID      *uuid.UUID
	Title       string
	Price       decimal.Decimal
	Description *string
	IsPublished *bool
	Attributes  map[string]any
}

// Upload is one file of a photo batch. Size is the size declared by the client.
type Upload struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// PhotoResult reports the outcome of one file of a batch.
type PhotoResult struct {
	FileName string               `json:"file_name"`
	Photo    *domain.ListingPhoto `json:"photo,omitempty"`
	Error    string               `json:"error,omitempty"`
	Err      error                `json:"-"`
}

// ListingsQuery filters the feed. A nil Take selects the default page size;
// any given value is clamped to [1, maxTake].
type ListingsQuery struct {
	Lang       string
	Take       *int
	CategoryID *uuid.UUID
}

// ListingDeps groups the collaborators of ListingService. Profiles may be nil,
// in which case listings are served without a seller.
type ListingDeps struct {
	Listings    store.ListingStorer
	Photos      store.PhotoStorer
	Categories  store.CategoryStorer
	Attributes  store.AttributeStorer
	Geo         store.GeoStorer
	Blobs       blob.Store
	Profiles    profile.Client
	PhotoPolicy blob.Policy
	Logger      *zap.Logger
}

type ListingService struct {
	listings    store.ListingStorer
	photos      store.PhotoStorer
	categories  store.CategoryStorer
	attributes  store.AttributeStorer
	geo         store.GeoStorer
	blobs       blob.Store
	profiles    profile.Client
	photoPolicy blob.Policy
	logger      *zap.Logger
}

func NewListingService(deps ListingDeps) *ListingService {
	s := &ListingService{
		listings:    deps.Listings,
		photos:      deps.Photos,
		categories:  deps.Categories,
		attributes:  deps.Attributes,
		geo:         deps.Geo,
		blobs:       deps.Blobs,
		profiles:    deps.Profiles,
		photoPolicy: deps.PhotoPolicy,
		logger:      deps.Logger,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.photoPolicy.MaxBytes == 0 {
		s.photoPolicy = blob.ListingPhotoPolicy
	}
	return s
}

func (s *ListingService) CreateListing(ctx context.Context, ownerID uuid.UUID, in ListingInput) (*domain.Listing, error) {
	listing, err := s.checkInput(ctx, in)
	if err != nil {
		return nil, err
	}
	values, err := s.validateValues(ctx, in.CategoryID, in.Attributes)
	if err != nil {
		return nil, err
	}

	listing.ID = uuid.New()
	listing.OwnerUserID = ownerID
	listing.IsPublished = true
	if in.IsPublished != nil {
		listing.IsPublished = *in.IsPublished
	}

	created, err := s.listings.CreateListing(ctx, listing, values)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Listing created",
		zap.String("listing_id", created.ID.String()),
		zap.String("owner_id", ownerID.String()),
		zap.Int("attributes", len(values)),
	)
	return created, nil
}

func (s *ListingService) UpdateListing(ctx context.Context, ownerID, listingID uuid.UUID, in ListingInput) (*domain.Listing, error) {
	existing, err := s.ownedListing(ctx, ownerID, listingID)
	if err != nil {
		return nil, err
	}
	listing, err := s.checkInput(ctx, in)
	if err != nil {
		return nil, err
	}

	var values []domain.ListingAttributeValue
	if in.Attributes != nil || in.CategoryID != existing.CategoryID {
		if values, err = s.validateValues(ctx, in.CategoryID, in.Attributes); err != nil {
			return nil, err
		}
	}

	listing.ID = existing.ID
	listing.OwnerUserID = existing.OwnerUserID
	listing.IsPublished = existing.IsPublished
	if in.IsPublished != nil {
		listing.IsPublished = *in.IsPublished
	}
	return s.listings.UpdateListing(ctx, listing, values)
}

// SetAttributeValues replaces all attribute values of a listing.
func (s *ListingService) SetAttributeValues(ctx context.Context, ownerID, listingID uuid.UUID, submitted map[string]any) error {
	listing, err := s.ownedListing(ctx, ownerID, listingID)
	if err != nil {
		return err
	}
	values, err := s.validateValues(ctx, listing.CategoryID, submitted)
	if err != nil {
		return err
	}
	return s.listings.ReplaceAttributeValues(ctx, listingID, values)
}

// checkInput validates the scalar fields and the category and city references.
func (s *ListingService) checkInput(ctx context.Context, in ListingInput) (*domain.Listing, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.Validationf("title", "title is required")
	}
	if in.Price.IsNegative() {
		return nil, domain.Validationf("price", "price must not be negative")
	}
	if !fitsNumeric(in.Price, priceScale, priceLimit) {
		return nil, domain.Validationf("price", "price must be below %s with at most %d decimal places", priceLimit, priceScale)
	}

	category, err := s.categories.GetCategoryByID(ctx, in.CategoryID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Validationf("category_id", "category %s does not exist", in.CategoryID)
		}
		return nil, err
	}
	if !category.IsEnabled {
		return nil, domain.Validationf("category_id", "category %s is disabled", in.CategoryID)
	}

	if in.CityID != nil {
		if _, err := s.geo.GetCity(ctx, *in.CityID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.Validationf("city_id", "city %s does not exist or is inactive", *in.CityID)
			}
			return nil, err
		}
	}

	var description *string
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		description = &d
	}
	return &domain.Listing{
		CategoryID:  in.CategoryID,
		CityID:      in.CityID,
		Title:       title,
		Price:       in.Price,
		Description: description,
	}, nil
}

func (s *ListingService) validateValues(ctx context.Context, categoryID uuid.UUID, submitted map[string]any) ([]domain.ListingAttributeValue, error) {
	defs, err := s.attributes.ListAttributes(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	return ValidateAttributeValues(defs, submitted)
}

func (s *ListingService) ownedListing(ctx context.Context, ownerID, listingID uuid.UUID) (*domain.Listing, error) {
	listing, err := s.listings.GetListingByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.OwnerUserID != ownerID {
		return nil, domain.Forbidden("listing")
	}
	return listing, nil
}

// UploadPhotos stores every file of the batch independently. The file at
// mainIndex is requested as main; pass -1 to keep the current main photo.
// The returned error is non-nil only when the batch could not start.
func (s *ListingService) UploadPhotos(ctx context.Context, ownerID, listingID uuid.UUID, files []Upload, mainIndex int) ([]PhotoResult, error) {
	if _, err := s.ownedListing(ctx, ownerID, listingID); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, domain.Validationf("files", "no files uploaded")
	}

	results := make([]PhotoResult, len(files))
	for i, f := range files {
		photo, err := s.uploadOne(ctx, listingID, f, i == mainIndex)
		results[i] = PhotoResult{FileName: f.Name, Photo: photo, Err: err}
		if err != nil {
			results[i].Error = err.Error()
			s.logger.Warn("Photo upload failed",
				zap.String("listing_id", listingID.String()),
				zap.String("file", f.Name),
				zap.Error(err),
			)
		}
	}
	return results, nil
}

func (s *ListingService) uploadOne(ctx context.Context, listingID uuid.UUID, f Upload, main bool) (*domain.ListingPhoto, error) {
	inspected, err := s.photoPolicy.Inspect(f.Reader, f.Size)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("listings/%s/%s%s", listingID, uuid.New(), inspected.Extension)
	url, err := s.blobs.Put(ctx, key, inspected.Body, inspected.ContentType)
	if err != nil {
		if errors.Is(err, blob.ErrTooLarge) {
			return nil, err
		}
		return nil, domain.Dependency("blob store", err)
	}

	photo, err := s.photos.AddPhoto(ctx, listingID, url, main)
	if err != nil {
		if delErr := s.blobs.Delete(ctx, url); delErr != nil {
			s.logger.Warn("Failed to remove orphaned blob", zap.String("url", url), zap.Error(delErr))
		}
		return nil, err
	}
	return photo, nil
}

func (s *ListingService) SetMainPhoto(ctx context.Context, ownerID, listingID, photoID uuid.UUID) error {
	if _, err := s.ownedListing(ctx, ownerID, listingID); err != nil {
		return err
	}
	return s.photos.SetMainPhoto(ctx, listingID, photoID)
}

// DeletePhoto removes the photo row and then, best effort, its blob.
func (s *ListingService) DeletePhoto(ctx context.Context, ownerID, listingID, photoID uuid.UUID) error {
	if _, err := s.ownedListing(ctx, ownerID, listingID); err != nil {
		return err
	}
	removed, err := s.photos.DeletePhoto(ctx, listingID, photoID)
	if err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, removed.URL); err != nil {
		s.logger.Warn("Failed to delete photo blob",
			zap.String("photo_id", photoID.String()),
			zap.String("url", removed.URL),
			zap.Error(err),
		)
	}
	return nil
}

// ListListings returns the published feed, newest first.
func (s *ListingService) ListListings(ctx context.Context, q ListingsQuery) ([]domain.ListingCard, error) {
	take := defaultTake
	if q.Take != nil {
		take = min(max(*q.Take, 1), maxTake)
	}

	cards, err := s.listings.ListPublishedListings(ctx, store.ListListingsParams{Limit: take, CategoryID: q.CategoryID})
	if err != nil {
		return nil, err
	}

	var cityIDs []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for _, c := range cards {
		if c.CityID != nil && !seen[*c.CityID] {
			seen[*c.CityID] = true
			cityIDs = append(cityIDs, *c.CityID)
		}
	}
	if len(cityIDs) == 0 {
		return cards, nil
	}
	names, err := s.geo.CityNames(ctx, cityIDs)
	if err != nil {
		return nil, err
	}
	lang := i18n.NormalizeGeo(q.Lang)
	for i := range cards {
		if cards[i].CityID == nil {
			continue
		}
		if n := i18n.Resolve(lang, names[*cards[i].CityID], ""); n != "" {
			cards[i].CityName = &n
		}
	}
	return cards, nil
}

// GetListing assembles the read model of one listing. The seller is looked up
// best effort: any profile failure leaves Seller nil.
func (s *ListingService) GetListing(ctx context.Context, id uuid.UUID, lang string) (*domain.ListingView, error) {
	listing, err := s.listings.GetListingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	catalogLang := i18n.Normalize(lang)
	geoLang := i18n.NormalizeGeo(lang)

	view := &domain.ListingView{
		ID:          listing.ID,
		OwnerUserID: listing.OwnerUserID,
		CategoryID:  listing.CategoryID,
		Title:       listing.Title,
		Price:       listing.Price,
		Description: listing.Description,
		IsPublished: listing.IsPublished,
		CityID:      listing.CityID,
		CreatedAt:   listing.CreatedAt,
		UpdatedAt:   listing.UpdatedAt,
	}

	photos, err := s.photos.ListPhotos(ctx, id)
	if err != nil {
		return nil, err
	}
	domain.SortPhotosForDisplay(photos)
	view.Photos = photos
	if view.Photos == nil {
		view.Photos = []domain.ListingPhoto{}
	}

	category, err := s.categories.GetCategoryByID(ctx, listing.CategoryID)
	switch {
	case err == nil:
		view.CategoryTitle = i18n.Resolve(catalogLang, category.Names, category.Slug)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	if listing.CityID != nil {
		if err := s.attachCity(ctx, view, *listing.CityID, geoLang); err != nil {
			return nil, err
		}
	}

	if view.Attributes, err = s.attributeViews(ctx, listing, catalogLang); err != nil {
		return nil, err
	}

	view.Seller = s.lookupSeller(ctx, listing.OwnerUserID)
	return view, nil
}

func (s *ListingService) attachCity(ctx context.Context, view *domain.ListingView, cityID uuid.UUID, lang string) error {
	city, err := s.geo.GetCity(ctx, cityID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	name := i18n.Resolve(lang, city.Names, city.Code)
	view.CityName = &name
	if city.Region != nil {
		regionName := i18n.Resolve(lang, city.Region.Names, city.Region.Code)
		view.RegionID = &city.Region.ID
		view.RegionName = &regionName
	}
	return nil
}

// attributeViews resolves stored values in definition order. Values whose
// definition no longer exists are skipped.
func (s *ListingService) attributeViews(ctx context.Context, listing *domain.Listing, lang string) ([]domain.ListingAttributeView, error) {
	values, err := s.listings.ListAttributeValues(ctx, listing.ID)
	if err != nil {
		return nil, err
	}
	views := []domain.ListingAttributeView{}
	if len(values) == 0 {
		return views, nil
	}
	defs, err := s.attributes.ListAttributes(ctx, listing.CategoryID)
	if err != nil {
		return nil, err
	}

	byAttr := make(map[uuid.UUID]domain.AttributeValue, len(values))
	for _, v := range values {
		byAttr[v.AttributeID] = v.Value
	}
	for i := range defs {
		def := &defs[i]
		value, ok := byAttr[def.ID]
		if !ok {
			continue
		}
		v := domain.ListingAttributeView{
			Code:  def.Code,
			Title: i18n.Resolve(lang, def.Labels, def.Code),
			Type:  def.Type,
			Unit:  def.Unit,
		}
		switch value := value.(type) {
		case domain.TextValue:
			v.Value = string(value)
		case domain.NumberValue:
			v.Value = value.Value
		case domain.BoolValue:
			v.Value = bool(value)
		case domain.OptionValue:
			v.Value = value.OptionID
			if opt := def.OptionByID(value.OptionID); opt != nil {
				v.OptionCode = opt.Code
				v.OptionTitle = i18n.Resolve(lang, opt.Labels, opt.Code)
				v.Value = opt.Code
			}
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *ListingService) lookupSeller(ctx context.Context, ownerID uuid.UUID) *domain.Seller {
	if s.profiles == nil {
		return nil
	}
	seller, err := s.profiles.GetSeller(ctx, ownerID)
	if err != nil {
		s.logger.Warn("Seller lookup failed",
			zap.String("owner_id", ownerID.String()),
			zap.Error(err),
		)
		return nil
	}
	return seller
}
