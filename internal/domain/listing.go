package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Listing is a user-submitted classified ad.
type Listing struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	OwnerUserID uuid.UUID       `db:"owner_user_id" json:"owner_user_id"`
	CategoryID  uuid.UUID       `db:"category_id" json:"category_id"`
	CityID      *uuid.UUID      `db:"city_id" json:"city_id,omitempty"`
	Title       string          `db:"title" json:"title"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Description *string         `db:"description" json:"description,omitempty"`
	IsPublished bool            `db:"is_published" json:"is_published"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// ListingPhoto points at a stored image of a listing.
// For a listing with photos exactly one of them has IsMain set.
type ListingPhoto struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ListingID uuid.UUID `db:"listing_id" json:"listing_id"`
	URL       string    `db:"url" json:"url"`
	SortOrder int       `db:"sort_order" json:"sort_order"`
	IsMain    bool      `db:"is_main" json:"is_main"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SortPhotosForDisplay orders photos main first, then by ascending sort order.
func SortPhotosForDisplay(photos []ListingPhoto) {
	sort.SliceStable(photos, func(i, j int) bool {
		if photos[i].IsMain != photos[j].IsMain {
			return photos[i].IsMain
		}
		return photos[i].SortOrder < photos[j].SortOrder
	})
}

// Seller is the public profile of a listing owner, provided by the user-profile service.
type Seller struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"displayName"`
	AvatarURL   *string   `json:"avatarUrl,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
}

// ListingCard is the feed representation of a published listing.
type ListingCard struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	CategoryID   uuid.UUID       `db:"category_id" json:"category_id"`
	Title        string          `db:"title" json:"title"`
	Price        decimal.Decimal `db:"price" json:"price"`
	CityID       *uuid.UUID      `db:"city_id" json:"city_id,omitempty"`
	CityName     *string         `db:"-" json:"city_name,omitempty"`
	MainPhotoURL *string         `db:"main_photo_url" json:"main_photo_url,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// ListingAttributeView is an attribute value with its labels resolved.
type ListingAttributeView struct {
	Code        string        `json:"code"`
	Title       string        `json:"title"`
	Type        AttributeType `json:"type"`
	Unit        *string       `json:"unit,omitempty"`
	Value       any           `json:"value"`
	OptionCode  string        `json:"option_code,omitempty"`
	OptionTitle string        `json:"option_title,omitempty"`
}

// ListingView is the assembled read model of a single listing.
type ListingView struct {
	ID            uuid.UUID              `json:"id"`
	OwnerUserID   uuid.UUID              `json:"owner_user_id"`
	CategoryID    uuid.UUID              `json:"category_id"`
	CategoryTitle string                 `json:"category_title,omitempty"`
	Title         string                 `json:"title"`
	Price         decimal.Decimal        `json:"price"`
	Description   *string                `json:"description,omitempty"`
	IsPublished   bool                   `json:"is_published"`
	CityID        *uuid.UUID             `json:"city_id,omitempty"`
	CityName      *string                `json:"city_name,omitempty"`
	RegionID      *uuid.UUID             `json:"region_id,omitempty"`
	RegionName    *string                `json:"region_name,omitempty"`
	Photos        []ListingPhoto         `json:"photos"`
	Attributes    []ListingAttributeView `json:"attributes"`
	Seller        *Seller                `json:"seller"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}
