package domain

import (
	"github.com/google/uuid"

	"catalog-service/internal/i18n"
)

type Region struct {
	ID       uuid.UUID `db:"id"`
	Code     string    `db:"code"`
	IsActive bool      `db:"is_active"`

	Names i18n.Translations `db:"-"`
}

// City optionally belongs to a region. Region is populated by lookups that join it.
type City struct {
	ID       uuid.UUID  `db:"id"`
	RegionID *uuid.UUID `db:"region_id"`
	Code     string     `db:"code"`
	IsActive bool       `db:"is_active"`

	Names  i18n.Translations `db:"-"`
	Region *Region           `db:"-"`
}

type RegionView struct {
	ID   uuid.UUID `json:"id"`
	Code string    `json:"code"`
	Name string    `json:"name"`
}

type CityView struct {
	ID       uuid.UUID  `json:"id"`
	RegionID *uuid.UUID `json:"region_id,omitempty"`
	Code     string     `json:"code"`
	Name     string     `json:"name"`
}

type CitySearchItem struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	RegionID   *uuid.UUID `json:"region_id,omitempty"`
	RegionName string     `json:"region_name,omitempty"`
}
