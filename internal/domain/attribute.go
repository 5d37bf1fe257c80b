package domain

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"catalog-service/internal/i18n"
)

// AttributeType is the closed set of value kinds a category attribute can declare.
// The string form is what the category_attributes.type column stores.
type AttributeType string

const (
	AttributeText   AttributeType = "text"
	AttributeNumber AttributeType = "number"
	AttributeBool   AttributeType = "bool"
	AttributeSelect AttributeType = "select"
)

// ParseAttributeType accepts only the four stored codes.
func ParseAttributeType(s string) (AttributeType, error) {
	t := AttributeType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", Validationf("attribute", "unknown attribute type %q", s)
	}
	return t, nil
}

func (t AttributeType) Valid() bool {
	switch t {
	case AttributeText, AttributeNumber, AttributeBool, AttributeSelect:
		return true
	}
	return false
}

// CategoryAttribute is a custom field definition owned by a category.
type CategoryAttribute struct {
	ID         uuid.UUID     `db:"id" json:"id"`
	CategoryID uuid.UUID     `db:"category_id" json:"category_id"`
	Code       string        `db:"code" json:"code"`
	Type       AttributeType `db:"type" json:"type"`
	IsRequired bool          `db:"is_required" json:"is_required"`
	SortOrder  int           `db:"sort_order" json:"sort_order"`
	Unit       *string       `db:"unit" json:"unit,omitempty"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`

	Labels  i18n.Translations `db:"-" json:"labels,omitempty"`
	Options []AttributeOption `db:"-" json:"options,omitempty"`
}

// FindOption looks an option up by code or by id. Inactive options are returned too.
func (a *CategoryAttribute) FindOption(ref string) *AttributeOption {
	ref = strings.TrimSpace(ref)
	id, idErr := uuid.Parse(ref)
	for i := range a.Options {
		o := &a.Options[i]
		if o.Code == ref || (idErr == nil && o.ID == id) {
			return o
		}
	}
	return nil
}

// OptionByID returns the option with the given id, or nil.
func (a *CategoryAttribute) OptionByID(id uuid.UUID) *AttributeOption {
	for i := range a.Options {
		if a.Options[i].ID == id {
			return &a.Options[i]
		}
	}
	return nil
}

// AttributeOption is one choice of a select attribute.
type AttributeOption struct {
	ID          uuid.UUID `db:"id" json:"id"`
	AttributeID uuid.UUID `db:"attribute_id" json:"attribute_id"`
	Code        string    `db:"code" json:"code"`
	SortOrder   int       `db:"sort_order" json:"sort_order"`
	IsActive    bool      `db:"is_active" json:"is_active"`

	Labels i18n.Translations `db:"-" json:"labels,omitempty"`
}

// AttributeValue is a typed listing attribute value. The implementations are
// TextValue, NumberValue, BoolValue and OptionValue; no other type satisfies it.
type AttributeValue interface {
	Type() AttributeType
	attributeValue()
}

type TextValue string

type NumberValue struct{ Value decimal.Decimal }

type BoolValue bool

// OptionValue references an AttributeOption of the same attribute.
type OptionValue struct{ OptionID uuid.UUID }

func (TextValue) Type() AttributeType   { return AttributeText }
func (NumberValue) Type() AttributeType { return AttributeNumber }
func (BoolValue) Type() AttributeType   { return AttributeBool }
func (OptionValue) Type() AttributeType { return AttributeSelect }

func (TextValue) attributeValue()   {}
func (NumberValue) attributeValue() {}
func (BoolValue) attributeValue()   {}
func (OptionValue) attributeValue() {}

// ListingAttributeValue is the value a listing holds for one attribute.
type ListingAttributeValue struct {
	ListingID   uuid.UUID
	AttributeID uuid.UUID
	Value       AttributeValue
}

// ValueColumns is the column form of an AttributeValue: exactly one field is non-null.
type ValueColumns struct {
	Text     sql.NullString      `db:"value_text"`
	Number   decimal.NullDecimal `db:"value_number"`
	Bool     sql.NullBool        `db:"value_bool"`
	OptionID uuid.NullUUID       `db:"option_id"`
}

// ColumnsOf spreads v over the four nullable value columns.
func ColumnsOf(v AttributeValue) ValueColumns {
	var c ValueColumns
	switch v := v.(type) {
	case TextValue:
		c.Text = sql.NullString{String: string(v), Valid: true}
	case NumberValue:
		c.Number = decimal.NullDecimal{Decimal: v.Value, Valid: true}
	case BoolValue:
		c.Bool = sql.NullBool{Bool: bool(v), Valid: true}
	case OptionValue:
		c.OptionID = uuid.NullUUID{UUID: v.OptionID, Valid: true}
	}
	return c
}

// Value rebuilds the typed value from its columns, checking it against the declared type.
func (c ValueColumns) Value(t AttributeType) (AttributeValue, error) {
	set := 0
	for _, valid := range []bool{c.Text.Valid, c.Number.Valid, c.Bool.Valid, c.OptionID.Valid} {
		if valid {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("attribute value has %d populated columns, want 1", set)
	}
	switch {
	case t == AttributeText && c.Text.Valid:
		return TextValue(c.Text.String), nil
	case t == AttributeNumber && c.Number.Valid:
		return NumberValue{Value: c.Number.Decimal}, nil
	case t == AttributeBool && c.Bool.Valid:
		return BoolValue(c.Bool.Bool), nil
	case t == AttributeSelect && c.OptionID.Valid:
		return OptionValue{OptionID: c.OptionID.UUID}, nil
	}
	return nil, fmt.Errorf("stored attribute value does not match type %q", t)
}

// AttributeView is an attribute definition with labels resolved for one language.
type AttributeView struct {
	ID         uuid.UUID     `json:"id"`
	Code       string        `json:"code"`
	Title      string        `json:"title"`
	Type       AttributeType `json:"type"`
	IsRequired bool          `json:"is_required"`
	SortOrder  int           `json:"sort_order"`
	Unit       *string       `json:"unit,omitempty"`
	Options    []OptionView  `json:"options,omitempty"`
}

type OptionView struct {
	ID    uuid.UUID `json:"id"`
	Code  string    `json:"code"`
	Title string    `json:"title"`
}
