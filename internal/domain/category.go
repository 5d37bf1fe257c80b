package domain

import (
	"time"

	"github.com/google/uuid"

	"catalog-service/internal/i18n"
)

// Category is a node of the category forest. ParentID nil means root.
type Category struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Slug      string     `db:"slug" json:"slug"`
	Icon      *string    `db:"icon" json:"icon,omitempty"`
	SortOrder int        `db:"sort_order" json:"sort_order"`
	ParentID  *uuid.UUID `db:"parent_id" json:"parent_id,omitempty"`
	IsEnabled bool       `db:"is_enabled" json:"is_enabled"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`

	// Names holds one row per language from category_translations.
	Names i18n.Translations `db:"-" json:"names,omitempty"`
}

// CategoryNode is a category with its resolved title and enabled children.
type CategoryNode struct {
	ID       uuid.UUID      `json:"id"`
	Slug     string         `json:"slug"`
	Title    string         `json:"title"`
	Icon     *string        `json:"icon,omitempty"`
	Children []CategoryNode `json:"children"`
}

// CategoryListItem is the admin view of a category.
type CategoryListItem struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
	IsEnabled bool       `json:"is_enabled"`
}
