package api

import (
	"net/http"

	"github.com/google/uuid"

	"catalog-service/internal/catalog"
	"catalog-service/internal/i18n"
)

// --- Category Handlers ---

// CategoryInput defines the expected input for creating or updating a category.
type CategoryInput struct {
	Name         string            `json:"name" validate:"required,max=200"`
	Slug         *string           `json:"slug" validate:"omitempty,max=200"`
	ParentID     *uuid.UUID        `json:"parent_id"`
	Icon         *string           `json:"icon" validate:"omitempty,max=100"`
	SortOrder    *int              `json:"sort_order"`
	IsEnabled    *bool             `json:"is_enabled"`
	Translations map[string]string `json:"translations" validate:"omitempty,dive,keys,min=2,max=5,endkeys,max=200"`
}

func (in CategoryInput) toService() catalog.CategoryInput {
	return catalog.CategoryInput{
		Name:         in.Name,
		Slug:         in.Slug,
		ParentID:     in.ParentID,
		Icon:         in.Icon,
		SortOrder:    in.SortOrder,
		IsEnabled:    in.IsEnabled,
		Translations: i18n.Translations(in.Translations),
	}
}

// AttributeInput defines the expected input for a new category attribute.
type AttributeInput struct {
	Code       string            `json:"code" validate:"required,max=100"`
	Type       string            `json:"type" validate:"required,oneof=text number bool select"`
	IsRequired bool              `json:"is_required"`
	SortOrder  int               `json:"sort_order"`
	Unit       *string           `json:"unit" validate:"omitempty,max=50"`
	Labels     map[string]string `json:"labels" validate:"omitempty,dive,keys,min=2,max=5,endkeys,max=200"`
}

// OptionInput defines the expected input for a new select option.
type OptionInput struct {
	Code      string            `json:"code" validate:"required,max=100"`
	SortOrder int               `json:"sort_order"`
	IsActive  *bool             `json:"is_active"`
	Labels    map[string]string `json:"labels" validate:"omitempty,dive,keys,min=2,max=5,endkeys,max=200"`
}

// OptionActiveInput toggles an option.
type OptionActiveInput struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

func (h *HTTPHandler) GetCategoryTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.categories.ListTree(r.Context(), r.URL.Query().Get("lang"))
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, tree)
}

func (h *HTTPHandler) GetCategoryAttributes(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := h.uuidParam(w, r, "categoryId")
	if !ok {
		return
	}
	attrs, err := h.categories.GetAttributes(r.Context(), categoryID, r.URL.Query().Get("lang"))
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, attrs)
}

func (h *HTTPHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	items, err := h.categories.ListCategories(r.Context())
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, items)
}

func (h *HTTPHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var input CategoryInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	created, err := h.categories.CreateCategory(r.Context(), input.toService())
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, created)
}

func (h *HTTPHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := h.uuidParam(w, r, "categoryId")
	if !ok {
		return
	}
	var input CategoryInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	updated, err := h.categories.UpdateCategory(r.Context(), categoryID, input.toService())
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, updated)
}

// DisableCategory answers 204; the category is soft-deleted.
func (h *HTTPHandler) DisableCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := h.uuidParam(w, r, "categoryId")
	if !ok {
		return
	}
	if err := h.categories.DisableCategory(r.Context(), categoryID); err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) CreateAttribute(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := h.uuidParam(w, r, "categoryId")
	if !ok {
		return
	}
	var input AttributeInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	attr, err := h.categories.CreateAttribute(r.Context(), categoryID, catalog.AttributeInput{
		Code:       input.Code,
		Type:       input.Type,
		IsRequired: input.IsRequired,
		SortOrder:  input.SortOrder,
		Unit:       input.Unit,
		Labels:     i18n.Translations(input.Labels),
	})
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, attr)
}

func (h *HTTPHandler) CreateOption(w http.ResponseWriter, r *http.Request) {
	attributeID, ok := h.uuidParam(w, r, "attributeId")
	if !ok {
		return
	}
	var input OptionInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	opt, err := h.categories.CreateOption(r.Context(), attributeID, catalog.OptionInput{
		Code:      input.Code,
		SortOrder: input.SortOrder,
		IsActive:  input.IsActive,
		Labels:    i18n.Translations(input.Labels),
	})
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, opt)
}

func (h *HTTPHandler) SetOptionActive(w http.ResponseWriter, r *http.Request) {
	optionID, ok := h.uuidParam(w, r, "optionId")
	if !ok {
		return
	}
	var input OptionActiveInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	if err := h.categories.SetOptionActive(r.Context(), optionID, *input.IsActive); err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
