// Package catalog holds the catalog business rules: the category tree,
// attribute definitions and value validation, listings with their photos,
// and the geo reference lookups.
package catalog

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"catalog-service/internal/domain"
	"catalog-service/internal/i18n"
	"catalog-service/internal/store"
)

// CategoryInput carries admin create and update fields. Nil pointers mean
// "not supplied": create applies defaults, update keeps the stored value.
// ParentID nil on update moves the category to the root.
type CategoryInput struct {
	Name         string
	Slug         *string
	ParentID     *uuid.UUID
	Icon         *string
	SortOrder    *int
	IsEnabled    *bool
	Translations i18n.Translations
}

type AttributeInput struct {
	Code       string
	Type       string
	IsRequired bool
	SortOrder  int
	Unit       *string
	Labels     i18n.Translations
}

type OptionInput struct {
	Code      string
	SortOrder int
	IsActive  *bool
	Labels    i18n.Translations
}

type CategoryService struct {
	categories store.CategoryStorer
	attributes store.AttributeStorer
	logger     *zap.Logger
}

func NewCategoryService(categories store.CategoryStorer, attributes store.AttributeStorer, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{categories: categories, attributes: attributes, logger: logger}
}

// ListTree returns the enabled categories as a forest with titles in lang.
func (s *CategoryService) ListTree(ctx context.Context, lang string) ([]domain.CategoryNode, error) {
	categories, err := s.categories.ListEnabledCategories(ctx)
	if err != nil {
		return nil, err
	}
	return BuildTree(categories, i18n.Normalize(lang)), nil
}

// ListCategories is the admin listing: every category, newest first, named in ru.
func (s *CategoryService) ListCategories(ctx context.Context) ([]domain.CategoryListItem, error) {
	categories, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]domain.CategoryListItem, len(categories))
	for i, c := range categories {
		items[i] = domain.CategoryListItem{
			ID:        c.ID,
			Name:      i18n.Resolve(i18n.DefaultLang, c.Names, c.Slug),
			Slug:      c.Slug,
			ParentID:  c.ParentID,
			IsEnabled: c.IsEnabled,
		}
	}
	return items, nil
}

func (s *CategoryService) CreateCategory(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	name, slug, names, err := s.prepare(ctx, in, nil)
	if err != nil {
		return nil, err
	}
	if in.ParentID != nil {
		if err := s.checkParentExists(ctx, *in.ParentID); err != nil {
			return nil, err
		}
	}

	category := &domain.Category{
		ID:        uuid.New(),
		Slug:      slug,
		Icon:      trimmedOrNil(in.Icon),
		ParentID:  in.ParentID,
		IsEnabled: true,
		Names:     names,
	}
	if in.SortOrder != nil {
		category.SortOrder = *in.SortOrder
	}
	if in.IsEnabled != nil {
		category.IsEnabled = *in.IsEnabled
	}

	created, err := s.categories.CreateCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Category created",
		zap.String("category_id", created.ID.String()),
		zap.String("slug", created.Slug),
		zap.String("name", name),
	)
	return created, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, id uuid.UUID, in CategoryInput) (*domain.Category, error) {
	existing, err := s.categories.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, err
	}
	_, slug, names, err := s.prepare(ctx, in, &id)
	if err != nil {
		return nil, err
	}
	if in.ParentID != nil {
		if err := s.checkReparent(ctx, id, *in.ParentID); err != nil {
			return nil, err
		}
	}

	merged := i18n.Translations{}
	for lang, v := range existing.Names {
		merged[lang] = v
	}
	for lang, v := range names {
		merged[lang] = v
	}

	existing.Slug = slug
	existing.ParentID = in.ParentID
	existing.Names = merged
	if in.Icon != nil {
		existing.Icon = trimmedOrNil(in.Icon)
	}
	if in.SortOrder != nil {
		existing.SortOrder = *in.SortOrder
	}
	if in.IsEnabled != nil {
		existing.IsEnabled = *in.IsEnabled
	}

	updated, err := s.categories.UpdateCategory(ctx, existing)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Category updated", zap.String("category_id", id.String()), zap.String("slug", updated.Slug))
	return updated, nil
}

// DisableCategory soft-deletes a category. Disabling twice succeeds.
func (s *CategoryService) DisableCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.categories.DisableCategory(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Category disabled", zap.String("category_id", id.String()))
	return nil
}

// prepare validates name, slug and translations shared by create and update.
// excludeID is the category being updated.
func (s *CategoryService) prepare(ctx context.Context, in CategoryInput, excludeID *uuid.UUID) (string, string, i18n.Translations, error) {
	name := strings.TrimSpace(in.Name)
	if utf8.RuneCountInString(name) < 2 {
		return "", "", nil, domain.Validationf("name", "name must be at least 2 characters")
	}

	source := name
	if in.Slug != nil && strings.TrimSpace(*in.Slug) != "" {
		source = *in.Slug
	}
	slug := Slugify(source)
	if slug == "" {
		return "", "", nil, domain.Validationf("slug", "slug is empty after normalization")
	}

	exists, err := s.categories.SlugExists(ctx, slug, excludeID)
	if err != nil {
		return "", "", nil, err
	}
	if exists {
		return "", "", nil, domain.Conflictf("slug", "slug %q already exists", slug)
	}

	names, err := normalizeTranslations("translations", in.Translations)
	if err != nil {
		return "", "", nil, err
	}
	names[i18n.DefaultLang] = name
	return name, slug, names, nil
}

func (s *CategoryService) checkParentExists(ctx context.Context, parentID uuid.UUID) error {
	if _, err := s.categories.GetCategoryByID(ctx, parentID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Validationf("parent_id", "parent category %s does not exist", parentID)
		}
		return err
	}
	return nil
}

// checkReparent rejects a parent that is the category itself or one of its descendants.
func (s *CategoryService) checkReparent(ctx context.Context, id, parentID uuid.UUID) error {
	if parentID == id {
		return domain.Validationf("parent_id", "a category cannot be its own parent")
	}
	parents, err := s.categories.CategoryParents(ctx)
	if err != nil {
		return err
	}
	if _, ok := parents[parentID]; !ok {
		return domain.Validationf("parent_id", "parent category %s does not exist", parentID)
	}
	cur := &parentID
	for steps := 0; cur != nil && steps <= len(parents); steps++ {
		if *cur == id {
			return domain.Validationf("parent_id", "category %s is a descendant of %s", parentID, id)
		}
		cur = parents[*cur]
	}
	return nil
}

// GetAttributes returns the attribute definitions of an enabled category with
// labels in lang. Only active options are listed.
func (s *CategoryService) GetAttributes(ctx context.Context, categoryID uuid.UUID, lang string) ([]domain.AttributeView, error) {
	category, err := s.categories.GetCategoryByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if !category.IsEnabled {
		return nil, domain.NotFound("category", categoryID)
	}

	attrs, err := s.attributes.ListAttributes(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	lang = i18n.Normalize(lang)
	views := make([]domain.AttributeView, 0, len(attrs))
	for _, a := range attrs {
		v := domain.AttributeView{
			ID:         a.ID,
			Code:       a.Code,
			Title:      i18n.Resolve(lang, a.Labels, a.Code),
			Type:       a.Type,
			IsRequired: a.IsRequired,
			SortOrder:  a.SortOrder,
			Unit:       a.Unit,
		}
		for _, o := range a.Options {
			if !o.IsActive {
				continue
			}
			v.Options = append(v.Options, domain.OptionView{
				ID:    o.ID,
				Code:  o.Code,
				Title: i18n.Resolve(lang, o.Labels, o.Code),
			})
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *CategoryService) CreateAttribute(ctx context.Context, categoryID uuid.UUID, in AttributeInput) (*domain.CategoryAttribute, error) {
	if _, err := s.categories.GetCategoryByID(ctx, categoryID); err != nil {
		return nil, err
	}
	code := strings.ToLower(strings.TrimSpace(in.Code))
	if !validCode(code) {
		return nil, domain.Validationf("code", "code %q must match [a-z0-9_-]", in.Code)
	}
	typ, err := domain.ParseAttributeType(in.Type)
	if err != nil {
		return nil, err
	}
	labels, err := normalizeTranslations("labels", in.Labels)
	if err != nil {
		return nil, err
	}

	attr, err := s.attributes.CreateAttribute(ctx, &domain.CategoryAttribute{
		ID:         uuid.New(),
		CategoryID: categoryID,
		Code:       code,
		Type:       typ,
		IsRequired: in.IsRequired,
		SortOrder:  in.SortOrder,
		Unit:       trimmedOrNil(in.Unit),
		Labels:     labels,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Attribute created",
		zap.String("category_id", categoryID.String()),
		zap.String("code", attr.Code),
		zap.String("type", string(attr.Type)),
	)
	return attr, nil
}

// CreateOption adds an option to a select attribute.
func (s *CategoryService) CreateOption(ctx context.Context, attributeID uuid.UUID, in OptionInput) (*domain.AttributeOption, error) {
	attr, err := s.attributes.GetAttributeByID(ctx, attributeID)
	if err != nil {
		return nil, err
	}
	if attr.Type != domain.AttributeSelect {
		return nil, domain.Validationf("attribute", "attribute %q is %s, options need a select attribute", attr.Code, attr.Type)
	}
	code := strings.ToLower(strings.TrimSpace(in.Code))
	if !validCode(code) {
		return nil, domain.Validationf("code", "code %q must match [a-z0-9_-]", in.Code)
	}
	labels, err := normalizeTranslations("labels", in.Labels)
	if err != nil {
		return nil, err
	}

	opt := &domain.AttributeOption{
		ID:          uuid.New(),
		AttributeID: attributeID,
		Code:        code,
		SortOrder:   in.SortOrder,
		IsActive:    true,
		Labels:      labels,
	}
	if in.IsActive != nil {
		opt.IsActive = *in.IsActive
	}
	return s.attributes.CreateOption(ctx, opt)
}

// SetOptionActive toggles an option. Listings already holding it keep their value.
func (s *CategoryService) SetOptionActive(ctx context.Context, optionID uuid.UUID, active bool) error {
	if err := s.attributes.SetOptionActive(ctx, optionID, active); err != nil {
		return err
	}
	s.logger.Info("Attribute option toggled", zap.String("option_id", optionID.String()), zap.Bool("active", active))
	return nil
}

// normalizeTranslations lower-cases language keys, trims values, drops empty
// values and rejects languages the catalog does not carry.
func normalizeTranslations(field string, in i18n.Translations) (i18n.Translations, error) {
	out := i18n.Translations{}
	for lang, v := range in {
		l := strings.ToLower(strings.TrimSpace(lang))
		if !i18n.IsSupported(l) {
			return nil, domain.Validationf(field, "unsupported language %q", lang)
		}
		if v = strings.TrimSpace(v); v != "" {
			out[l] = v
		}
	}
	return out, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
